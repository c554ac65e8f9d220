package main

import (
	"os"
	"testing"
	"time"

	"github.com/learnhub/seminarbook/libs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookings")
	t.Setenv("WHATSAPP_ADMIN_NUMBER", "9000000001")

	var cfg serviceConfig
	require.NoError(t, config.Load("", &cfg))

	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, "91", cfg.PhoneCountryPrefix)
	assert.Equal(t, "sync", cfg.NotifyMode)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 20*time.Second, cfg.NotifyBudget)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Equal(t, "v18.0", cfg.APIVersion)
	assert.Equal(t, "9000000001", cfg.AdminNumber)
	assert.True(t, cfg.ApplySchema)
}

func TestServiceConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "unused")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	var cfg serviceConfig
	assert.Error(t, config.Load("", &cfg))
}

func TestServiceConfigNotifyBudgetMustFitRequestTimeout(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookings")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("NOTIFY_BUDGET", "8s")

	var cfg serviceConfig
	require.NoError(t, config.Load("", &cfg))
	assert.Error(t, cfg.validate())

	cfg.NotifyBudget = 4 * time.Second
	assert.NoError(t, cfg.validate())

	cfg.NotifyBudget = 0
	assert.Error(t, cfg.validate())
}
