package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/learnhub/seminarbook/libs/auth"
	"github.com/learnhub/seminarbook/libs/config"
)

func main() {
	var (
		secret  = flag.String("secret", config.String("ADMIN_JWT_SECRET", ""), "HS256 signing secret")
		subject = flag.String("sub", "admin", "token subject")
		ttl     = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is required")
		os.Exit(2)
	}
	token, err := auth.SignHS256(*subject, auth.RoleAdmin, *ttl, *secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
