package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/learnhub/seminarbook/libs/config"
	"github.com/learnhub/seminarbook/libs/httpx"
	"github.com/learnhub/seminarbook/libs/runtime"
)

func main() {
	var (
		addr       = flag.String("addr", ":"+config.String("PORT", "8090"), "listen address")
		token      = flag.String("token", config.String("WHATSAPP_ACCESS_TOKEN", "dev-token"), "expected bearer token")
		failImages = flag.Bool("fail-images", config.IsTruthy(config.String("SIM_FAIL_IMAGES", "")), "reject image messages")
	)
	flag.Parse()

	logger := runtime.NewLogger("whatsapp-sim")
	sim := newSimulator(*token, *failImages, logger)

	r := mux.NewRouter()
	sim.register(r)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpx.Chain(r, httpx.WithRequestID, httpx.WithAccessLog(logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := runtime.SignalContext()
	defer stop()
	go func() {
		logger.Info("whatsapp simulator listening", "addr", *addr, "fail_images", *failImages)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
