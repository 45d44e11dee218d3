package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"safepets-citas/internal/adapters/auth/jwtlocal"
	emailnotify "safepets-citas/internal/adapters/notify/email"
	"safepets-citas/internal/platform/logger"
	"safepets-citas/internal/ports/auth"
	"safepets-citas/internal/ports/notify"
	"safepets-citas/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional; en despliegues reales las vars vienen del entorno
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	var verifier auth.AuthVerifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		v, err := jwtlocal.New(secret)
		if err != nil {
			log.Error("verifier inválido", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = v
	} else {
		log.Warn("JWT_SECRET no definido: modo dev con headers de debug", nil)
	}

	var sender notify.Sender
	if os.Getenv("NOTIFY_DRIVER") == "email" {
		port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		s, err := emailnotify.New(emailnotify.Config{
			Host: os.Getenv("SMTP_HOST"),
			Port: port,
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: os.Getenv("SMTP_FROM"),
		})
		if err != nil {
			log.Error("config SMTP inválida", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		sender = s
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Sender:       sender,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
