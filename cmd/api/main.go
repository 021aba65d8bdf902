// Command api serves the mobile-facing authentication surface. It
// authenticates requests statelessly from bearer tokens and mirrors each
// login into the shared session store so the admin process can see it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"campusride/account"
	"campusride/config"
	"campusride/db"
	"campusride/docstore"
	"campusride/httpapi"
	"campusride/identity"
	"campusride/registration"
	"campusride/session"
	"campusride/token"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer pool.Close()

	sessions, err := session.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("connect session store")
	}
	defer sessions.Close()

	var docs docstore.Store
	if cfg.S3.Bucket != "" {
		docs, err = docstore.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.WithError(err).Fatal("connect document store")
		}
	} else {
		log.Warn("S3_BUCKET not set, storing documents in memory")
		docs = docstore.NewMemStore()
	}

	dir := account.NewDirectory(pool)
	tokens := token.NewService(token.Config{
		Secret: cfg.AuthSecret,
		TTL:    cfg.TokenTTL,
		Issuer: "campusride",
	})
	reg := registration.NewService(dir, tokens)
	bridge := session.NewBridge(sessions, cfg.SessionTTL)

	handlers := httpapi.NewHandlers(reg, tokens, dir, bridge, docs, cfg.TokenTTL, log)
	mw := identity.NewMiddleware(identity.NewTokenResolver(tokens))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.NewRouter(handlers, mw),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("addr", cfg.Addr).Info("api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
}
