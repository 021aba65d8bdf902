// Command admin serves the back-office surface. Unlike the api process it
// authenticates from the shared Redis session store rather than bearer
// tokens, so sessions mirrored at login keep working here.
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

	dir := account.NewDirectory(pool)
	tokens := token.NewService(token.Config{
		Secret: cfg.AuthSecret,
		TTL:    cfg.TokenTTL,
		Issuer: "campusride",
	})
	reg := registration.NewService(dir, tokens)
	bridge := session.NewBridge(sessions, cfg.SessionTTL)

	// The admin surface never accepts document uploads, so it carries no
	// real object storage.
	handlers := httpapi.NewHandlers(reg, tokens, dir, bridge, docstore.NewMemStore(), cfg.TokenTTL, log)
	mw := identity.NewMiddleware(identity.NewSessionResolver(sessions))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.NewAdminRouter(handlers, mw),
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

	log.WithField("addr", cfg.Addr).Info("admin listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
}
