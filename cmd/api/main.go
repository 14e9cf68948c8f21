package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/DiplomWorkHushchin/Server/internal/auth"
	"github.com/DiplomWorkHushchin/Server/internal/config"
	"github.com/DiplomWorkHushchin/Server/internal/course"
	"github.com/DiplomWorkHushchin/Server/internal/directory"
	"github.com/DiplomWorkHushchin/Server/internal/httpapi"
	"github.com/DiplomWorkHushchin/Server/internal/obs"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Configuration is read once; a missing or undersized signing key must
	// keep the process from serving at all.
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingTokenKey) || errors.Is(err, config.ErrShortTokenKey) {
			log.Fatalf("refusing to start: %v", err)
		}
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)
	defer obs.Sync()

	var db *sql.DB
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if db == nil {
		log.Fatal("refusing to start: SERVER_PG_DSN is required")
	}

	dir := directory.NewPGDirectory(db)
	sessions := auth.NewPGSessionStore(db)

	issuer, err := auth.NewIssuer(cfg, dir, sessions)
	if err != nil {
		log.Fatalf("refusing to start: %v", err)
	}
	validator, err := auth.NewValidator(cfg.TokenKey)
	if err != nil {
		log.Fatalf("refusing to start: %v", err)
	}
	authSvc, err := auth.NewService(dir, sessions, issuer, validator,
		auth.WithIdentityResolver(directory.NewGoogleResolver()))
	if err != nil {
		log.Fatalf("wire auth service: %v", err)
	}
	courses, err := course.NewService(course.NewPGStore(db))
	if err != nil {
		log.Fatalf("wire course service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, courses, dir, validator)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting server-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
