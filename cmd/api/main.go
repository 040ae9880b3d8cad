package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/commands"
	"geoattendance/backend/internal/pkg/config"
	"geoattendance/backend/internal/pkg/lock"
	"geoattendance/backend/internal/pkg/logger"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/router"
	"geoattendance/backend/internal/service/account"
	"geoattendance/backend/internal/service/ledger"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return
		}
		l := logger.New(logger.Options{Service: "attendance-api"})
		l.Fatal().Err(err).Msg("config")
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "attendance-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("shutting down")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	log.Info().Str("env", cfg.Env).Msg("starting service")
	log.Info().Msgf("config:\n%s", cfg)

	policy, err := ledgerPolicy(cfg.Policy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// - postgresql
	db := postgresql.NewDB(postgresql.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		DisableTLS:   cfg.DB.DisableTLS,
		Debug:        cfg.DB.Debug,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	}, log)
	defer db.Close()

	if err := db.StatusCheck(ctx); err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	if err := commands.MigrateUP(ctx, db, log); err != nil {
		return errors.Wrap(err, "migrating database")
	}

	// - redis
	var redisDB *redis.Client
	if cfg.Redis.Addr != "" {
		redisDB, err = lock.Connect(ctx, lock.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisDB.Close()
	} else {
		log.Warn().Msg("redis not configured, attendance lock is process local")
	}

	a, err := auth.New(cfg.Auth.JWTKey, cfg.Auth.TokenTTL)
	if err != nil {
		return errors.Wrap(err, "constructing auth")
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := web.NewApp(log)
	r := router.NewRouter(app, db, redisDB, a, router.Options{
		Env:            cfg.Env,
		AllowedOrigins: cfg.Web.AllowedOrigins,
		Policy:         policy,
		LockTTL:        cfg.Redis.LockTTL,
		LockWait:       cfg.Web.WriteTimeout / 3,
	})
	accounts := r.Init()

	var adminID *string
	if cfg.Admin.EmployeeID != "" {
		adminID = &cfg.Admin.EmployeeID
	}
	if err := commands.SeedAdmin(ctx, accounts, log, account.NewUser{
		Name:         cfg.Admin.Name,
		MobileNumber: cfg.Admin.Mobile,
		EmployeeID:   adminID,
		Password:     cfg.Admin.Password,
	}); err != nil {
		return errors.Wrap(err, "seeding admin")
	}

	srv := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      app,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server error")

	case <-ctx.Done():
		log.Info().Msg("shutdown started")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return errors.Wrap(err, "could not stop server gracefully")
		}
		log.Info().Msg("shutdown complete")
	}

	return nil
}

func ledgerPolicy(p config.Policy) (ledger.Policy, error) {
	loc, err := p.Location()
	if err != nil {
		return ledger.Policy{}, err
	}

	office, err := ledger.NewGeofence(p.OfficeLatitude, p.OfficeLongitude, p.OfficeRadius)
	if err != nil {
		return ledger.Policy{}, errors.Wrap(err, "office geofence")
	}

	return ledger.Policy{
		OnePerDay:       p.OnePerDay,
		RequireLocation: p.RequireLocation,
		Location:        loc,
		Office:          office,
	}, nil
}
