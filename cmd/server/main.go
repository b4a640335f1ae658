package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authhttp "github.com/cvboost/cvboost/modules/auth"
	billinghttp "github.com/cvboost/cvboost/modules/billing"
	resumehttp "github.com/cvboost/cvboost/modules/resume"
	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/ai"
	"github.com/cvboost/cvboost/pkg/auth"
	"github.com/cvboost/cvboost/pkg/billing"
	"github.com/cvboost/cvboost/pkg/config"
	"github.com/cvboost/cvboost/pkg/email"
	"github.com/cvboost/cvboost/pkg/httpserver"
	"github.com/cvboost/cvboost/pkg/logger"
	"github.com/cvboost/cvboost/pkg/mongo"
	"github.com/cvboost/cvboost/pkg/quota"
	"github.com/cvboost/cvboost/pkg/subscription"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`

	Mongo  mongo.Config
	Paddle billing.Config
	Prices billing.PriceMap
	OpenAI ai.Config
	Email  email.Config
	Auth   auth.Config
	Quota  quota.Config
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, "cvboost-api"),
	)
	slog.SetDefault(log)

	ctx := context.Background()

	db, err := mongo.ConnectDatabase(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	store := account.NewMongoStore(db)

	provider, err := billing.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		return fmt.Errorf("paddle client: %w", err)
	}

	optimizer, err := ai.NewOptimizer(cfg.OpenAI)
	if err != nil {
		return fmt.Errorf("openai client: %w", err)
	}

	var sender email.Sender
	if cfg.Environment == "production" {
		sender, err = email.NewPostmarkSender(cfg.Email)
		if err != nil {
			return fmt.Errorf("postmark client: %w", err)
		}
	} else {
		sender = email.NewDevSender(cfg.Email.DevOutputDir)
		log.Info("using dev email sender", slog.String("dir", cfg.Email.DevOutputDir))
	}

	subSvc := subscription.NewService(provider, store, cfg.Prices,
		subscription.WithLogger(log.With(logger.Component("subscription"))))
	authSvc := auth.NewService(store, sender, cfg.Auth,
		auth.WithLogger(log.With(logger.Component("auth"))))
	quotaSvc := quota.NewService(store, cfg.Quota,
		quota.WithLogger(log.With(logger.Component("quota"))))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(log, mongo.Healthcheck(db.Client())))
	r.Mount("/", billinghttp.Router(subSvc, log))
	r.Mount("/auth", authhttp.Router(authSvc, log))
	r.Mount("/resume", resumehttp.Router(optimizer, quotaSvc, log))

	srv := httpserver.New(
		httpserver.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, r)
}
