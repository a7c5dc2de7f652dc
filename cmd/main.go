package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/bunnyq"

	"github.com/rentkit/rental-service/api"
	"github.com/rentkit/rental-service/config"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/core/user"
	"github.com/rentkit/rental-service/db"
	"github.com/rentkit/rental-service/db/inspectrepo"
	"github.com/rentkit/rental-service/db/pricerepo"
	"github.com/rentkit/rental-service/db/rentalrepo"
	"github.com/rentkit/rental-service/db/stockrepo"
	"github.com/rentkit/rental-service/db/usrrepo"
	"github.com/rentkit/rental-service/queue"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	configLogging(cfg)
	printLogHeader(cfg)
	cfg.Print()

	dbPool := configDatabase(ctx, cfg)
	bq := rabbit(cfg)

	log.Info().Msg("creating stock service...")
	sr := stockrepo.NewPostgresRepo(dbPool)
	stockQueue := configStockQueue(bq, cfg)
	stockService := stock.NewService(sr, stockQueue, cfg.Rental.MaxAttempts)

	log.Info().Msg("creating pricing service...")
	pr := pricerepo.NewPostgresRepo(dbPool)
	pricingService := pricing.NewService(pr)

	log.Info().Msg("creating inspection service...")
	ir := inspectrepo.NewPostgresRepo(dbPool)
	inspectionService := inspection.NewService(ir)

	log.Info().Msg("creating rental service...")
	rr := rentalrepo.NewPostgresRepo(dbPool)
	rentalQueue := configRentalQueue(bq, cfg)
	rentalService := rental.NewService(rr, stockService, pricingService, inspectionService, rentalQueue, rental.Rules{
		GraceDays:      cfg.Rental.GraceDays,
		LateMultiplier: decimal.NewFromFloat(cfg.Rental.LateMultiplier),
		MaxAttempts:    cfg.Rental.MaxAttempts,
	})

	log.Info().Msg("creating user service...")
	ur := usrrepo.NewPostgresRepo(dbPool)
	userService := user.NewService(ur)

	log.Info().Msg("configuring metrics...")
	api.ConfigureMetrics()

	log.Info().Msg("configuring router...")
	r := api.ConfigureRouter(cfg, stockService, rentalService, pricingService, userService)

	if !cfg.RabbitMQ.Mock {
		log.Info().Msg("consuming catalog items...")
		catalogQueue := queue.NewCatalogQueue(bq, cfg.RabbitMQ.Catalog.Queue, cfg.RabbitMQ.Catalog.Dlt.Exchange)
		go catalogQueue.ConsumeItems(context.Background(), stockService)
	}

	log.Info().Str("port", cfg.Port).Msg("listening")
	log.Fatal().Err(http.ListenAndServe(":"+cfg.Port, r)).Send()
}

func configStockQueue(bq *bunnyq.BunnyQ, cfg *config.Config) stock.Queue {
	if cfg.RabbitMQ.Mock {
		log.Info().Msg("creating mock stock queue...")
		return queue.NewMockStockQueue()
	}
	return queue.NewStockQueue(bq, cfg.RabbitMQ.Stock.LevelExchange, cfg.RabbitMQ.Stock.MovementExchange)
}

func configRentalQueue(bq *bunnyq.BunnyQ, cfg *config.Config) rental.Queue {
	if cfg.RabbitMQ.Mock {
		log.Info().Msg("creating mock rental queue...")
		return queue.NewMockRentalQueue()
	}
	return queue.NewRentalQueue(bq, cfg.RabbitMQ.Rental.Exchange)
}

func rabbit(cfg *config.Config) *bunnyq.BunnyQ {
	if cfg.RabbitMQ.Mock {
		return nil
	}

	log.Info().Msg("connecting to rabbitmq...")
	osChannel := make(chan os.Signal, 1)
	signal.Notify(osChannel, syscall.SIGTERM)

	return bunnyq.New(context.Background(),
		bunnyq.Address{
			User: cfg.RabbitMQ.User,
			Pass: cfg.RabbitMQ.Pass,
			Host: cfg.RabbitMQ.Host,
			Port: cfg.RabbitMQ.Port,
		},
		osChannel,
		bunnyq.LogHandler(queueLogger{}),
	)
}

type queueLogger struct {
}

func (l queueLogger) Log(_ context.Context, level bunnyq.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case bunnyq.LogLevelTrace:
		evt = log.Trace()
	case bunnyq.LogLevelDebug:
		evt = log.Debug()
	case bunnyq.LogLevelInfo:
		evt = log.Info()
	case bunnyq.LogLevelWarn:
		evt = log.Warn()
	case bunnyq.LogLevelError:
		evt = log.Error()
	case bunnyq.LogLevelNone:
		evt = log.Info()
	default:
		evt = log.Info()
	}

	for k, v := range data {
		evt.Interface(k, v)
	}

	evt.Msg(msg)
}

func printLogHeader(cfg *config.Config) {
	if cfg.Log.Structured {
		log.Info().Str("application", cfg.AppName).
			Str("revision", cfg.Revision).
			Str("version", cfg.AppVersion).
			Str("sha1ver", cfg.Sha1Version).
			Str("build-time", cfg.BuildTime).
			Str("profile", cfg.Profile).
			Str("config-source", cfg.Config.Source).
			Send()
	} else {
		f := figure.NewFigure(cfg.AppName, "", true)
		f.Print()

		log.Info().Msg("=============================================")
		log.Info().Msg(fmt.Sprintf("      Revision: %s", cfg.Revision))
		log.Info().Msg(fmt.Sprintf("       Profile: %s", cfg.Profile))
		log.Info().Msg(fmt.Sprintf(" Config Source: %s", cfg.Config.Source))
		log.Info().Msg(fmt.Sprintf("   Tag Version: %s", cfg.AppVersion))
		log.Info().Msg(fmt.Sprintf("  Sha1 Version: %s", cfg.Sha1Version))
		log.Info().Msg(fmt.Sprintf("    Build Time: %s", cfg.BuildTime))
		log.Info().Msg("=============================================")
	}
}

func configDatabase(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := db.ConnectDb(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to the database")
	}
	return pool
}

func configLogging(cfg *config.Config) {
	log.Info().Msg("configuring logging...")

	if !cfg.Log.Structured {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("loglevel", cfg.Log.Level).Err(err).Msg("defaulting to info")
		level = zerolog.InfoLevel
	}
	log.Info().Str("loglevel", level.String()).Msg("setting log level")
	zerolog.SetGlobalLevel(level)
}
