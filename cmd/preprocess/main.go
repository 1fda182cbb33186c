// Command preprocess builds the interaction table from the raw order
// exports, downloading them first if they are not on disk.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/actuallystonmai/order-recommender/internal/config"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/preprocess"
	"github.com/actuallystonmai/order-recommender/internal/repository"
	"github.com/actuallystonmai/order-recommender/seeds"
)

func main() {
	synthetic := flag.Bool("synthetic", false, "write synthetic raw exports instead of downloading them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := cfg.Preprocess
	if *synthetic {
		summary, err := seeds.WriteRawExports(p.OrderItemsPath, p.OrdersPath, seeds.DefaultConfig())
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to write synthetic exports")
		}
		logging.Info().Int("orders", summary.Orders).Int("order_lines", summary.OrderLines).Msg("synthetic exports written")
	}

	job := preprocess.Job{
		OrderItemsPath: p.OrderItemsPath,
		OrdersPath:     p.OrdersPath,
		OrderItemsURL:  p.OrderItemsURL,
		OrdersURL:      p.OrdersURL,
		TablePath:      cfg.Data.TablePath,
		CSVPath:        cfg.Data.TableCSVPath,
		Options: preprocess.Options{
			DeliveredStatus: p.DeliveredStatus,
			MaxOrderCount:   p.MaxOrderCount,
			ExcludeProducts: p.ExcludeProducts,
		},
		HTTPClient: &http.Client{Timeout: p.DownloadTimeout},
	}

	if p.Publish {
		if cfg.Database.URL == "" {
			logging.Fatal().Msg("preprocess.publish requires DATABASE_URL")
		}
		pool, err := repository.Connect(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			logging.Fatal().Err(err).Msg("database not ready")
		}
		defer pool.Close()
		repo := repository.New(pool)
		if err := repo.Migrate(ctx); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate up")
		}
		job.Publisher = repo
	}

	if _, err := preprocess.Run(ctx, job); err != nil {
		logging.Fatal().Err(err).Msg("preprocessing failed")
	}
}
