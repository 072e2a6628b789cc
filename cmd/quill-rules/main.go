package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/internal/contents/loader"
	"github.com/quillcms/quill/internal/contents/mongo"
	"github.com/quillcms/quill/internal/logging"
	"github.com/quillcms/quill/internal/pubsub"
	"github.com/quillcms/quill/internal/pubsub/nats"
	"github.com/quillcms/quill/internal/rules"
	"github.com/quillcms/quill/internal/rules/cel"
	"github.com/quillcms/quill/internal/rules/dispatch"
)

func main() {
	configDir := flag.String("config", "config", "configuration directory")
	backfillRule := flag.String("backfill", "", "replay current contents through the named rule, then exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		slog.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}
	defer logging.Shutdown()

	if err := run(cfg, *backfillRule); err != nil {
		slog.Error("Service failed", "error", err)
		logging.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, backfillRule string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot store.
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := mongo.NewStore(connectCtx, cfg.Storage.URI, cfg.Storage.Database, cfg.Storage.Collection)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	slog.Info("Connected to snapshot store", "database", cfg.Storage.Database)

	// Optional snapshot cache.
	var cache loader.Cache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		defer client.Close()
		cache = loader.NewRedisCache(client, cfg.Cache.TTL)
		slog.Info("Snapshot cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return err
	}

	handler := rules.NewHandler(evaluator, loader.New(store, cache), store)

	// Event transport.
	nc, err := nats.Connect(cfg.Events.URL, "quill-rules")
	if err != nil {
		return err
	}
	defer nc.Close()

	// The dispatcher publishes rule-relative subjects; the prefix keeps
	// them inside the enriched stream's subject binding.
	publisher, err := nats.NewPublisher(nc, pubsub.PublisherOptions{
		StreamName:    cfg.Dispatch.EnrichedStream,
		SubjectPrefix: cfg.Dispatch.EnrichedStream,
		Storage:       pubsub.FileStorage,
	})
	if err != nil {
		return err
	}
	defer publisher.Close()

	consumer, err := nats.NewConsumer(nc, pubsub.ConsumerOptions{
		StreamName:   cfg.Events.Stream,
		ConsumerName: cfg.Events.ConsumerName,
		Storage:      pubsub.FileStorage,
	})
	if err != nil {
		return err
	}

	svc := dispatch.NewService(handler, consumer, publisher, cfg.Dispatch.NumWorkers)

	ruleSet, err := rules.LoadRulesFromFile(cfg.Rules.File)
	if err != nil {
		return err
	}
	if err := svc.LoadRules(ruleSet, evaluator); err != nil {
		return err
	}

	if backfillRule != "" {
		return runBackfill(ctx, svc, ruleSet, backfillRule)
	}

	slog.Info("Starting rule dispatch service", "rules", len(ruleSet))
	return svc.Start(ctx)
}

func runBackfill(ctx context.Context, svc *dispatch.Service, ruleSet []*rules.Rule, ruleID string) error {
	for _, r := range ruleSet {
		if r.ID != ruleID {
			continue
		}
		slog.Info("Starting backfill", "rule_id", ruleID, "app_id", r.AppID)
		count, err := svc.Backfill(ctx, r)
		if err != nil {
			return err
		}
		slog.Info("Backfill finished", "rule_id", ruleID, "published", count)
		return nil
	}

	return fmt.Errorf("rule not found: %s", ruleID)
}
