package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imperugo/sqs-dispatch/pkg/dispatch"
	"github.com/imperugo/sqs-dispatch/pkg/metrics"
	"github.com/imperugo/sqs-dispatch/pkg/resolve"
	"github.com/imperugo/sqs-dispatch/pkg/serialize"
	"github.com/imperugo/sqs-dispatch/pkg/transport"
	"github.com/imperugo/sqs-dispatch/pkg/utils"
)

const metricsShutdownTimeout = 5 * time.Second

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"input", cfg.Input,
		"queue", cfg.Queue,
		"maxBatchSize", cfg.MaxBatchSize,
		"maxConcurrentBatches", cfg.MaxConcurrentBatches,
		"delaySeconds", cfg.DelaySeconds,
		"transport", cfg.Transport,
		"queuePrefix", cfg.QueuePrefix,
		"queueSuffix", cfg.QueueSuffix,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		m             *metrics.Metrics
		metricsServer *metrics.Server
		metricsErrCh  <-chan error
	)
	if cfg.MetricsPort > 0 {
		registry := prometheus.NewRegistry()
		m, err = metrics.NewWithLabels(registry, metrics.Labels{
			Environment:   cfg.Environment,
			Region:        cfg.Region,
			CloudProvider: cfg.CloudProvider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		metricsServer = metrics.NewServer(cfg.MetricsAddr(), registry)
		metricsErrCh = metricsServer.Start()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	resolver, tr, closeTransport, err := buildTransport(ctx, cfg, sugar, m)
	if err != nil {
		return err
	}
	defer closeTransport()

	client, err := dispatch.NewClient(sugar, resolver, serialize.JSON{}, tr, m, dispatch.Config{
		MaxBatchSize:         cfg.MaxBatchSize,
		MaxConcurrentBatches: cfg.MaxConcurrentBatches,
		DefaultDelaySeconds:  int32(cfg.DelaySeconds),
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatch client: %w", err)
	}

	requests, err := readRequests(cfg)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		sugar.Info("no requests to dispatch")
		return nil
	}
	sugar.Infow("dispatching", "requests", len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.SendRawMany(gctx, requests)
	})
	if metricsErrCh != nil {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-metricsErrCh:
				if ok {
					return err
				}
				return nil
			}
		})
	}

	dispatchErr := g.Wait()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("failed to shut down metrics server", "error", err)
		}
	}

	if dispatchErr != nil {
		var aggErr *dispatch.Error
		if errors.As(dispatchErr, &aggErr) {
			for _, f := range aggErr.Failed {
				sugar.Errorw("batch failed",
					"queue", f.Queue,
					"queueURL", f.QueueURL,
					"batchIndex", f.BatchIndex,
					"entries", f.Entries,
					"error", f.Err,
				)
			}
		}
		return fmt.Errorf("dispatch failed: %w", dispatchErr)
	}

	sugar.Infow("dispatch complete", "requests", len(requests))
	return nil
}

// buildTransport wires the resolver and transport for the configured backend.
// The returned close function releases transport resources and is safe to
// call exactly once.
func buildTransport(ctx context.Context, cfg *Config, sugar *zap.SugaredLogger, m *metrics.Metrics) (resolve.Resolver, transport.Transport, func(), error) {
	switch cfg.Transport {
	case transportSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := sqs.NewFromConfig(awsCfg)

		tr, err := transport.NewSQS(client, sugar)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create sqs transport: %w", err)
		}
		sqsResolver, err := resolve.NewSQS(client, sugar, resolve.SQSConfig{
			Prefix: cfg.QueuePrefix,
			Suffix: cfg.QueueSuffix,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create sqs resolver: %w", err)
		}
		cached, err := resolve.NewCached(sqsResolver, m)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create resolver cache: %w", err)
		}
		return cached, tr, func() {}, nil

	case transportKafka:
		tr, err := transport.NewKafka(&confluentKafka.ConfigMap{
			"bootstrap.servers": cfg.Kafka.BootstrapServers,
			"client.id":         cfg.Kafka.ClientID,
		}, sugar)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create kafka transport: %w", err)
		}
		return resolve.Identity{}, tr, tr.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func readRequests(cfg *Config) ([]dispatch.OutboundRequest, error) {
	var in io.Reader = os.Stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	return parseRequests(in, cfg.Queue, int32(cfg.DelaySeconds))
}
