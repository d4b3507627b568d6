package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sqs-dispatch",
		Usage: "Dispatch batched messages to SQS queues or Kafka topics",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Read newline-delimited JSON requests and dispatch them",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable verbose logging",
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input file with one JSON request per line; '-' reads stdin",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:    "queue",
						Aliases: []string{"q"},
						Usage:   "Default queue for requests that do not name one",
						EnvVars: []string{"DISPATCH_QUEUE"},
					},
					&cli.IntFlag{
						Name:    "max-batch-size",
						Aliases: []string{"s"},
						Usage:   "Maximum entries per transport batch call",
						EnvVars: []string{"DISPATCH_MAX_BATCH_SIZE"},
						Value:   10,
					},
					&cli.Int64Flag{
						Name:    "max-concurrent-batches",
						Aliases: []string{"c"},
						Usage:   "Maximum in-flight batch calls (0 means unbounded)",
						EnvVars: []string{"DISPATCH_MAX_CONCURRENT_BATCHES"},
						Value:   0,
					},
					&cli.IntFlag{
						Name:    "delay-seconds",
						Aliases: []string{"d"},
						Usage:   "Default delivery delay applied to every message",
						EnvVars: []string{"DISPATCH_DELAY_SECONDS"},
						Value:   0,
					},
					&cli.StringFlag{
						Name:    "transport",
						Aliases: []string{"t"},
						Usage:   "Transport backend: sqs or kafka",
						EnvVars: []string{"DISPATCH_TRANSPORT"},
						Value:   "sqs",
					},
					&cli.StringFlag{
						Name:    "queue-prefix",
						Usage:   "Prefix applied to logical queue names before resolution",
						EnvVars: []string{"DISPATCH_QUEUE_PREFIX"},
					},
					&cli.StringFlag{
						Name:    "queue-suffix",
						Usage:   "Suffix applied to logical queue names before resolution",
						EnvVars: []string{"DISPATCH_QUEUE_SUFFIX"},
					},
					&cli.StringFlag{
						Name:    "metrics-host",
						Usage:   "Metrics server host (empty binds all interfaces)",
						EnvVars: []string{"METRICS_HOST"},
					},
					&cli.IntFlag{
						Name:    "metrics-port",
						Usage:   "Metrics server port (0 disables the metrics server)",
						EnvVars: []string{"METRICS_PORT"},
						Value:   0,
					},
					&cli.StringFlag{
						Name:    "environment",
						Usage:   "Deployment environment label for metrics",
						EnvVars: []string{"ENVIRONMENT"},
					},
					&cli.StringFlag{
						Name:    "region",
						Usage:   "Cloud region label for metrics",
						EnvVars: []string{"REGION"},
					},
					&cli.StringFlag{
						Name:    "cloud-provider",
						Usage:   "Cloud provider label for metrics",
						EnvVars: []string{"CLOUD_PROVIDER"},
					},
				},
				Action: run,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
