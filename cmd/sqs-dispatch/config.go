package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/urfave/cli/v2"
)

const (
	transportSQS   = "sqs"
	transportKafka = "kafka"

	// maxDelaySeconds is the SQS DelaySeconds ceiling of 15 minutes.
	maxDelaySeconds = 900
)

// KafkaConfig holds the Kafka producer settings, loaded from the environment.
type KafkaConfig struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS" envDefault:"localhost:9092"` // Kafka broker addresses
	ClientID         string `env:"KAFKA_CLIENT_ID"         envDefault:"sqs-dispatch"`   // Producer client ID
}

// Config holds all configuration for the sqs-dispatch command.
type Config struct {
	Verbose bool

	// Dispatch settings
	Input                string
	Queue                string
	MaxBatchSize         int
	MaxConcurrentBatches int64
	DelaySeconds         int
	Transport            string
	QueuePrefix          string
	QueueSuffix          string

	// Kafka settings (used when Transport is "kafka")
	Kafka KafkaConfig

	// Metrics settings
	MetricsHost   string
	MetricsPort   int
	Environment   string
	Region        string
	CloudProvider string
}

// MetricsAddr returns the formatted metrics address.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// buildConfig builds a Config from CLI context flags and the environment.
func buildConfig(c *cli.Context) (*Config, error) {
	var kafkaCfg KafkaConfig
	if err := env.Parse(&kafkaCfg); err != nil {
		return nil, fmt.Errorf("failed to parse kafka config: %w", err)
	}

	cfg := &Config{
		Verbose:              c.Bool("verbose"),
		Input:                c.String("input"),
		Queue:                c.String("queue"),
		MaxBatchSize:         c.Int("max-batch-size"),
		MaxConcurrentBatches: c.Int64("max-concurrent-batches"),
		DelaySeconds:         c.Int("delay-seconds"),
		Transport:            c.String("transport"),
		QueuePrefix:          c.String("queue-prefix"),
		QueueSuffix:          c.String("queue-suffix"),
		Kafka:                kafkaCfg,
		MetricsHost:          c.String("metrics-host"),
		MetricsPort:          c.Int("metrics-port"),
		Environment:          c.String("environment"),
		Region:               c.String("region"),
		CloudProvider:        c.String("cloud-provider"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transport != transportSQS && c.Transport != transportKafka {
		return fmt.Errorf("unknown transport %q: must be %q or %q", c.Transport, transportSQS, transportKafka)
	}
	if c.DelaySeconds < 0 {
		return fmt.Errorf("delay-seconds must not be negative, got %d", c.DelaySeconds)
	}
	if c.DelaySeconds > maxDelaySeconds {
		return fmt.Errorf("delay-seconds must not exceed %d, got %d", maxDelaySeconds, c.DelaySeconds)
	}
	return nil
}
