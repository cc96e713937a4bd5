package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Named type to allow reuse and clearer code
type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	SchemaRegistry string   `yaml:"schemaRegistry"`
	UseAvro        bool     `yaml:"useAvro"`
	Topic          string   `yaml:"topic"`
}

// S3Config points at the bucket output files and store checkpoints go to.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
}

type WriterConfig struct {
	Codec            string `yaml:"codec"`            // null | deflate | snappy | zstandard
	CompressionLevel int    `yaml:"compressionLevel"` // applied to .bz2/.gz/.zst outer streams
}

type StoreConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Path       string        `yaml:"path"`
	Checkpoint bool          `yaml:"checkpoint"` // upload a backup of the store to S3 after the run
	Retention  time.Duration `yaml:"retention"`  // 0 keeps frames forever
}

type AppConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`

	Generator struct {
		Seed *uint64 `yaml:"seed"` // unset means a fresh random seed per run
	} `yaml:"generator"`

	Writer WriterConfig `yaml:"writer"`
	Store  StoreConfig  `yaml:"store"`
	S3     S3Config     `yaml:"s3"`
}

// Default returns the configuration used when no file is given.
func Default() AppConfig {
	return AppConfig{
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "frames",
		},
		Writer: WriterConfig{
			Codec:            "deflate",
			CompressionLevel: 6,
		},
		Store: StoreConfig{
			Path: "frames.badger",
		},
	}
}

// Load reads and parses a YAML config file on top of Default.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the sections that are switched on.
func (c *AppConfig) Validate() error {
	switch c.Writer.Codec {
	case "null", "deflate", "snappy", "zstandard":
	default:
		return fmt.Errorf("unknown writer codec %q", c.Writer.Codec)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required")
		}
		if c.Kafka.UseAvro && c.Kafka.SchemaRegistry == "" {
			return fmt.Errorf("schema registry is required when using Avro")
		}
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Store.Retention < 0 {
		return fmt.Errorf("store retention must not be negative")
	}
	if c.Store.Checkpoint && !c.S3.Enabled {
		return fmt.Errorf("store checkpoint requires s3 to be enabled")
	}

	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}

	return nil
}
