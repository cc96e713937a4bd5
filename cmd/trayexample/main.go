// Command trayexample runs the example tray: random vectors are generated,
// averaged by a module and by a function, and written to a file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/siqueiraa/FrameFlow/pkg/config"
	"github.com/siqueiraa/FrameFlow/pkg/kafka"
	"github.com/siqueiraa/FrameFlow/pkg/module"
	"github.com/siqueiraa/FrameFlow/pkg/objstore"
	"github.com/siqueiraa/FrameFlow/pkg/param"
	"github.com/siqueiraa/FrameFlow/pkg/pipeline"
	"github.com/siqueiraa/FrameFlow/pkg/state"
	"github.com/siqueiraa/FrameFlow/pkg/tray"
	"github.com/siqueiraa/FrameFlow/pkg/writer"
)

const (
	exitFailure = 1
	exitUsage   = 2

	usageText = "trayexample [-n NEVENTS] [-o OUTFILE] [-c CONFIG] [--pipeline FILE]"
)

type options struct {
	nevents      int
	outfile      string
	configPath   string
	pipelinePath string
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Printf("[TrayExample] %v", err)
		os.Exit(exitFailure)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "trayexample",
		Usage:     "Generate random vectors, average them and write the frames to a file",
		UsageText: usageText,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "nevents",
				Aliases: []string{"n"},
				Value:   1,
				Usage:   "Number of events to generate",
			},
			&cli.StringFlag{
				Name:    "outfile",
				Aliases: []string{"o"},
				Value:   "output.i3.bz2",
				Usage:   "Output file; .bz2, .gz and .zst are compressed",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML application config (kafka, store, s3, writer)",
			},
			&cli.StringFlag{
				Name:  "pipeline",
				Usage: "YAML pipeline definition replacing the built-in tray",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				fmt.Fprintf(c.App.ErrWriter, "Usage: %s\n", usageText)
				return cli.Exit("Got undefined options: "+strings.Join(c.Args().Slice(), " "), exitUsage)
			}
			opts := options{
				nevents:      c.Int("nevents"),
				outfile:      c.String("outfile"),
				configPath:   c.String("config"),
				pipelinePath: c.String("pipeline"),
			}
			if opts.nevents < 0 {
				return cli.Exit(fmt.Sprintf("nevents must be >= 0, got %d", opts.nevents), exitUsage)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			if err := run(ctx, opts); err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			fmt.Fprintln(c.App.Writer, "Done")
			return nil
		},
	}
}

// services are the optional sinks enabled in the config.
type services struct {
	s3       *objstore.Client
	store    *state.Store
	producer *kafka.Producer
}

func (s *services) close() error {
	var errs []error
	if s.producer != nil {
		errs = append(errs, s.producer.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, opts options) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		_ = svc.close()
		return err
	}
	defer func() {
		if err := svc.close(); err != nil {
			log.Printf("[TrayExample] Error closing services: %v", err)
		}
	}()

	t, err := buildTray(opts, cfg, svc)
	if err != nil {
		return err
	}

	summary, err := t.Execute(ctx)
	log.Printf("[TrayExample] %s", strings.TrimSpace(summary.String()))
	if err != nil {
		return err
	}

	if svc.store != nil {
		logStoreStats(svc.store)
		if cfg.Store.Checkpoint {
			if _, err := svc.store.Checkpoint(ctx, svc.s3, checkpointName(cfg)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkpointName(cfg config.AppConfig) string {
	return filepath.Base(cfg.Store.Path) + ".gz"
}

func openServices(ctx context.Context, cfg config.AppConfig) (*services, error) {
	svc := &services{}
	var err error

	if cfg.S3.Enabled {
		if svc.s3, err = objstore.New(ctx, cfg.S3); err != nil {
			return svc, fmt.Errorf("[S3] %w", err)
		}
	}

	if cfg.Store.Enabled {
		if svc.store, err = state.OpenStore(cfg.Store.Path, state.WithRetention(cfg.Store.Retention)); err != nil {
			return svc, err
		}
		if cfg.Store.Checkpoint {
			if _, err := svc.store.Restore(ctx, svc.s3, checkpointName(cfg)); err != nil {
				return svc, err
			}
		}
	}

	if cfg.Kafka.Enabled {
		if svc.producer, err = kafka.NewProducer(ctx, cfg.Kafka); err != nil {
			return svc, fmt.Errorf("[Kafka] failed to create producer: %w", err)
		}
	}
	return svc, nil
}

func logStoreStats(store *state.Store) {
	stats, err := store.StatsByRun()
	if err != nil {
		log.Printf("[Store] Error getting statistics: %v", err)
		return
	}
	for run, count := range stats {
		log.Printf("[Store] Run: %s | Frames: %d", run, count)
	}
}

func registry(cfg config.AppConfig, svc *services) *pipeline.Registry {
	var bopts pipeline.BuiltinOptions
	if cfg.Generator.Seed != nil {
		bopts.Generator = append(bopts.Generator, module.WithSeed(*cfg.Generator.Seed))
	}
	bopts.Writer = append(bopts.Writer,
		writer.WithCodec(cfg.Writer.Codec),
		writer.WithCompressionLevel(cfg.Writer.CompressionLevel),
	)
	if svc.s3 != nil {
		bopts.Writer = append(bopts.Writer, writer.WithUploader(svc.s3))
	}

	reg := pipeline.Builtins(bopts)
	if svc.store != nil {
		reg.Register("FrameStore", func() module.Configurable { return state.NewStoreWriter(svc.store) })
	}
	if svc.producer != nil {
		reg.Register("KafkaWriter", func() module.Configurable { return kafka.NewFrameWriter(svc.producer) })
	}
	return reg
}

func buildTray(opts options, cfg config.AppConfig, svc *services) (*tray.Tray, error) {
	reg := registry(cfg, svc)
	if opts.pipelinePath != "" {
		def, err := pipeline.LoadFromFile(opts.pipelinePath)
		if err != nil {
			return nil, err
		}
		return pipeline.Build(def, reg, tray.WithLogger(log.Default()))
	}
	return pipeline.Build(exampleTray(opts, cfg, svc), reg, tray.WithLogger(log.Default()))
}

// exampleTray is the tutorial tray, followed by the store and Kafka sinks
// when they are enabled.
func exampleTray(opts options, cfg config.AppConfig, svc *services) pipeline.Pipeline {
	def := pipeline.Pipeline{
		Name: "example",
		Modules: []pipeline.ModuleSpec{
			{Type: "InfiniteSource", Name: "streams", Params: param.Overrides{"Stream": "DAQ"}},
			{Type: "ExampleGenerator", Name: "generator", Params: param.Overrides{
				"Size":    1000,
				"Mean":    0.0,
				"Sigma":   10.0,
				"Outname": "RandomVector",
				"NEvents": opts.nevents,
			}},
			{Type: "AveragingModule", Name: "averaging", Params: param.Overrides{
				"Input":  "RandomVector",
				"Output": "AverageFromModule",
			}},
			{Type: "AveragingFunction", Name: "average_func", Params: param.Overrides{
				"Input":   "RandomVector",
				"Output":  "AverageFromFunction",
				"Streams": []string{"DAQ"},
			}},
			{Type: "Writer", Name: "writer", Params: param.Overrides{
				"Filename": opts.outfile,
				"Streams":  []string{"DAQ"},
			}},
		},
	}
	if svc.store != nil {
		def.Modules = append(def.Modules, pipeline.ModuleSpec{Type: "FrameStore", Name: "store"})
	}
	if svc.producer != nil {
		def.Modules = append(def.Modules, pipeline.ModuleSpec{Type: "KafkaWriter", Name: "kafka", Params: param.Overrides{
			"Topic": cfg.Kafka.Topic,
		}})
	}
	return def
}
