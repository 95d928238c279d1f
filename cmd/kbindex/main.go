package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dgallion1/kbindex/internal/api"
	"github.com/dgallion1/kbindex/internal/config"
	"github.com/dgallion1/kbindex/internal/indexer"
	"github.com/dgallion1/kbindex/internal/keywords"
	"github.com/dgallion1/kbindex/internal/wordfilter"
)

var log *slog.Logger

func main() {
	app := &cli.App{
		Name:  "kbindex",
		Usage: "index a knowledge base into a navigable mind map",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path (default: discovered)",
			},
		},
		Before: func(c *cli.Context) error {
			log = setupLogger(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "run the index pipeline and write the mind map",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output mind map file (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "log each search narrowing step",
					},
				},
				Action: runIndex,
			},
			{
				Name:  "serve",
				Usage: "serve the search API over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "listen port (overrides config)",
					},
				},
				Action: runServe,
			},
			{
				Name:      "words",
				Usage:     "list significant words in the given files",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "min-frequency",
						Value: 2,
						Usage: "drop words seen fewer times than this",
					},
				},
				Action: runWords,
			},
			{
				Name:   "sample-config",
				Usage:  "write a sample kbindex.yml to the current directory",
				Action: runSampleConfig,
			},
			{
				Name:   "sample-keywords",
				Usage:  "write a sample keywords.txt to the current directory",
				Action: runSampleKeywords,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if log == nil {
			log = setupLogger("info")
		}
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func runIndex(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	ix, err := indexer.New(cfg, log)
	if err != nil {
		return err
	}
	ix.Output = c.String("output")
	ix.Debug = c.Bool("debug")

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return ix.Run(ctx)
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if p := c.String("port"); p != "" {
		cfg.Server.Port = p
	}

	ix, err := indexer.New(cfg, log)
	if err != nil {
		return err
	}
	files, err := ix.Discover()
	if err != nil {
		return err
	}
	log.Info("serving indexed files", "count", len(files))

	srv := api.NewServer(ix, files, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting kbindex server", "port", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runWords(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	var texts []string
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		texts = append(texts, string(data))
	}

	filter := wordfilter.New()
	counts := filter.Frequencies(texts, c.Int("min-frequency"))
	for _, wc := range wordfilter.TopWords(counts) {
		fmt.Printf("%6d  %s\n", wc.Count, wc.Word)
	}
	return nil
}

func runSampleConfig(c *cli.Context) error {
	path := "kbindex.yml"
	if err := config.WriteSample(path); err != nil {
		return err
	}
	log.Info("wrote sample config", "file", path)
	return nil
}

func runSampleKeywords(c *cli.Context) error {
	path := "keywords.txt"
	if err := keywords.WriteSample(path); err != nil {
		return err
	}
	log.Info("wrote sample keywords", "file", path)
	return nil
}
