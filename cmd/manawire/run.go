package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/hako/durafmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/manawire-project/manawire/internal/api"
	"github.com/manawire-project/manawire/internal/cli"
	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/db"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/health"
	"github.com/manawire-project/manawire/internal/scheduler"
	"github.com/manawire-project/manawire/internal/session"
	"github.com/manawire-project/manawire/internal/telemetry"
	"github.com/manawire-project/manawire/internal/util"
)

type runOptions struct {
	connect bool
	console bool
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the configured server and serve the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.connect, "connect", true, "connect to the login server on start")
	cmd.Flags().BoolVar(&opts.console, "console", true, "start the interactive console")

	return cmd
}

func run(opts runOptions) error {
	printBanner()

	// Defaults until the config is loaded.
	if _, err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info().
		Str("version", version).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Msg("starting manawire")

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := util.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Directory = cfg.Logging.Directory
	logCfg.TraceReads = cfg.Logging.TraceReads
	if path, err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	} else {
		log.Info().Str("file", path).Msg("logging to file")
	}

	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		if !cfg.IsFirstRun() {
			return errors.New("configuration validation failed, please fix the errors above")
		}
		log.Info().Msg("first run detected, launching setup wizard")
		if err := config.RunSetupWizard(cfg, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("setup wizard failed: %w", err)
		}
	}

	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := events.NewEventBus()
	defer eventBus.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sess, err := session.New(cfg, eventBus, reg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	var journal *db.Journal
	if cfg.Journal.Enabled {
		journal, err = db.NewJournal(cfg.Journal.Path)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open packet journal, journal disabled")
		} else {
			defer journal.Close()
			journal.Subscribe(eventBus)
		}
	}

	healthMgr := health.NewManager(cfg, eventBus, sess)

	var pruner scheduler.Pruner
	if journal != nil {
		pruner = journal
	}
	sched := scheduler.NewScheduler(cfg, pruner, sess.Counters())

	var mqttHandler *telemetry.MQTTHandler
	if cfg.MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, eventBus, sess.ID())
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	eventBus.Subscribe(events.EventShutdown, "main.shutdown", func(context.Context, events.Event) error {
		cancel()
		return nil
	})

	var wg sync.WaitGroup
	start := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msgf("starting %s", name)
			fn()
		}()
	}

	if opts.connect {
		if err := sess.Connect(ctx); err != nil {
			log.Error().Err(err).Msg("initial connect failed, use the console or API to retry")
		}
	}

	start("session loop", func() { sess.Run(ctx) })
	start("health check manager", func() { healthMgr.Start(ctx) })
	start("task scheduler", func() { sched.Start(ctx) })

	if mqttHandler != nil {
		start("MQTT telemetry", func() {
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		})
	}

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg, eventBus, sess)
		var journalReader api.JournalReader
		if journal != nil {
			journalReader = journal
		}
		apiServer.SetDependencies(journalReader, healthMgr, reg)
		start("REST API server", func() {
			if err := apiServer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("API server failed")
			}
		})
	}

	if opts.console {
		var journalReader cli.Journal
		if journal != nil {
			journalReader = journal
		}
		console := cli.NewCLI(cfg, eventBus, sess, journalReader, os.Stdin, os.Stdout)
		// The console blocks on stdin, so it is not waited for.
		go console.Start(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()
	sess.Disconnect()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().
			Str("uptime", durafmt.Parse(time.Since(sess.StartedAt())).LimitFirstN(2).String()).
			Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}
	return nil
}
