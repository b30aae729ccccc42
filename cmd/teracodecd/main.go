// teracodecd is a debug/introspection server for a data-driven binary
// message codec: it loads .def/.map schema files from disk, exposes an
// HTTP API and interactive CLI for encoding/decoding frames against those
// schemas, records an audit log of every frame encoded or decoded through
// the HTTP API, and publishes codec
// lifecycle events over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/teracodec-project/teracodec/internal/api"
	"github.com/teracodec-project/teracodec/internal/cli"
	"github.com/teracodec-project/teracodec/internal/codec"
	"github.com/teracodec-project/teracodec/internal/config"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/health"
	"github.com/teracodec-project/teracodec/internal/registry"
	"github.com/teracodec-project/teracodec/internal/scheduler"
	"github.com/teracodec-project/teracodec/internal/store"
	"github.com/teracodec-project/teracodec/internal/telemetry"
	"github.com/teracodec-project/teracodec/internal/util"
)

const (
	AppName    = "teracodecd"
	AppVersion = "1.0.0"
	Banner     = `
  _                                    _
 | |_ ___ _ __ __ _  ___ ___   __| | ___  ___
 | __/ _ \ '__/ _' |/ __/ _ \ / _' |/ _ \/ __|
 | ||  __/ | | (_| | (_| (_) | (_| |  __/ (__
  \__\___|_|  \__,_|\___\___/ \__,_|\___|\___|  v%s
 binary message codec debug server
`
)

func main() {
	fmt.Printf(Banner, AppVersion)
	fmt.Println()

	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting teracodecd")

	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := util.LogConfig{
		Level:      cfg.Logging.Level,
		Directory:  cfg.Logging.Directory,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("configuration validation failed, please fix the errors above")
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
	eventBus.Subscribe(events.EventShutdown, "main", func(context.Context, events.Event) error {
		cancel()
		return nil
	})

	reg := registry.New()
	if err := reg.Load(cfg.GetSchemaData().Path); err != nil {
		log.Fatal().Err(err).Msg("failed to load schema directory")
	}
	c := codec.New(reg)

	var auditStore *store.Store
	if cfg.StoreData.Enabled {
		auditStore, err = store.Open(cfg.StoreData.Path)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open audit store, history disabled")
			auditStore = nil
		}
	}

	healthMgr := health.NewManager(eventBus)
	healthMgr.Register("schema_registry", 30*time.Second, func(ctx context.Context) error {
		if len(reg.Schemas()) == 0 {
			return fmt.Errorf("no schemas registered")
		}
		return nil
	})
	healthMgr.Register("schema_directory", 30*time.Second, func(ctx context.Context) error {
		info, err := os.Stat(cfg.GetSchemaData().Path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", cfg.GetSchemaData().Path)
		}
		return nil
	})

	var mqttHandler *telemetry.MQTTHandler
	if cfg.TelemetryData.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, eventBus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		} else {
			healthMgr.Register("telemetry", 30*time.Second, func(ctx context.Context) error {
				return mqttHandler.Ping()
			})
		}
	}

	sched := scheduler.NewScheduler(cfg, c, eventBus)
	apiServer := api.NewServer(cfg, eventBus, c, healthMgr, auditStore)
	cliHandler := cli.NewCLI(cfg, eventBus, c)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	if cfg.APIData.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Int("port", cfg.APIData.Port).Msg("starting debug API server")
			if err := apiServer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("debug API server failed")
				errCh <- fmt.Errorf("debug API: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting health check manager")
		healthMgr.Start(ctx)
	}()

	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting schema reload scheduler")
		sched.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting interactive CLI")
		cliHandler.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	case <-ctx.Done():
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()

	eventBus.Emit(context.Background(), events.Event{
		Type:   events.EventShutdown,
		Source: "main",
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}

	if auditStore != nil {
		if err := auditStore.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audit store")
		}
	}

	eventBus.Stop()

	log.Info().Msg("teracodecd stopped")
}
