// Package scheduler implements background task scheduling for teracodecd:
// periodically reloading the schema directory so .def/.map edits on disk
// take effect without a restart.
package scheduler

import (
	"context"
	"time"

	"github.com/teracodec-project/teracodec/internal/codec"
	"github.com/teracodec-project/teracodec/internal/config"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("scheduler")

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg      *config.Config
	codec    *codec.Codec
	eventBus *events.EventBus
}

// NewScheduler creates a new task scheduler.
func NewScheduler(cfg *config.Config, c *codec.Codec, eventBus *events.EventBus) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		codec:    c,
		eventBus: eventBus,
	}
}

// Start begins running all scheduled tasks and blocks until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	schemaData := s.cfg.GetSchemaData()
	if schemaData.ReloadIntervalSec > 0 {
		go s.runSchemaReloadLoop(ctx, time.Duration(schemaData.ReloadIntervalSec)*time.Second)
	}

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runSchemaReloadLoop periodically rebuilds the schema registry from the
// configured directory, emitting a SchemaReloaded event each time.
func (s *Scheduler) runSchemaReloadLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reloadSchemas(ctx)
		}
	}
}

func (s *Scheduler) reloadSchemas(ctx context.Context) {
	path := s.cfg.GetSchemaData().Path

	if err := s.codec.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("scheduled schema reload failed")
		return
	}

	reg := s.codec.Registry()
	schemas := reg.Schemas()
	warnings := reg.Warnings()

	// registry.Load already logged the warnings and a load summary; the
	// scheduler only needs to notify the rest of the system. This blocks
	// until every SchemaReloaded subscriber (the MQTT publisher, when
	// telemetry is enabled) has handled the notification.
	if err := s.eventBus.EmitSync(ctx, events.Event{
		Type:   events.EventSchemaReloaded,
		Source: "scheduler",
		Payload: events.SchemaReloadedPayload{
			Path:         path,
			SchemaCount:  len(schemas),
			WarningCount: len(warnings),
		},
	}); err != nil {
		log.Warn().Err(err).Msg("a schema-reload subscriber failed")
	}
}
