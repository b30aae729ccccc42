package api

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teracodec-project/teracodec/internal/codec"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/store"
)

// handleReload rebuilds the schema registry from the configured schema
// directory on demand, mirroring the scheduler's periodic reload.
func (s *Server) handleReload(c *gin.Context) {
	path := s.cfg.GetSchemaData().Path

	if err := s.codec.Load(path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reg := s.codec.Registry()
	schemas := reg.Schemas()
	warnings := reg.Warnings()

	// The reload above already swapped the Registry's shared state. The
	// HTTP response waits until every SchemaReloaded subscriber (the MQTT
	// publisher, when telemetry is enabled) has handled the notification.
	if err := s.eventBus.EmitSync(c.Request.Context(), events.Event{
		Type:   events.EventSchemaReloaded,
		Source: "api",
		Payload: events.SchemaReloadedPayload{
			Path:         path,
			SchemaCount:  len(schemas),
			WarningCount: len(warnings),
		},
	}); err != nil {
		log.Warn().Err(err).Msg("a schema-reload subscriber failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"schema_count":  len(schemas),
		"warning_count": len(warnings),
		"warnings":      warningStrings(warnings),
	})
}

type encodeRequest struct {
	Name        string         `json:"name" binding:"required"`
	Version     any            `json:"version"`
	Fields      map[string]any `json:"fields" binding:"required"`
	DisplayName string         `json:"display_name"`
}

type encodeResponse struct {
	Hex      string   `json:"hex"`
	Length   int      `json:"length"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleEncode encodes a JSON field map into a framed hex buffer.
func (s *Server) handleEncode(c *gin.Context) {
	var req encodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buf, warnings, err := s.codec.Write(req.Name, req.Version, codec.Record(req.Fields), req.DisplayName)
	if err != nil {
		s.eventBus.Emit(c.Request.Context(), events.Event{
			Type:    events.EventEncodeError,
			Source:  "api",
			Payload: events.EncodeErrorPayload{SchemaName: req.Name, Message: err.Error()},
		})
		s.recordFrame(store.Frame{
			Direction:    "encode",
			SchemaName:   req.Name,
			WarningCount: len(warnings),
			ErrorMessage: err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "warnings": warningsToStrings(warnings)})
		return
	}

	s.recordFrame(store.Frame{
		Direction:    "encode",
		SchemaName:   req.Name,
		ByteLength:   len(buf),
		WarningCount: len(warnings),
	})

	c.JSON(http.StatusOK, encodeResponse{
		Hex:      hex.EncodeToString(buf),
		Length:   len(buf),
		Warnings: warningsToStrings(warnings),
	})
}

type decodeRequest struct {
	Name        string `json:"name" binding:"required"`
	Version     any    `json:"version"`
	Hex         string `json:"hex" binding:"required"`
	DisplayName string `json:"display_name"`
}

type decodeResponse struct {
	Fields   codec.Record `json:"fields"`
	Warnings []string     `json:"warnings,omitempty"`
}

// handleDecode decodes a hex-encoded framed buffer into a JSON field map.
func (s *Server) handleDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buf, err := hex.DecodeString(req.Hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hex: " + err.Error()})
		return
	}

	rec, warnings, err := s.codec.Parse(req.Name, req.Version, buf, req.DisplayName)
	if err != nil {
		s.eventBus.Emit(c.Request.Context(), events.Event{
			Type:    events.EventDecodeError,
			Source:  "api",
			Payload: events.DecodeErrorPayload{SchemaName: req.Name, Message: err.Error()},
		})
		s.recordFrame(store.Frame{
			Direction:    "decode",
			SchemaName:   req.Name,
			ByteLength:   len(buf),
			WarningCount: len(warnings),
			ErrorMessage: err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "warnings": warningsToStrings(warnings)})
		return
	}

	for _, w := range warnings {
		s.eventBus.Emit(c.Request.Context(), events.Event{
			Type:    events.EventDecodeWarning,
			Source:  "api",
			Payload: events.DecodeWarningPayload{SchemaName: req.Name, Path: w.Path, Message: w.Message},
		})
	}

	s.recordFrame(store.Frame{
		Direction:    "decode",
		SchemaName:   req.Name,
		ByteLength:   len(buf),
		WarningCount: len(warnings),
	})

	c.JSON(http.StatusOK, decodeResponse{
		Fields:   rec,
		Warnings: warningsToStrings(warnings),
	})
}

func warningsToStrings(warnings []codec.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.String())
	}
	return out
}

// recordFrame writes an audit-log entry when the store is enabled. Failures
// are logged, never surfaced to the caller: the audit log is best-effort.
func (s *Server) recordFrame(f store.Frame) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordFrame(f); err != nil {
		log.Warn().Err(err).Msg("failed to record audit frame")
	}
}
