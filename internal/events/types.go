// Package events defines event types and enumerations for the teracodecd
// event system.
package events

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// EventSchemaReloaded fires after a schema directory reload completes,
	// whether or not it changed anything.
	EventSchemaReloaded EventType = "schema_reloaded"

	// EventDecodeWarning is emitted by the debug API's decode handler, once
	// per non-fatal warning (offset drift, unmapped opcode, etc) of a
	// successful Parse. The CLI's decode command does not emit it.
	EventDecodeWarning EventType = "decode_warning"

	// EventDecodeError fires when Decode/Parse returns a fatal error
	// (self-pointer mismatch, unresolved schema, truncated buffer).
	EventDecodeError EventType = "decode_error"

	// EventEncodeError fires when Encode/Write returns a fatal error.
	EventEncodeError EventType = "encode_error"

	// EventConfigChanged is emitted when configuration is reloaded.
	EventConfigChanged EventType = "config_changed"

	// EventShutdown requests graceful shutdown: the CLI's quit command
	// emits it, and main emits it again once shutdown is under way.
	EventShutdown EventType = "shutdown"
)

// Event represents a single event in the system.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// SchemaReloadedPayload describes the outcome of a schema directory load.
type SchemaReloadedPayload struct {
	Path         string
	SchemaCount  int
	OpcodeCount  int
	WarningCount int
}

// DecodeWarningPayload carries one non-fatal warning produced while
// resolving or decoding a frame.
type DecodeWarningPayload struct {
	SchemaName string
	Path       string
	Message    string
}

// DecodeErrorPayload carries a fatal decode failure.
type DecodeErrorPayload struct {
	SchemaName string
	Message    string
}

// EncodeErrorPayload carries a fatal encode failure.
type EncodeErrorPayload struct {
	SchemaName string
	Message    string
}

// ConfigChangedPayload is emitted when configuration changes occur.
type ConfigChangedPayload struct {
	Section string
	Key     string
	Value   interface{}
}
