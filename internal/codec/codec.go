package codec

import (
	"fmt"

	"github.com/teracodec-project/teracodec/internal/registry"
	"github.com/teracodec-project/teracodec/internal/schema"
)

// Codec is the programmatic surface described in SPEC_FULL.md §6: Load
// wraps registry.Registry.Load, Write/Parse wrap Encode/Decode after
// resolving the caller's identifier. Unlike the reference's ergonomic
// argument reordering, version is always an explicit parameter (nil or
// "*" meaning "latest") — see DESIGN.md's Open Question resolution.
type Codec struct {
	reg *registry.Registry
}

// New wraps an existing registry. Callers typically share one Registry
// across a Codec, the CLI and the API server.
func New(reg *registry.Registry) *Codec {
	return &Codec{reg: reg}
}

// Load rebuilds the underlying registry from basePath.
func (c *Codec) Load(basePath string) error {
	return c.reg.Load(basePath)
}

// Registry exposes the underlying registry for introspection (schema
// listing, warnings) by the CLI and debug API.
func (c *Codec) Registry() *registry.Registry {
	return c.reg
}

// Write resolves identifier/version and encodes data into a framed
// buffer. displayName is used only when identifier is a schema supplied
// directly (see registry.Registry.Resolve).
func (c *Codec) Write(identifier any, version any, data Record, displayName string) ([]byte, []Warning, error) {
	resolved, resWarnings, err := c.reg.Resolve(identifier, version, displayName)
	if err != nil {
		return nil, nil, err
	}
	if resolved.Code == nil {
		if _, isString := identifier.(string); isString {
			return nil, warningsFromSchema(resWarnings), fmt.Errorf("codec: no opcode known for %q, cannot write frame header", resolved.Name)
		}
	}
	buf, warnings, err := Encode(resolved.Schema, data, resolved.Code)
	return buf, append(warningsFromSchema(resWarnings), warnings...), err
}

// Parse resolves identifier/version and decodes buf (header included).
func (c *Codec) Parse(identifier any, version any, buf []byte, displayName string) (Record, []Warning, error) {
	resolved, resWarnings, err := c.reg.Resolve(identifier, version, displayName)
	if err != nil {
		return nil, nil, err
	}
	rec, warnings, err := Decode(resolved.Schema, buf)
	return rec, append(warningsFromSchema(resWarnings), warnings...), err
}

func warningsFromSchema(in []schema.Warning) []Warning {
	out := make([]Warning, 0, len(in))
	for _, w := range in {
		out = append(out, Warning{Message: w.String()})
	}
	return out
}
