// Package registry holds the process-wide name<->code opcode map and the
// (name, version) -> schema table, and resolves caller-supplied
// identifiers (name, code, or a schema handed in directly) against it.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teracodec-project/teracodec/internal/schema"
	"github.com/teracodec-project/teracodec/internal/util"
)

// log is tagged "schema": every Load, whether triggered at startup, by the
// scheduler's periodic reload, or on demand from the CLI/API, funnels
// through here, so this is the one place schema-loader warnings need to be
// logged instead of relying on each call site to remember to do it.
var log = util.ComponentLogger("schema")

// Registry is built once via Load and treated as read-only thereafter.
// Load parses the directory without holding the lock and then swaps in
// all rebuilt tables under one write lock, so a concurrent Resolve sees
// either the old or the new tables, never a mix.
type Registry struct {
	mu         sync.RWMutex
	nameToCode map[string]int32
	codeToName map[int32]string
	schemas    map[string]map[int]*schema.Schema
	warnings   []schema.Warning
}

// New returns an empty registry; call Load before resolving anything.
func New() *Registry {
	return &Registry{
		nameToCode: map[string]int32{},
		codeToName: map[int32]string{},
		schemas:    map[string]map[int]*schema.Schema{},
	}
}

// Load clears and fully rebuilds the registry from basePath. Idempotent:
// calling it twice with unchanged inputs yields byte-identical schemas and
// maps.
func (r *Registry) Load(basePath string) error {
	result, err := schema.LoadDir(basePath)
	if err != nil {
		return err
	}

	nameToCode := make(map[string]int32, len(result.Opcodes))
	codeToName := make(map[int32]string, len(result.Opcodes))
	for name, code := range result.Opcodes {
		nameToCode[name] = code
		codeToName[code] = name
	}

	schemas := make(map[string]map[int]*schema.Schema, len(result.Schemas))
	for name, versions := range result.Schemas {
		byVersion := make(map[int]*schema.Schema, len(versions))
		for _, sc := range versions {
			byVersion[sc.Version] = sc
		}
		schemas[name] = byVersion
	}

	r.mu.Lock()
	r.nameToCode = nameToCode
	r.codeToName = codeToName
	r.schemas = schemas
	r.warnings = result.Warnings
	r.mu.Unlock()

	for _, w := range result.Warnings {
		log.Warn().Str("file", w.File).Int("line", w.Line).Msg(w.Message)
	}
	log.Info().
		Str("path", basePath).
		Int("opcodes", len(nameToCode)).
		Int("schemas", len(schemas)).
		Int("warnings", len(result.Warnings)).
		Msg("schema directory loaded")

	return nil
}

// Warnings returns the warnings produced by the most recent Load.
func (r *Registry) Warnings() []schema.Warning {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Resolved is the outcome of resolving a caller-supplied identifier.
type Resolved struct {
	Name    string
	Code    *int32
	Version int
	Schema  *schema.Schema
}

// ResolutionError is fatal: identifier not a string/int/schema, opcode
// unknown, or no schema for (name, version).
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string { return e.Message }

// Resolve implements §4.3: identifier may be a string name, an int32/int
// code, or a *schema.Schema supplied directly by the caller (in which case
// defaultName is used as the name, or the schema's own Name when
// defaultName is empty, and no opcode lookup happens). desiredVersion
// is an int, or nil/"*" for "latest".
func (r *Registry) Resolve(identifier any, desiredVersion any, defaultName string) (*Resolved, []schema.Warning, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var warnings []schema.Warning
	var name string
	var code *int32

	switch id := identifier.(type) {
	case *schema.Schema:
		name = defaultName
		if name == "" {
			name = id.Name
		}
		return &Resolved{Name: name, Code: nil, Version: id.Version, Schema: id}, nil, nil
	case string:
		name = id
		if c, ok := r.nameToCode[name]; ok {
			code = &c
		} else {
			warnings = append(warnings, schema.Warning{Message: fmt.Sprintf("no opcode mapped for name %q", name)})
		}
	case int, int32, int64:
		c := toInt32(id)
		n, ok := r.codeToName[c]
		if !ok {
			return nil, warnings, &ResolutionError{Message: fmt.Sprintf("no schema name mapped for opcode %d", c)}
		}
		name = n
		code = &c
	default:
		return nil, warnings, &ResolutionError{Message: fmt.Sprintf("identifier must be a string, integer or schema, got %T", identifier)}
	}

	versions, ok := r.schemas[name]
	if !ok || len(versions) == 0 {
		return nil, warnings, &ResolutionError{Message: fmt.Sprintf("no schema registered for name %q", name)}
	}

	var version int
	switch v := desiredVersion.(type) {
	case nil:
		version = maxVersion(versions)
	case string:
		if v == "*" || v == "" {
			version = maxVersion(versions)
		} else {
			return nil, warnings, &ResolutionError{Message: fmt.Sprintf("invalid version selector %q", v)}
		}
	case int:
		version = v
	case int32:
		version = int(v)
	case int64:
		version = int(v)
	default:
		return nil, warnings, &ResolutionError{Message: fmt.Sprintf("desired_version must be nil, \"*\" or an integer, got %T", desiredVersion)}
	}

	sc, ok := versions[version]
	if !ok {
		return nil, warnings, &ResolutionError{Message: fmt.Sprintf("no schema for %s version %d", name, version)}
	}

	return &Resolved{Name: name, Code: code, Version: version, Schema: sc}, warnings, nil
}

// Schemas returns every (name, version) pair currently registered, sorted
// for stable listing by the CLI/API.
func (r *Registry) Schemas() []*schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*schema.Schema
	for _, versions := range r.schemas {
		for _, sc := range versions {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

func maxVersion(versions map[int]*schema.Schema) int {
	max := 0
	first := true
	for v := range versions {
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

func toInt32(v any) int32 {
	switch n := v.(type) {
	case int:
		return int32(n)
	case int32:
		return n
	case int64:
		return int32(n)
	}
	return 0
}
