package schema

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadResult is everything a full directory load produced.
type LoadResult struct {
	Opcodes  map[string]int32    // name -> code
	Schemas  map[string][]*Schema // name -> versions, in the order they were loaded
	Warnings []Warning
}

// LoadDir reads "<basePath>/protocol.map" (if present) and every
// "*.def" file directly under basePath, producing a fully augmented set
// of schemas. Reading files from disk is treated as a thin external
// concern by design: this function does the I/O, everything interesting
// happens in ParseOpcodeMap/ParseDefinition/Augment.
func LoadDir(basePath string) (*LoadResult, error) {
	result := &LoadResult{
		Opcodes: make(map[string]int32),
		Schemas: make(map[string][]*Schema),
	}

	mapPath := filepath.Join(basePath, "protocol.map")
	if f, err := os.Open(mapPath); err == nil {
		defer f.Close()
		codes, warnings := ParseOpcodeMap(f, "protocol.map")
		result.Opcodes = codes
		result.Warnings = append(result.Warnings, warnings...)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("schema: opening opcode map: %w", err)
	}

	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("schema: reading %s: %w", basePath, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := ParseDefFileName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(basePath, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("schema: opening %s: %w", path, err)
		}
		sc, warnings := ParseDefinition(f, name, version, entry.Name())
		f.Close()

		Augment(sc)
		result.Warnings = append(result.Warnings, warnings...)

		if _, mapped := result.Opcodes[name]; !mapped {
			result.Warnings = append(result.Warnings, Warning{File: entry.Name(),
				Message: fmt.Sprintf("schema %q has no opcode mapping", name)})
		}

		result.Schemas[name] = append(result.Schemas[name], sc)
	}

	return result, nil
}
