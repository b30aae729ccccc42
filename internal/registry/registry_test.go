package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"protocol.map":       "S_LOGIN 1024\nC_MOVE 2048\n",
		"TEST_VERSIONS.1.def": "byte b\n",
		"TEST_VERSIONS.2.def": "int16 x\n",
		"S_LOGIN.1.def":       "int32 id\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestResolveByNameLatestVersion(t *testing.T) {
	r := New()
	if err := r.Load(writeTestDir(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolved, _, err := r.Resolve("TEST_VERSIONS", nil, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != 2 {
		t.Fatalf("Expected: version 2 got %d", resolved.Version)
	}
}

func TestResolveExactVersion(t *testing.T) {
	r := New()
	if err := r.Load(writeTestDir(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolved, _, err := r.Resolve("TEST_VERSIONS", 1, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != 1 {
		t.Fatalf("Expected: version 1 got %d", resolved.Version)
	}
}

func TestResolveByOpcode(t *testing.T) {
	r := New()
	if err := r.Load(writeTestDir(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolved, _, err := r.Resolve(1024, nil, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Name != "S_LOGIN" {
		t.Fatalf("Expected: name S_LOGIN got %q", resolved.Name)
	}
}

func TestResolveUnknownOpcodeFails(t *testing.T) {
	r := New()
	if err := r.Load(writeTestDir(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, err := r.Resolve(9999, nil, ""); err == nil {
		t.Fatalf("Expected: error for unknown opcode, got nil")
	}
}

func TestIdempotentLoad(t *testing.T) {
	dir := writeTestDir(t)
	r1 := New()
	r2 := New()
	if err := r1.Load(dir); err != nil {
		t.Fatalf("Load r1: %v", err)
	}
	if err := r2.Load(dir); err != nil {
		t.Fatalf("Load r2: %v", err)
	}
	if !reflect.DeepEqual(r1.nameToCode, r2.nameToCode) {
		t.Fatalf("Expected: identical opcode maps across loads")
	}
	s1, _, err := r1.Resolve("TEST_VERSIONS", "*", "")
	if err != nil {
		t.Fatalf("Resolve r1: %v", err)
	}
	s2, _, err := r2.Resolve("TEST_VERSIONS", "*", "")
	if err != nil {
		t.Fatalf("Resolve r2: %v", err)
	}
	if !reflect.DeepEqual(s1.Schema, s2.Schema) {
		t.Fatalf("Expected: identical schemas across loads")
	}
}

func TestResolveDirectSchema(t *testing.T) {
	r := New()
	if err := r.Load(writeTestDir(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolved, _, err := r.Resolve("TEST_VERSIONS", nil, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	direct, _, err := r.Resolve(resolved.Schema, nil, "CUSTOM_NAME")
	if err != nil {
		t.Fatalf("Resolve direct: %v", err)
	}
	if direct.Name != "CUSTOM_NAME" || direct.Code != nil {
		t.Fatalf("Expected: name=CUSTOM_NAME code=nil got name=%q code=%v", direct.Name, direct.Code)
	}
}
