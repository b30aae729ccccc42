package schema

import (
	"strings"
	"testing"
)

func parse(t *testing.T, name string, version int, body string) *Schema {
	t.Helper()
	sc, warnings := ParseDefinition(strings.NewReader(body), name, version, name+".def")
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}
	Augment(sc)
	return sc
}

func fieldNames(fields []*Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestParseDefFileName(t *testing.T) {
	cases := []struct {
		file    string
		name    string
		version int
		ok      bool
	}{
		{"TEST.1.def", "TEST", 1, true},
		{"TEST_ARRAY.12.def", "TEST_ARRAY", 12, true},
		{"notadef.txt", "", 0, false},
		{"TEST.def", "", 0, false},
	}
	for _, c := range cases {
		name, version, ok := ParseDefFileName(c.file)
		if ok != c.ok || name != c.name || version != c.version {
			t.Fatalf("ParseDefFileName(%q): Expected: (%q,%d,%v) got (%q,%d,%v)", c.file, c.name, c.version, c.ok, name, version, ok)
		}
	}
}

func TestAugmentSimpleStrings(t *testing.T) {
	sc := parse(t, "TEST_STRING", 1, "string s1\nstring s2\n")
	kinds := make([]Kind, len(sc.Root.Children))
	for i, f := range sc.Root.Children {
		kinds[i] = f.Kind
	}
	want := []Kind{KindMetaOffset, KindMetaOffset, KindScalar, KindScalar}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("field %d: Expected: %v got %v (all: %v)", i, k, kinds[i], kinds)
		}
	}
	if sc.Root.Children[0].Path != "s1" || sc.Root.Children[1].Path != "s2" {
		t.Fatalf("Expected: meta paths s1,s2 got %q,%q", sc.Root.Children[0].Path, sc.Root.Children[1].Path)
	}
}

func TestAugmentBytesOrderIsOffsetThenCount(t *testing.T) {
	sc := parse(t, "TEST_BYTES", 1, "bytes b1\nbytes b2\n")
	var kinds []Kind
	for _, f := range sc.Root.Children {
		kinds = append(kinds, f.Kind)
	}
	want := []Kind{KindMetaOffset, KindMetaCount, KindMetaOffset, KindMetaCount, KindScalar, KindScalar}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("field %d: Expected: %v got %v (all: %v)", i, k, kinds[i], kinds)
		}
	}
}

func TestAugmentArrayOrderIsCountThenOffset(t *testing.T) {
	sc := parse(t, "TEST_ARRAY", 1, "array arr\n- int32 x\n- byte y\n")
	if sc.Root.Children[0].Kind != KindMetaCount || sc.Root.Children[1].Kind != KindMetaOffset {
		t.Fatalf("Expected: count then offset meta, got %v then %v", sc.Root.Children[0].Kind, sc.Root.Children[1].Kind)
	}
	arrField := sc.Root.Children[2]
	if arrField.Kind != KindArray {
		t.Fatalf("Expected: array value field got %v", arrField.Kind)
	}
	if len(arrField.Children) != 2 || arrField.Children[0].Name != "x" || arrField.Children[1].Name != "y" {
		t.Fatalf("Expected: element fields x,y got %v", fieldNames(arrField.Children))
	}
}

func TestAugmentHoistsNestedObjectMetaToTop(t *testing.T) {
	sc := parse(t, "TEST_NESTED", 1, "object sub\n- string b\nint32 x\n")
	if sc.Root.Children[0].Kind != KindMetaOffset || sc.Root.Children[0].Path != "sub.b" {
		t.Fatalf("Expected: hoisted meta at top keyed sub.b, got kind=%v path=%q", sc.Root.Children[0].Kind, sc.Root.Children[0].Path)
	}
	subField := sc.Root.Children[1]
	if subField.Kind != KindObject || len(subField.Children) != 1 || subField.Children[0].Kind != KindScalar {
		t.Fatalf("Expected: object sub containing just the scalar value field, got %+v", subField)
	}
}

func TestExplicitMetaDisablesAugmentation(t *testing.T) {
	sc := parse(t, "TEST_EXPLICIT", 1, "offset b1\ncount b1\nbytes b1\n")
	if !sc.ExplicitMeta {
		t.Fatalf("Expected: ExplicitMeta=true")
	}
	if len(sc.Root.Children) != 3 {
		t.Fatalf("Expected: 3 untouched fields got %d", len(sc.Root.Children))
	}
}

func TestMalformedOpcodeMapLineWarns(t *testing.T) {
	_, warnings := ParseOpcodeMap(strings.NewReader("S_LOGIN 1024\nGARBAGE\nC_MOVE notanumber\n"), "protocol.map")
	if len(warnings) != 2 {
		t.Fatalf("Expected: 2 warnings got %d (%v)", len(warnings), warnings)
	}
}

func TestOpcodeMapIgnoresCommentsAndBlankLines(t *testing.T) {
	codes, warnings := ParseOpcodeMap(strings.NewReader("# comment\n\nS_LOGIN 1024\nC_MOVE  2048 # trailing\n"), "protocol.map")
	if len(warnings) != 0 {
		t.Fatalf("Expected: no warnings got %v", warnings)
	}
	if codes["S_LOGIN"] != 1024 || codes["C_MOVE"] != 2048 {
		t.Fatalf("Expected: S_LOGIN=1024 C_MOVE=2048 got %v", codes)
	}
}
