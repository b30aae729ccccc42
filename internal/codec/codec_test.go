package codec

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/teracodec-project/teracodec/internal/schema"
)

func mustSchema(t *testing.T, name string, version int, body string) *schema.Schema {
	t.Helper()
	sc, warnings := schema.ParseDefinition(strings.NewReader(body), name, version, name+".def")
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}
	schema.Augment(sc)
	return sc
}

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("hex.DecodeString(%q): %v", s, err)
	}
	return b
}

func TestScenario1IntFieldNoOpcode(t *testing.T) {
	sc := mustSchema(t, "TEST_VERSIONS", 2, "int16 x\n")
	got, _, err := Encode(sc, Record{"x": 2}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := hexBytes(t, "06 00 00 00 02 00")
	if string(got) != string(want) {
		t.Fatalf("Expected: % x got % x", want, got)
	}
}

func TestScenario2ByteField(t *testing.T) {
	sc := mustSchema(t, "TEST_VERSIONS", 1, "byte b\n")
	got, _, err := Encode(sc, Record{"b": 1}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := hexBytes(t, "05 00 00 00 01")
	if string(got) != string(want) {
		t.Fatalf("Expected: % x got % x", want, got)
	}
}

func TestScenario3TwoStrings(t *testing.T) {
	sc := mustSchema(t, "TEST_STRING", 1, "string s1\nstring s2\n")
	code := int32(3)
	got, _, err := Encode(sc, Record{"s1": "", "s2": "String 2"}, &code)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := hexBytes(t, "1c 00 03 00 08 00 0a 00 00 00 53 00 74 00 72 00 69 00 6e 00 67 00 20 00 32 00 00 00")
	if string(got) != string(want) {
		t.Fatalf("Expected: % x got % x", want, got)
	}
}

func TestScenario4TwoByteBuffers(t *testing.T) {
	sc := mustSchema(t, "TEST_BYTES", 1, "bytes b1\nbytes b2\n")
	code := int32(4)
	rec := Record{
		"b1": []byte{1, 2, 3, 4, 5, 6, 7, 8},
		"b2": []byte{255, 254, 253, 252},
	}
	got, _, err := Encode(sc, rec, &code)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := hexBytes(t, "18 00 04 00 0c 00 08 00 14 00 04 00 01 02 03 04 05 06 07 08 ff fe fd fc")
	if string(got) != string(want) {
		t.Fatalf("Expected: % x got % x", want, got)
	}
}

func TestRoundTripSimpleScalars(t *testing.T) {
	sc := mustSchema(t, "TEST_VERSIONS", 2, "int16 x\n")
	buf, _, err := Encode(sc, Record{"x": 2}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rec, warnings, err := Decode(sc, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("Expected: no warnings got %v", warnings)
	}
	if rec["x"] != int16(2) {
		t.Fatalf("Expected: x=2 got %v", rec["x"])
	}
}

func TestRoundTripStrings(t *testing.T) {
	sc := mustSchema(t, "TEST_STRING", 1, "string s1\nstring s2\n")
	rec := Record{"s1": "", "s2": "String 2"}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Decode(sc, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got["s1"] != "" || got["s2"] != "String 2" {
		t.Fatalf("Expected: s1=\"\" s2=\"String 2\" got %v", got)
	}
}

func TestRoundTripBytes(t *testing.T) {
	sc := mustSchema(t, "TEST_BYTES", 1, "bytes b1\nbytes b2\n")
	rec := Record{"b1": []byte{1, 2, 3, 4, 5, 6, 7, 8}, "b2": []byte{255, 254, 253, 252}}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Decode(sc, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got["b1"].([]byte)) != string([]byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("Expected: b1 round trip got %v", got["b1"])
	}
	if string(got["b2"].([]byte)) != string([]byte{255, 254, 253, 252}) {
		t.Fatalf("Expected: b2 round trip got %v", got["b2"])
	}
}

func TestRoundTripArrayOfObjects(t *testing.T) {
	sc := mustSchema(t, "TEST_ARRAY", 1, "array arr\n- int32 a\n- byte b\narray arr4\n- int32 a\n- byte b\n")
	rec := Record{
		"arr":  []Record{{"a": int32(1), "b": byte(2)}, {"a": int32(3), "b": byte(4)}},
		"arr4": []Record{},
	}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, warnings, err := Decode(sc, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("Expected: no warnings got %v", warnings)
	}
	arr := got["arr"].([]Record)
	if len(arr) != 2 || arr[0]["a"] != int32(1) || arr[0]["b"] != byte(2) || arr[1]["a"] != int32(3) || arr[1]["b"] != byte(4) {
		t.Fatalf("Expected: arr round trip got %v", arr)
	}
	arr4 := got["arr4"].([]Record)
	if len(arr4) != 0 {
		t.Fatalf("Expected: empty arr4 got %v", arr4)
	}
}

func TestEmptyArrayHeaderIsZeroZero(t *testing.T) {
	sc := mustSchema(t, "TEST_EMPTY_ARRAY", 1, "array items\n- byte x\n")
	buf, _, err := Encode(sc, Record{}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// header(4) + count(2) + offset(2) = 8 bytes total, both meta zero.
	if len(buf) != 8 {
		t.Fatalf("Expected: 8 byte frame got %d", len(buf))
	}
	if buf[4] != 0 || buf[5] != 0 || buf[6] != 0 || buf[7] != 0 {
		t.Fatalf("Expected: zeroed count/offset got % x", buf[4:8])
	}
}

func TestLengthAgreementInvariant(t *testing.T) {
	sc := mustSchema(t, "TEST_NESTED", 1, "object sub\n- string b\nint32 x\n")
	rec := Record{"sub": Record{"b": "hello"}, "x": int32(7)}
	estimated, err := EstimateLength(sc, rec)
	if err != nil {
		t.Fatalf("EstimateLength: %v", err)
	}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != 4+estimated {
		t.Fatalf("Expected: len(buf)=4+%d=%d got %d", estimated, 4+estimated, len(buf))
	}
}

func TestSelfPointerConsistency(t *testing.T) {
	sc := mustSchema(t, "TEST_ARRAY_CHAIN", 1, "array items\n- byte v\n")
	rec := Record{"items": []Record{{"v": byte(1)}, {"v": byte(2)}, {"v": byte(3)}}}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// count (2 bytes) then offset (2 bytes) immediately after the 4-byte frame header.
	offset := int(buf[6]) | int(buf[7])<<8
	pos := offset
	var heres, nexts []int
	for pos != 0 {
		here := int(buf[pos]) | int(buf[pos+1])<<8
		next := int(buf[pos+2]) | int(buf[pos+3])<<8
		heres = append(heres, here)
		nexts = append(nexts, next)
		if here != pos {
			t.Fatalf("Expected: here==element start (%d) got %d", pos, here)
		}
		pos = next
	}
	if len(heres) != 3 {
		t.Fatalf("Expected: 3 chained elements got %d", len(heres))
	}
	if nexts[len(nexts)-1] != 0 {
		t.Fatalf("Expected: final next==0 got %d", nexts[len(nexts)-1])
	}
	for i := 0; i < len(heres)-1; i++ {
		if nexts[i] != heres[i+1] {
			t.Fatalf("Expected: element %d next==element %d here got %d vs %d", i, i+1, nexts[i], heres[i+1])
		}
	}
}

func TestSelfPointerMismatchIsFatal(t *testing.T) {
	sc := mustSchema(t, "TEST_ARRAY_CORRUPT", 1, "array items\n- byte v\n")
	rec := Record{"items": []Record{{"v": byte(1)}}}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	offset := int(buf[6]) | int(buf[7])<<8
	buf[offset]++ // corrupt the here pointer's low byte

	if _, _, err := Decode(sc, buf); err == nil {
		t.Fatalf("Expected: error on self-pointer mismatch, got nil")
	}
}

func TestOffsetDriftIsToleratedWithWarning(t *testing.T) {
	sc := mustSchema(t, "TEST_DRIFT", 1, "bytes b\n")
	rec := Record{"b": []byte{9, 9}}
	buf, _, err := Encode(sc, rec, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Insert a spurious byte between the meta block and the payload, and
	// update the recorded offset to the payload's new true position so it
	// disagrees with where the reader's cursor naturally lands after the
	// meta fields (still the old position). The decoder must trust the
	// recorded offset, warn about the drift, and seek to recover the data.
	padded := append(append(append([]byte{}, buf[:8]...), byte(0)), buf[8:]...)
	padded[0] = byte(len(padded))
	padded[1] = byte(len(padded) >> 8)
	padded[4] = 9 // offset meta now points past the inserted junk byte

	rec2, warnings, err := Decode(sc, padded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatalf("Expected: at least one drift warning")
	}
	if string(rec2["b"].([]byte)) != string([]byte{9, 9}) {
		t.Fatalf("Expected: payload recovered via recorded offset got %v", rec2["b"])
	}
}

func TestMissingFieldsDefaultToTypeNaturalZeros(t *testing.T) {
	sc := mustSchema(t, "TEST_DEFAULTS", 1, "int32 x\nstring s\nbytes b\n")
	buf, _, err := Encode(sc, Record{}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rec, _, err := Decode(sc, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec["x"] != int32(0) || rec["s"] != "" || len(rec["b"].([]byte)) != 0 {
		t.Fatalf("Expected: type-natural zero defaults got %v", rec)
	}
}
