package wire

import "testing"

func TestWriterReaderRoundTripScalars(t *testing.T) {
	w := NewWriter(1 + 1 + 2 + 4 + 8 + 4 + 8)
	if err := w.WriteBool(true); err != nil {
		t.Fatalf("WriteBool: %v", err)
	}
	if err := w.WriteByte(0xAB); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := w.WriteUint16(0xBEEF); err != nil {
		t.Fatalf("WriteUint16: %v", err)
	}
	if err := w.WriteUint32(0xDEADBEEF); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	if err := w.WriteUint64(0x0102030405060708); err != nil {
		t.Fatalf("WriteUint64: %v", err)
	}
	if err := w.WriteFloat32(3.5); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	if err := w.WriteFloat64(2.25); err != nil {
		t.Fatalf("WriteFloat64: %v", err)
	}

	r := NewReader(w.Bytes())
	if v, err := r.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool: Expected: true got %v (err %v)", v, err)
	}
	if v, err := r.ReadByte(); err != nil || v != 0xAB {
		t.Fatalf("ReadByte: Expected: 0xAB got %x (err %v)", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0xBEEF {
		t.Fatalf("ReadUint16: Expected: 0xBEEF got %x (err %v)", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadUint32: Expected: 0xDEADBEEF got %x (err %v)", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("ReadUint64: Expected: 0x0102030405060708 got %x (err %v)", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("ReadFloat32: Expected: 3.5 got %v (err %v)", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != 2.25 {
		t.Fatalf("ReadFloat64: Expected: 2.25 got %v (err %v)", v, err)
	}
}

func TestWriteInt32NumericWidthTolerance(t *testing.T) {
	// 0x80000000 is out of range for int32; written as uint32 it should give
	// the same four bytes as its two's-complement int32 reading (-2^31).
	w1 := NewWriter(4)
	if err := w1.WriteUint32(0x80000000); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	w2 := NewWriter(4)
	if err := w2.WriteInt32(int64(int32(-2147483648))); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if string(w1.Bytes()) != string(w2.Bytes()) {
		t.Fatalf("Expected: identical bit patterns got %x vs %x", w1.Bytes(), w2.Bytes())
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "String 2", "héllo", "\U0001F600"}
	for _, s := range cases {
		w := NewWriter(64)
		if err := w.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("Expected: %q got %q", s, got)
		}
	}
}

func TestEmptyStringIsJustNulTerminator(t *testing.T) {
	w := NewWriter(2)
	if err := w.WriteString(""); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if len(w.Bytes()) != 2 || w.Bytes()[0] != 0 || w.Bytes()[1] != 0 {
		t.Fatalf("Expected: 2 zero bytes got %x", w.Bytes())
	}
}

func TestBytesRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	w := NewWriter(len(data))
	if err := w.WriteBytes(data); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := r.ReadBytes(len(data))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Expected: %v got %v", data, got)
	}
}

func TestSeekAndSkip(t *testing.T) {
	w := NewWriter(8)
	w.Seek(4)
	if err := w.WriteUint32(42); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	w.Seek(0)
	if err := w.WriteUint32(7); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	r := NewReader(w.Bytes())
	if v, _ := r.ReadUint32(); v != 7 {
		t.Fatalf("Expected: 7 got %d", v)
	}
	r.Skip(0)
	if v, _ := r.ReadUint32(); v != 42 {
		t.Fatalf("Expected: 42 got %d", v)
	}
}

func TestReadPastEndErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadUint32(); err == nil {
		t.Fatalf("Expected: error reading past end, got nil")
	}
}
