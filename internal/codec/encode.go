package codec

import (
	"fmt"

	"github.com/teracodec-project/teracodec/internal/schema"
	"github.com/teracodec-project/teracodec/internal/wire"
)

// Encode serializes rec against sc into a freshly allocated buffer
// including the 4-byte frame header (total_length, opcode). code may be
// nil only if the caller does not need a meaningful opcode on the wire
// (it is then written as 0); callers resolving through the registry
// should always have one.
func Encode(sc *schema.Schema, rec Record, code *int32) ([]byte, []Warning, error) {
	bodyLen, err := EstimateLength(sc, rec)
	if err != nil {
		return nil, nil, err
	}

	total := 4 + bodyLen
	w := wire.NewWriter(total)
	if err := w.WriteUint16(uint16(total)); err != nil {
		return nil, nil, err
	}
	var opcode uint16
	if code != nil {
		opcode = uint16(*code)
	}
	if err := w.WriteUint16(opcode); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	warn := func(wr Warning) { warnings = append(warnings, wr) }

	if err := encodeGroup(w, sc.Root.Children, rec, "", warn); err != nil {
		return nil, warnings, err
	}

	if w.Pos() != total {
		return nil, warnings, fmt.Errorf("codec: length-estimator disagreement: estimated %d, wrote %d", total, w.Pos())
	}

	return w.Bytes(), warnings, nil
}

func encodeGroup(w *wire.Writer, fields []*schema.Field, rec Record, prefix string, warn func(Warning)) error {
	countPos := map[string]int{}
	offsetPos := map[string]int{}
	return encodeGroupWithPositions(w, fields, rec, prefix, countPos, offsetPos, warn)
}

func encodeGroupWithPositions(w *wire.Writer, fields []*schema.Field, rec Record, prefix string, countPos, offsetPos map[string]int, warn func(Warning)) error {
	for _, f := range fields {
		switch f.Kind {
		case schema.KindMetaCount:
			key := joinPath(prefix, f.Path)
			countPos[key] = w.Pos()
			if err := w.WriteUint16(0); err != nil {
				return err
			}
		case schema.KindMetaOffset:
			key := joinPath(prefix, f.Path)
			offsetPos[key] = w.Pos()
			if err := w.WriteUint16(0); err != nil {
				return err
			}
		case schema.KindObject:
			if err := encodeGroupWithPositions(w, f.Children, toObject(rec[f.Name]), joinPath(prefix, f.Name), countPos, offsetPos, warn); err != nil {
				return err
			}
		case schema.KindArray:
			if err := encodeArray(w, f, rec, prefix, countPos, offsetPos, warn); err != nil {
				return err
			}
		default:
			if err := encodeScalarField(w, f, rec, prefix, countPos, offsetPos, warn); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeArray(w *wire.Writer, f *schema.Field, rec Record, prefix string, countPos, offsetPos map[string]int, warn func(Warning)) error {
	key := joinPath(prefix, f.Name)
	items := toItemSlice(rec[f.Name])

	if cp, ok := countPos[key]; ok {
		if err := backpatchUint16(w, cp, uint16(len(items))); err != nil {
			return err
		}
	}
	if len(items) == 0 {
		return nil
	}

	lastPatchPos, hasLast := offsetPos[key]
	for _, item := range items {
		here := w.Pos()
		if hasLast {
			if err := backpatchUint16(w, lastPatchPos, uint16(here)); err != nil {
				return err
			}
		}
		if err := w.WriteUint16(uint16(here)); err != nil {
			return err
		}
		lastPatchPos = w.Pos()
		hasLast = true
		if err := w.WriteUint16(0); err != nil { // next placeholder
			return err
		}
		if err := encodeGroup(w, f.Children, item, "", warn); err != nil {
			return err
		}
	}
	return nil
}

func encodeScalarField(w *wire.Writer, f *schema.Field, rec Record, prefix string, countPos, offsetPos map[string]int, warn func(Warning)) error {
	key := joinPath(prefix, f.Name)
	value := rec[f.Name]

	if cp, ok := countPos[key]; ok {
		n, err := scalarLength(f, value)
		if err != nil {
			return err
		}
		if err := backpatchUint16(w, cp, uint16(n)); err != nil {
			return err
		}
	}
	if op, ok := offsetPos[key]; ok {
		if err := backpatchUint16(w, op, uint16(w.Pos())); err != nil {
			return err
		}
	}

	if f.Type == "int64" || f.Type == "uint64" {
		if n, ok := toInt64(value); ok && !isSafeInteger(n) {
			warn(Warning{Path: key, Message: fmt.Sprintf("value %d outside the 53-bit safe-integer range", n)})
		}
	}

	if err := writeScalar(w, f, value); err != nil {
		if ce, ok := err.(*CodecError); ok {
			ce.Path = key
			return ce
		}
		return &CodecError{Path: key, Type: f.Type, Value: value, Message: err.Error()}
	}
	return nil
}

func scalarLength(f *schema.Field, v any) (int, error) {
	switch f.Type {
	case "bytes":
		b, _ := toBytes(v)
		return len(b), nil
	case "string":
		// count meta is never inserted for strings; present for completeness.
		s, _ := toString(v)
		return len(s), nil
	default:
		return scalarSizeHint(f), nil
	}
}

func backpatchUint16(w *wire.Writer, pos int, v uint16) error {
	cur := w.Pos()
	w.Seek(pos)
	err := w.WriteUint16(v)
	w.Seek(cur)
	return err
}

func writeScalar(w *wire.Writer, f *schema.Field, v any) error {
	switch f.Type {
	case "bool":
		b, _ := v.(bool)
		return w.WriteBool(b)
	case "byte":
		n, _ := toInt64(v)
		return w.WriteByte(byte(n))
	case "int16", "uint16":
		n, _ := toInt64(v)
		return w.WriteInt16(int32(n))
	case "int32", "uint32":
		n, _ := toInt64(v)
		return w.WriteInt32(n)
	case "int64", "uint64":
		n, _ := toInt64(v)
		return w.WriteInt64(n)
	case "float":
		n, _ := toFloat64(v)
		return w.WriteFloat32(float32(n))
	case "double":
		n, _ := toFloat64(v)
		return w.WriteFloat64(n)
	case "string":
		s, _ := toString(v)
		return w.WriteString(s)
	case "bytes":
		b, _ := toBytes(v)
		return w.WriteBytes(b)
	default:
		return &CodecError{Type: f.Type, Value: v, Message: "unknown scalar type"}
	}
}
