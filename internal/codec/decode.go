package codec

import (
	"fmt"

	"github.com/teracodec-project/teracodec/internal/schema"
	"github.com/teracodec-project/teracodec/internal/wire"
)

// Decode deserializes buf (the full frame, including the 4-byte header)
// against sc, returning the record and any non-fatal drift/out-of-bounds
// warnings collected along the way.
func Decode(sc *schema.Schema, buf []byte) (Record, []Warning, error) {
	r := wire.NewReader(buf)
	r.Skip(4) // frame header: total_length, opcode

	var warnings []Warning
	warn := func(w Warning) { warnings = append(warnings, w) }

	rec, err := decodeGroup(r, sc.Root.Children, "", warn)
	if err != nil {
		return nil, warnings, err
	}
	return rec, warnings, nil
}

func decodeGroup(r *wire.Reader, fields []*schema.Field, prefix string, warn func(Warning)) (Record, error) {
	countVals := map[string]int{}
	offsetVals := map[string]int{}
	return decodeGroupWithValues(r, fields, prefix, countVals, offsetVals, warn)
}

func decodeGroupWithValues(r *wire.Reader, fields []*schema.Field, prefix string, countVals, offsetVals map[string]int, warn func(Warning)) (Record, error) {
	out := Record{}
	for _, f := range fields {
		switch f.Kind {
		case schema.KindMetaCount:
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			countVals[joinPath(prefix, f.Path)] = int(v)
		case schema.KindMetaOffset:
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			offsetVals[joinPath(prefix, f.Path)] = int(v)
		case schema.KindObject:
			sub, err := decodeGroupWithValues(r, f.Children, joinPath(prefix, f.Name), countVals, offsetVals, warn)
			if err != nil {
				return nil, err
			}
			out[f.Name] = sub
		case schema.KindArray:
			items, err := decodeArray(r, f, prefix, countVals, offsetVals, warn)
			if err != nil {
				return nil, err
			}
			out[f.Name] = items
		default:
			v, err := decodeScalarField(r, f, prefix, countVals, offsetVals, warn)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
	}
	return out, nil
}

func decodeArray(r *wire.Reader, f *schema.Field, prefix string, countVals, offsetVals map[string]int, warn func(Warning)) ([]Record, error) {
	key := joinPath(prefix, f.Name)
	length := countVals[key]
	next := offsetVals[key]

	items := make([]Record, 0, length)
	for next != 0 {
		if r.Pos() != next {
			warn(Warning{Path: key, Message: fmt.Sprintf("offset drift: cursor=%d expected=%d", r.Pos(), next)})
			r.Seek(next)
		}

		here, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		if int(here) != next {
			return nil, &CodecError{Path: key, Type: "array", Value: here,
				Message: fmt.Sprintf("self-pointer mismatch: here=%d expected=%d", here, next)}
		}

		nextPtr, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}

		elem, err := decodeGroup(r, f.Children, "", warn)
		if err != nil {
			return nil, err
		}
		items = append(items, elem)

		if len(items) >= length && nextPtr != 0 {
			warn(Warning{Path: key, Message: fmt.Sprintf("array produced more elements than declared count=%d", length)})
		}
		next = int(nextPtr)
	}
	return items, nil
}

func decodeScalarField(r *wire.Reader, f *schema.Field, prefix string, countVals, offsetVals map[string]int, warn func(Warning)) (any, error) {
	key := joinPath(prefix, f.Name)

	if op, ok := offsetVals[key]; ok {
		if r.Pos() != op {
			warn(Warning{Path: key, Message: fmt.Sprintf("offset drift: cursor=%d recorded=%d", r.Pos(), op)})
			r.Seek(op)
		}
	}

	v, err := readScalar(r, f, countVals[key])
	if err != nil {
		if ce, ok := err.(*CodecError); ok {
			ce.Path = key
			return nil, ce
		}
		return nil, &CodecError{Path: key, Type: f.Type, Message: err.Error()}
	}
	return v, nil
}

func readScalar(r *wire.Reader, f *schema.Field, count int) (any, error) {
	switch f.Type {
	case "bool":
		return r.ReadBool()
	case "byte":
		return r.ReadByte()
	case "int16":
		return r.ReadInt16()
	case "uint16":
		return r.ReadUint16()
	case "int32":
		return r.ReadInt32()
	case "uint32":
		return r.ReadUint32()
	case "int64":
		return r.ReadInt64()
	case "uint64":
		return r.ReadUint64()
	case "float":
		return r.ReadFloat32()
	case "double":
		return r.ReadFloat64()
	case "string":
		return r.ReadString()
	case "bytes":
		return r.ReadBytes(count)
	default:
		return nil, &CodecError{Type: f.Type, Message: "unknown scalar type"}
	}
}
