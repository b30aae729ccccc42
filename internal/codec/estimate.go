package codec

import (
	"unicode/utf16"

	"github.com/teracodec-project/teracodec/internal/schema"
)

// EstimateLength computes the exact serialized byte length of rec against
// the augmented schema's root group, per SPEC_FULL.md §4.4. It does not
// include the 4-byte frame header; callers add that separately.
func EstimateLength(sc *schema.Schema, rec Record) (int, error) {
	return estimateGroup(sc.Root.Children, rec)
}

func estimateGroup(fields []*schema.Field, rec Record) (int, error) {
	total := 0
	for _, f := range fields {
		switch f.Kind {
		case schema.KindMetaCount, schema.KindMetaOffset:
			total += 2
		case schema.KindObject:
			n, err := estimateGroup(f.Children, toObject(rec[f.Name]))
			if err != nil {
				return 0, err
			}
			total += n
		case schema.KindArray:
			items := toItemSlice(rec[f.Name])
			for _, item := range items {
				n, err := estimateGroup(f.Children, item)
				if err != nil {
					return 0, err
				}
				total += 4 + n
			}
		default:
			n, err := estimateScalar(f, rec[f.Name])
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

func estimateScalar(f *schema.Field, v any) (int, error) {
	switch f.Type {
	case "string":
		s, _ := toString(v)
		if s == "" {
			return 2, nil
		}
		return (len(utf16.Encode([]rune(s))) + 1) * 2, nil
	case "bytes":
		b, _ := toBytes(v)
		return len(b), nil
	default:
		if n := scalarSizeHint(f); n > 0 {
			return n, nil
		}
		return 0, &CodecError{Path: f.Name, Type: f.Type, Value: v, Message: "unknown scalar type"}
	}
}
