package codec

import "fmt"

// CodecError annotates a failure with the dotted field path, wire type and
// offending value, per SPEC_FULL.md §7.
type CodecError struct {
	Path    string
	Type    string
	Value   any
	Message string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s (path=%s type=%s value=%v)", e.Message, e.Path, e.Type, e.Value)
}

// Warning is a non-fatal per-call condition: offset drift or an
// out-of-bounds array element while decoding, a 64-bit value outside the
// 53-bit safe-integer range while encoding, or a resolution warning passed
// through by Codec.Write/Parse (those have an empty Path). Unlike
// schema.Warning these arise per-call, not at load time, so they carry a
// field path instead of a file/line.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}
