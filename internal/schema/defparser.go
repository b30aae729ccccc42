package schema

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// defFileName matches "<Name>.<Version>.def".
var defFileName = regexp.MustCompile(`^(\w+)\.(\d+)\.def$`)

// defLine matches a leading run of "- " depth markers, a TYPE token and a
// FIELDNAME token.
var defLine = regexp.MustCompile(`^((?:-\s*)*)(\S+)\s+(\w+)$`)

// ParseDefFileName extracts the message name and version from a filename
// matching "<Name>.<Version>.def", or reports it doesn't match.
func ParseDefFileName(fileName string) (name string, version int, ok bool) {
	m := defFileName.FindStringSubmatch(fileName)
	if m == nil {
		return "", 0, false
	}
	v, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], v, true
}

// ParseDefinition reads a definition file body into a raw (pre-augmentation)
// schema tree. name/version are the already-extracted identity (see
// ParseDefFileName); fileName is used only for warning annotations.
func ParseDefinition(r io.Reader, name string, version int, fileName string) (*Schema, []Warning) {
	root := &Field{Kind: KindRoot}
	sc := &Schema{Name: name, Version: version, Root: root}

	var warnings []Warning
	// lastAtDepth[d] is the most recently appended field at nesting depth d;
	// a shallower or equal-depth line at depth d is appended as a child of
	// lastAtDepth[d-1], i.e. as a sibling of the previous depth-d field.
	lastAtDepth := map[int]*Field{}
	currentDepth := -1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		m := defLine.FindStringSubmatch(trimmed)
		if m == nil {
			warnings = append(warnings, Warning{File: fileName, Line: lineNo, Message: "malformed definition line: " + trimmed})
			continue
		}

		depth := strings.Count(m[1], "-")
		typeName := m[2]
		fieldName := m[3]

		if typeName == "count" || typeName == "offset" {
			sc.ExplicitMeta = true
		}

		var kind Kind
		switch typeName {
		case "object":
			kind = KindObject
		case "array":
			kind = KindArray
		case "count":
			kind = KindMetaCount
		case "offset":
			kind = KindMetaOffset
		default:
			kind = KindScalar
			if !scalarTypes[typeName] {
				warnings = append(warnings, Warning{File: fileName, Line: lineNo,
					Message: fmt.Sprintf("unknown type %q for field %q (will fail at length-estimation time if used)", typeName, fieldName)})
			}
		}

		field := &Field{Name: fieldName, Type: typeName, Kind: kind}
		if kind == KindMetaCount || kind == KindMetaOffset {
			field.Path = fieldName
		}

		if depth == 0 {
			root.Children = append(root.Children, field)
			lastAtDepth[0] = field
			currentDepth = 0
			continue
		}

		if depth > currentDepth+1 {
			warnings = append(warnings, Warning{File: fileName, Line: lineNo,
				Message: fmt.Sprintf("excessive nesting: field %q skips from depth %d to %d, treating as one-step descent", fieldName, currentDepth, depth)})
			depth = currentDepth + 1
		}

		var parent *Field
		if depth == currentDepth+1 {
			parent = lastAtDepth[currentDepth]
		} else {
			parent = lastAtDepth[depth-1]
		}

		if parent == nil || (parent.Kind != KindArray && parent.Kind != KindObject) {
			warnings = append(warnings, Warning{File: fileName, Line: lineNo,
				Message: fmt.Sprintf("field %q nested under a non-composite parent", fieldName)})
		} else {
			parent.Children = append(parent.Children, field)
		}
		lastAtDepth[depth] = field
		currentDepth = depth
	}

	return sc, warnings
}
