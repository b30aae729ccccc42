package schema

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParseOpcodeMap reads a protocol.map-style file: one "NAME CODE" pair per
// non-blank, non-comment line. "#" starts a line comment. Malformed or
// non-numeric lines are warned about and skipped; they never abort the
// load.
func ParseOpcodeMap(r io.Reader, fileName string) (map[string]int32, []Warning) {
	codes := make(map[string]int32)
	var warnings []Warning

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			warnings = append(warnings, Warning{File: fileName, Line: lineNo, Message: "malformed opcode map line: " + line})
			continue
		}

		name := fields[0]
		code, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			warnings = append(warnings, Warning{File: fileName, Line: lineNo, Message: "non-numeric opcode for " + name + ": " + fields[1]})
			continue
		}

		codes[name] = int32(code)
	}

	return codes, warnings
}
