package markdown

import "strings"

// safeBoundary returns the byte length of the longest prefix of s that
// ends at a safe boundary: a position where no later input can change the
// meaning of anything before it.
//
// The rule, applied consistently on every conversion:
//   - only a blank line outside a code fence can end a safe prefix; an
//     unterminated final line never can
//   - inside a fence nothing is a boundary until the closing fence line
//   - after a list, one blank line is not enough (a further item would
//     retroactively make the list loose); two consecutive blank lines
//     close it for good
func safeBoundary(s string) int {
	var (
		boundary   int
		inFence    bool
		fenceChar  byte
		sawContent bool
		inList     bool
		blankRun   int
	)

	pos := 0
	for pos < len(s) {
		nl := strings.IndexByte(s[pos:], '\n')
		if nl < 0 {
			break
		}
		line := s[pos : pos+nl]
		next := pos + nl + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case inFence:
			if isFenceClose(trimmed, fenceChar) {
				inFence = false
			}

		case trimmed == "":
			blankRun++
			switch {
			case !sawContent:
				// leading blanks carry no meaning
				boundary = next
			case !inList:
				boundary = next
				sawContent = false
			case blankRun >= 2:
				boundary = next
				sawContent = false
				inList = false
			}

		default:
			blankRun = 0
			if ch, ok := fenceOpen(trimmed); ok {
				inFence = true
				fenceChar = ch
				inList = false
			} else {
				// indented continuation lines keep list context
				indented := line != "" && (line[0] == ' ' || line[0] == '\t')
				inList = isListMarker(trimmed) || (inList && indented)
			}
			sawContent = true
		}

		pos = next
	}
	return boundary
}

func fenceOpen(trimmed string) (byte, bool) {
	if strings.HasPrefix(trimmed, "```") {
		return '`', true
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return '~', true
	}
	return 0, false
}

func isFenceClose(trimmed string, ch byte) bool {
	if len(trimmed) < 3 {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}

func isListMarker(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '-', '*', '+':
		return len(trimmed) > 1 && (trimmed[1] == ' ' || trimmed[1] == '\t')
	}
	// ordered markers: 1. 2) etc.
	i := 0
	for i < len(trimmed) && i < 9 && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return false
	}
	if trimmed[i] != '.' && trimmed[i] != ')' {
		return false
	}
	return i+1 < len(trimmed) && (trimmed[i+1] == ' ' || trimmed[i+1] == '\t')
}
