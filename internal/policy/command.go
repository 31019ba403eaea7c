package policy

import (
	"fmt"
	"strconv"
	"strings"
)

const interactiveMarker = "<interactive>"
const binaryPrefix = "<binary>"

// decodeBinaryCommand reverses the escaping a "<binary>"-prefixed
// command line uses to carry bytes that cannot appear literally in a
// text policy file: 0x00-0x1f and backslash itself are written as
// \xNN or \\, everything else appears as-is.
func decodeBinaryCommand(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("%w: dangling escape in binary command", ErrInvalidPattern)
		}
		switch s[i+1] {
		case '\\':
			sb.WriteByte('\\')
			i++
		case 'x':
			if i+3 >= len(s) {
				return "", fmt.Errorf("%w: truncated \\xNN escape in binary command", ErrInvalidPattern)
			}
			v, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
			if err != nil {
				return "", fmt.Errorf("%w: bad \\xNN escape in binary command: %w", ErrInvalidPattern, err)
			}
			sb.WriteByte(byte(v))
			i += 3
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c in binary command", ErrInvalidPattern, s[i+1])
		}
	}
	return sb.String(), nil
}

// encodeBinaryCommand is decodeBinaryCommand's inverse: it renders a
// command containing control bytes back into policy-file text.
func encodeBinaryCommand(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			sb.WriteString(`\\`)
			continue
		}
		if c < 0x20 {
			fmt.Fprintf(&sb, `\x%02x`, c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// needsBinaryEncoding reports whether s contains a byte that the
// binary encoding exists to escape.
func needsBinaryEncoding(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == '\\' {
			return true
		}
	}
	return false
}

// parseCommandText interprets the text following the colon in an
// authorization directive, honoring the "<interactive>" and
// "<binary> ..." escapes.
func parseCommandText(text string) (string, error) {
	switch {
	case text == interactiveMarker:
		return text, nil
	case strings.HasPrefix(text, binaryPrefix):
		rest := strings.TrimSpace(text[len(binaryPrefix):])
		return decodeBinaryCommand(rest)
	default:
		return text, nil
	}
}

// renderCommandText is parseCommandText's inverse: it writes a command
// back out as policy-file text. The --learn and --unlearn output does
// not go through it; those patterns are printed as-is, without the
// "<binary>" encoding.
func renderCommandText(cmd string) string {
	if cmd == interactiveMarker {
		return cmd
	}
	if needsBinaryEncoding(cmd) {
		return binaryPrefix + " " + encodeBinaryCommand(cmd)
	}
	return cmd
}
