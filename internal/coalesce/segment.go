// Package coalesce implements the learn/unlearn log-mining engine: it
// folds observed (principal, command) pairs into the smallest set of
// digit-run command patterns that still covers every observation,
// merging a new command into every existing pattern it is compatible
// with rather than the first one found.
package coalesce

import (
	"regexp"
	"strings"

	"sshdo/internal/policy"
)

var digitsRunRe = regexp.MustCompile(`[#0-9]+`)
var hexdigitsRunRe = regexp.MustCompile(`[#0-9a-fA-F]+`)

// segment is one piece of a command split around its digit runs.
// Literal segments carry Text only; digit-run segments start out
// tracking both the exact digit string observed and its width, which
// merging narrows down to whichever of those two forms still holds
// across every observation folded into it.
type segment struct {
	isDigitRun bool
	text       string // literal text, only meaningful when !isDigitRun

	literalOK  bool
	literalVal string
	widthOK    bool
	width      int
}

// segmentCommand splits cmd into literal and digit-run segments under
// the given style. Under StyleExact the coalescer never runs: callers
// should treat the whole command as an opaque literal.
func segmentCommand(cmd string, style policy.Style) []segment {
	re := digitsRunRe
	if style == policy.StyleHexdigits {
		re = hexdigitsRunRe
	}

	var segs []segment
	pos := 0
	for _, m := range re.FindAllStringIndex(cmd, -1) {
		if m[0] > pos {
			segs = append(segs, segment{text: cmd[pos:m[0]]})
		}
		d := cmd[m[0]:m[1]]
		segs = append(segs, segment{
			isDigitRun: true,
			literalOK:  true,
			literalVal: d,
			widthOK:    true,
			width:      len(d),
		})
		pos = m[1]
	}
	if pos < len(cmd) {
		segs = append(segs, segment{text: cmd[pos:]})
	}
	return segs
}

// similar reports whether a and b have the same shape: same number of
// segments, digit-run segments in the same positions, and identical
// literal text everywhere else. Digit-run segments may differ in the
// value or width they carry; that is exactly what merging narrows.
func similar(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].isDigitRun != b[i].isDigitRun {
			return false
		}
		if !a[i].isDigitRun && a[i].text != b[i].text {
			return false
		}
	}
	return true
}

// mergeInto folds new's digit-run information into target, narrowing
// target's literal/width candidates whenever new disagrees with them.
// Literal segments need no merging: similar already guarantees they
// match.
func mergeInto(target, new []segment) {
	for i := range target {
		if !target[i].isDigitRun {
			continue
		}
		if target[i].literalOK && target[i].literalVal != new[i].literalVal {
			target[i].literalOK = false
		}
		if target[i].widthOK && target[i].width != new[i].width {
			target[i].widthOK = false
		}
	}
}

// render picks, for each segment, the literal value if every merged
// observation agreed on it, else a fixed-width "#" run if every merged
// observation agreed on the width, else a single "#".
func render(segs []segment) string {
	var sb strings.Builder
	for _, s := range segs {
		switch {
		case !s.isDigitRun:
			sb.WriteString(s.text)
		case s.literalOK:
			sb.WriteString(s.literalVal)
		case s.widthOK:
			sb.WriteString(strings.Repeat("#", s.width))
		default:
			sb.WriteString("#")
		}
	}
	return sb.String()
}
