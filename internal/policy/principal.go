package policy

import (
	"fmt"
	"strings"
)

// ParsePrincipalToken parses one space-separated principal token from a
// directive's principal-list: an optional leading "+" (group) or "-"
// (negated user), a bare name, and an optional "/label" suffix. Neither
// the name nor the label may contain whitespace or a colon; that much
// is already guaranteed by the caller having split the line on
// whitespace and on the first colon before reaching here.
func ParsePrincipalToken(tok string) (Principal, Label, error) {
	if tok == "" {
		return Principal{}, Label{}, fmt.Errorf("%w: empty principal", ErrInvalidPattern)
	}

	kind := KindUser
	name := tok
	switch tok[0] {
	case '+':
		kind = KindGroup
		name = tok[1:]
	case '-':
		kind = KindNegUser
		name = tok[1:]
	}

	label := AnyLabel()
	if slash := strings.IndexByte(name, '/'); slash >= 0 {
		label = NewLabel(name[slash+1:])
		name = name[:slash]
	}

	if name == "" {
		return Principal{}, Label{}, fmt.Errorf("%w: empty name in principal %q", ErrInvalidPattern, tok)
	}

	return Principal{Kind: kind, Name: name}, label, nil
}

// FormatPrincipalToken renders the canonical token for a (principal,
// label) pair, the same textual form ParsePrincipalToken accepts. The
// learn/unlearn coalescer uses this as the stable map key and output
// token for an observed or retained principal.
func FormatPrincipalToken(p Principal, l Label) string {
	s := p.String()
	if !l.IsAny() {
		s += "/" + l.String()
	}
	return s
}
