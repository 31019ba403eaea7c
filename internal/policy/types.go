package policy

import "fmt"

// Style names the digit-run substitution rule a pattern set is compiled
// under. A policy has exactly one style, set by the "match" directive.
type Style string

const (
	StyleExact     Style = "exact"
	StyleDigits    Style = "digits"
	StyleHexdigits Style = "hexdigits"
)

func (s Style) Valid() bool {
	switch s {
	case StyleExact, StyleDigits, StyleHexdigits:
		return true
	}
	return false
}

// Label is either a specific administrator-chosen string or the "any
// label" sentinel carried by directives that omitted a /label suffix.
type Label struct {
	name string
	any  bool
}

// AnyLabel is the sentinel matched by keys that supplied no label, and
// consulted as a fallback for keys that did.
func AnyLabel() Label { return Label{any: true} }

// NewLabel builds a concrete label. An empty string is the "no label
// was presented at invocation" case and is distinct from AnyLabel: it is
// a specific (empty) label that still falls back to AnyLabel during
// lookup, exactly like any other concrete label would.
func NewLabel(s string) Label { return Label{name: s} }

func (l Label) IsAny() bool { return l.any }

func (l Label) String() string {
	if l.any {
		return "*"
	}
	return l.name
}

// PrincipalKind distinguishes the three forms a policy-file principal
// token can take.
type PrincipalKind int

const (
	KindUser PrincipalKind = iota
	KindNegUser
	KindGroup
)

// Principal identifies one side of a policy directive: a user, a
// negated user, or a group.
type Principal struct {
	Kind PrincipalKind
	Name string
}

func User(name string) Principal    { return Principal{Kind: KindUser, Name: name} }
func NegUser(name string) Principal { return Principal{Kind: KindNegUser, Name: name} }
func Group(name string) Principal   { return Principal{Kind: KindGroup, Name: name} }

func (p Principal) String() string {
	switch p.Kind {
	case KindNegUser:
		return "-" + p.Name
	case KindGroup:
		return "+" + p.Name
	default:
		return p.Name
	}
}

// Outcome is the verdict the decision engine reaches for one invocation.
type Outcome int

const (
	Disallowed Outcome = iota
	Allowed
	AllowedByGroup
	Training
	TrainingByGroup
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case AllowedByGroup:
		return "allowed-by-group"
	case Training:
		return "training"
	case TrainingByGroup:
		return "training-by-group"
	default:
		return "disallowed"
	}
}

// Decision is the result of Engine.Decide. Group is populated only for
// the *ByGroup outcomes and names the group that supplied the match.
type Decision struct {
	Outcome Outcome
	Group   string
}

func (d Decision) Permits() bool {
	switch d.Outcome {
	case Allowed, AllowedByGroup, Training, TrainingByGroup:
		return true
	}
	return false
}

func (d Decision) String() string {
	if d.Group != "" {
		return fmt.Sprintf("%s(%s)", d.Outcome, d.Group)
	}
	return d.Outcome.String()
}

// Settings are the singleton policy-file directives: "match", "syslog",
// "banner" and "logfiles", plus the resolved path of the main policy
// file itself, carried here so it can be stamped onto audit records.
type Settings struct {
	MatchStyle     Style
	SyslogFacility string
	BannerPath     string
	LogfileGlobs   []string
	ConfigPath     string
}

func DefaultSettings() Settings {
	return Settings{
		MatchStyle:     StyleDigits,
		SyslogFacility: "auth",
		LogfileGlobs:   nil,
	}
}

// ValidFacilities is the closed set accepted by the "syslog" directive.
var ValidFacilities = map[string]bool{
	"auth": true, "authpriv": true, "daemon": true, "user": true,
	"local0": true, "local1": true, "local2": true, "local3": true,
	"local4": true, "local5": true, "local6": true, "local7": true,
}

// Policy is a fully loaded, ready-to-query ruleset.
type Policy struct {
	Tree     *Tree
	Training *Training
	Settings Settings
}
