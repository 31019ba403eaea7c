// Package logrecord parses sshdo's own audit records back out of
// syslog-style log files, for the offline learn and unlearn drivers.
package logrecord

// Record is one decoded audit line. Type is the decision outcome
// ("allowed", "allowed-by-group", "training", "training-by-group",
// "disallowed") for decision records, or "configerror" otherwise.
type Record struct {
	Type     string
	User     string
	RemoteIP string
	Label    string
	Command  string
	Group    string
	Config   string
	Message  string
}

// decisionTypes is the closed set of Type values that name a decision
// outcome rather than some other event kind.
var decisionTypes = map[string]bool{
	"allowed": true, "allowed-by-group": true,
	"training": true, "training-by-group": true,
	"disallowed": true,
}

// IsCandidate reports whether the record carries enough information
// for the coalescer to treat it as an observation of a (user, label,
// command) invocation.
func (r Record) IsCandidate() bool {
	return decisionTypes[r.Type] && r.User != "" && r.Command != ""
}

// IsDecisionType reports whether t is one of the outcome strings a
// decision record's Type can carry, as opposed to some other event
// kind such as "configerror".
func IsDecisionType(t string) bool {
	return decisionTypes[t]
}
