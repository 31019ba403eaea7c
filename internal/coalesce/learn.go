package coalesce

import (
	"sort"
	"strings"

	"sshdo/internal/logrecord"
	"sshdo/internal/policy"
)

// LearnProposal is one candidate directive line to add for a coalesced
// command pattern: Principals would be granted it outright, and
// DisallowedPrincipals is rendered as a commented "# principal:
// pattern" line, the same way a denied principal still shows up in
// the authorization tree.
type LearnProposal struct {
	Principals           []string
	DisallowedPrincipals []string
	Pattern              string
}

// Learn replays decision records and proposes new "principal: pattern"
// directives for commands currently running only under training. A
// command shape seen disallowed for a principal is never proposed for
// that principal, even if the same shape was also seen under training
// for them: mergeMark's learn-mode rule always resolves that conflict
// toward disallowed.
func Learn(pol *policy.Policy, records []logrecord.Record) []LearnProposal {
	obs := make(Observations)
	for _, rec := range records {
		mark, ok := markFor(rec.Type)
		if !ok {
			continue
		}
		token := principalToken(rec)
		if obs[rec.Command] == nil {
			obs[rec.Command] = make(map[string]Mark)
		}
		if existing, had := obs[rec.Command][token]; had {
			obs[rec.Command][token] = mergeMark(ModeLearn, existing, mark)
		} else {
			obs[rec.Command][token] = mark
		}
	}

	coalesced := Coalesce(obs, pol.Settings.MatchStyle, ModeLearn)

	patterns := make([]string, 0, len(coalesced))
	for p := range coalesced {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	var proposals []LearnProposal
	for _, pattern := range patterns {
		var allowed, disallowed []string
		for token, mark := range coalesced[pattern] {
			if mark == MarkAllowed {
				allowed = append(allowed, token)
			} else {
				disallowed = append(disallowed, token)
			}
		}
		if len(allowed) == 0 && len(disallowed) == 0 {
			continue
		}
		allowed = suppressNarrowerLabels(allowed)
		disallowed = suppressNarrowerLabels(disallowed)
		sort.Strings(allowed)
		sort.Strings(disallowed)
		proposals = append(proposals, LearnProposal{
			Principals:           allowed,
			DisallowedPrincipals: disallowed,
			Pattern:              pattern,
		})
	}
	return proposals
}

// suppressNarrowerLabels drops a "user/label" token from the list when
// "user" (the any-label form) is also present: the any-label directive
// already covers every label, so the narrower one is redundant.
func suppressNarrowerLabels(tokens []string) []string {
	anyForm := make(map[string]bool)
	for _, t := range tokens {
		if !strings.Contains(t, "/") {
			anyForm[t] = true
		}
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if i := strings.IndexByte(t, '/'); i >= 0 && anyForm[t[:i]] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// markFor reports which Mark a decision outcome contributes to Learn's
// observation set, and whether the outcome is relevant to Learn at
// all. Outcomes that were already fully allowed (including
// allowed-by-group and training-by-group, which a user can't turn
// into a personal directive) need no new directive.
func markFor(outcome string) (Mark, bool) {
	switch outcome {
	case "training":
		return MarkAllowed, true
	case "disallowed":
		return MarkDisallowed, true
	default:
		return "", false
	}
}

// principalToken renders the audit record's acting principal in the
// same textual form a policy-file directive would use: "user",
// "+group", or either suffixed "/label".
func principalToken(rec logrecord.Record) string {
	base := rec.User
	if rec.Group != "" {
		base = "+" + rec.Group
	}
	if rec.Label != "" {
		base += "/" + rec.Label
	}
	return base
}
