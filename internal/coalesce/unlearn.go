package coalesce

import (
	"sort"
	"strings"

	"sshdo/internal/logrecord"
	"sshdo/internal/policy"
)

// UnlearnProposal is one directive line as it should read after
// unlearning: rendered exactly the way Learn renders a directive, so
// every surviving (user, label, pattern) combination appears, not only
// the ones that changed. Action "remove" means nothing in the log ever
// exercised the directive; it renders commented, the way a denied
// principal renders in Learn's output. Action "keep" means the
// directive is still in use, possibly narrowed to the smallest pattern
// that still covers every observed use, and renders uncommented.
type UnlearnProposal struct {
	Action          string // "keep" or "remove"
	Principal       string
	Pattern         string // the pattern to render: narrowed, if narrowing applied
	OriginalPattern string // the on-disk pattern, for context when narrowed
}

// Unlearn replays decision records against the user- and
// negated-user-keyed entries of the policy's authorization tree.
// Group entries are left untouched: usage can't be attributed to one
// user cleanly enough to prune a group grant. Negated-user entries are
// always kept: a deny is never unlearned.
func Unlearn(pol *policy.Policy, records []logrecord.Record) []UnlearnProposal {
	cache := policy.NewCache()
	style := pol.Settings.MatchStyle

	var proposals []UnlearnProposal
	for _, entry := range pol.Tree.Entries() {
		if entry.Principal.Kind == policy.KindGroup {
			continue
		}
		token := policy.FormatPrincipalToken(entry.Principal, entry.Label)
		if entry.Principal.Kind == policy.KindNegUser {
			for _, pattern := range entry.Patterns {
				proposals = append(proposals, UnlearnProposal{
					Action: "keep", Principal: token, Pattern: pattern, OriginalPattern: pattern,
				})
			}
			continue
		}
		observed := commandsFor(records, entry.Principal.Name, entry.Label)

		for _, pattern := range entry.Patterns {
			cp, err := cache.Get(pattern, style)
			if err != nil {
				continue
			}
			var matching []string
			for _, cmd := range observed {
				if cp.Match(cmd) {
					matching = append(matching, cmd)
				}
			}

			if len(matching) == 0 {
				proposals = append(proposals, UnlearnProposal{
					Action: "remove", Principal: token, Pattern: pattern, OriginalPattern: pattern,
				})
				continue
			}

			final := pattern
			if style != policy.StyleExact && strings.ContainsRune(pattern, '#') {
				if narrowed := narrow(token, matching, style); narrowed != "" {
					final = narrowed
				}
			}
			proposals = append(proposals, UnlearnProposal{
				Action: "keep", Principal: token, Pattern: final, OriginalPattern: pattern,
			})
		}
	}

	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].Principal != proposals[j].Principal {
			return proposals[i].Principal < proposals[j].Principal
		}
		return proposals[i].Pattern < proposals[j].Pattern
	})
	return proposals
}

// narrow re-coalesces one principal's observed matches under an
// existing pattern and returns the pattern that results, if a single
// shape still covers all of them.
func narrow(token string, matching []string, style policy.Style) string {
	obs := make(Observations, len(matching))
	for _, cmd := range matching {
		if obs[cmd] == nil {
			obs[cmd] = make(map[string]Mark)
		}
		obs[cmd][token] = MarkAllowed
	}
	coalesced := Coalesce(obs, style, ModeUnlearn)
	if len(coalesced) != 1 {
		return ""
	}
	for pattern := range coalesced {
		return pattern
	}
	return ""
}

// commandsFor collects the commands a user actually ran under label
// (or, for an any-label directive, under any label at all) that were
// granted, or denied when the caller passed disallowed records in
// (--accepting), as evidence the directive is still in use.
func commandsFor(records []logrecord.Record, user string, label policy.Label) []string {
	var out []string
	for _, rec := range records {
		if rec.User != user {
			continue
		}
		if !label.IsAny() && rec.Label != label.String() {
			continue
		}
		switch rec.Type {
		case "allowed", "allowed-by-group", "training", "training-by-group", "disallowed":
			out = append(out, rec.Command)
		}
	}
	return out
}
