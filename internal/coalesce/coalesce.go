package coalesce

import (
	"sort"

	"sshdo/internal/policy"
)

// entry is one working pattern as the fold progresses: its current
// segment shape (narrowed by every command merged into it so far) and
// the principal marks accumulated across those commands.
type entry struct {
	segs       []segment
	principals map[string]Mark
}

// Coalesce folds obs into the smallest set of command patterns that
// still covers every observation, under the given match style and
// mode. Commands are processed in sorted order for determinism; a new
// command is merged into every existing entry whose shape it matches,
// not just the first. Merging never changes an entry's shape and a
// command only starts a new entry when no existing one shares its
// shape, so in practice at most one entry matches.
//
// Under StyleExact the coalescer is the identity: there is no digit
// class to generalize over, so every observed command is its own
// pattern.
func Coalesce(obs Observations, style policy.Style, mode Mode) Observations {
	if style == policy.StyleExact {
		return obs
	}

	cmds := make([]string, 0, len(obs))
	for cmd := range obs {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)

	var working []*entry
	for _, cmd := range cmds {
		segs := segmentCommand(cmd, style)
		matchedAny := false
		for _, w := range working {
			if !similar(w.segs, segs) {
				continue
			}
			matchedAny = true
			mergeInto(w.segs, segs)
			mergePrincipals(w.principals, obs[cmd], mode)
		}
		if !matchedAny {
			working = append(working, &entry{segs: segs, principals: clonePrincipals(obs[cmd])})
		}
	}

	out := make(Observations, len(working))
	for _, w := range working {
		out[render(w.segs)] = w.principals
	}
	return out
}

func mergePrincipals(target map[string]Mark, incoming map[string]Mark, mode Mode) {
	for principal, mark := range incoming {
		if existing, ok := target[principal]; ok {
			target[principal] = mergeMark(mode, existing, mark)
		} else {
			target[principal] = mark
		}
	}
}

func clonePrincipals(src map[string]Mark) map[string]Mark {
	out := make(map[string]Mark, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
