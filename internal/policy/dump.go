package policy

import "sort"

// SnapshotEntry is one authorization-tree entry rendered for
// diagnostic dump output.
type SnapshotEntry struct {
	Principal string   `toml:"principal"`
	Label     string   `toml:"label"`
	Patterns  []string `toml:"patterns"`
}

// SnapshotTraining mirrors Training for dump output.
type SnapshotTraining struct {
	Global  bool     `toml:"global"`
	Entries []string `toml:"entries,omitempty"`
}

// Snapshot is a flattened, TOML-encodable view of a loaded Policy,
// used by "sshdo --dump" so an administrator can see exactly what a
// policy-file-plus-drop-ins chain resolved to, independent of the
// directive grammar itself (which is not TOML).
type Snapshot struct {
	MatchStyle     string           `toml:"match_style"`
	SyslogFacility string           `toml:"syslog_facility"`
	BannerPath     string           `toml:"banner_path,omitempty"`
	LogfileGlobs   []string         `toml:"logfile_globs,omitempty"`
	Authorizations []SnapshotEntry  `toml:"authorizations"`
	Training       SnapshotTraining `toml:"training"`
}

func (p *Policy) Snapshot() Snapshot {
	entries := make([]SnapshotEntry, 0, len(p.Tree.entries))
	for _, e := range p.Tree.Entries() {
		entries = append(entries, SnapshotEntry{
			Principal: e.Principal.String(),
			Label:     e.Label.String(),
			Patterns:  e.Patterns,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Principal != entries[j].Principal {
			return entries[i].Principal < entries[j].Principal
		}
		return entries[i].Label < entries[j].Label
	})

	var trainingEntries []string
	for key := range p.Training.entries {
		trainingEntries = append(trainingEntries, FormatPrincipalToken(key.Principal, key.Label))
	}
	sort.Strings(trainingEntries)

	return Snapshot{
		MatchStyle:     string(p.Settings.MatchStyle),
		SyslogFacility: p.Settings.SyslogFacility,
		BannerPath:     p.Settings.BannerPath,
		LogfileGlobs:   p.Settings.LogfileGlobs,
		Authorizations: entries,
		Training: SnapshotTraining{
			Global:  p.Training.Global,
			Entries: trainingEntries,
		},
	}
}
