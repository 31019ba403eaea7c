package policy

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sshdo/pkg/pathutil"
)

var lowerCaser = cases.Lower(language.Und)

// loadState accumulates one Load call's in-progress policy plus every
// Issue found along the way.
type loadState struct {
	tree      *Tree
	training  *Training
	settings  Settings
	seen      map[string]bool
	issues    []Issue
	checkMode bool
}

// Load reads the main policy file and every file in its sibling
// "<mainPath>.d" drop-in directory (sorted, dotfiles skipped), and
// returns the merged policy plus any issues found. checkMode enables
// the more expensive checks (principal existence, clash detection,
// banner/logfile reachability, advisory shell-syntax lint) that the
// forced-command hot path skips.
func Load(mainPath string, checkMode bool) (*Policy, []Issue, error) {
	st := &loadState{
		tree:      NewTree(),
		training:  NewTraining(),
		settings:  DefaultSettings(),
		seen:      make(map[string]bool),
		checkMode: checkMode,
	}

	st.settings.ConfigPath = mainPath

	data, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, mainPath, err)
	}
	st.processLines(mainPath, string(data), true)

	dropinDir := mainPath + ".d"
	if entries, err := os.ReadDir(dropinDir); err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(dropinDir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				st.issues = append(st.issues, Issue{File: path, Kind: IssueUnreadableFile, Message: err.Error()})
				continue
			}
			st.processLines(path, string(data), false)
		}
	}

	if st.checkMode {
		st.checkClashes()
		st.checkFilesystem()
	}

	return &Policy{Tree: st.tree, Training: st.training, Settings: st.settings}, st.issues, nil
}

func (st *loadState) processLines(file, contents string, isMain bool) {
	for i, raw := range strings.Split(contents, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := st.processLine(file, lineNo, line, isMain); err != nil {
			st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueParseError, Message: err.Error()})
		}
	}
}

func (st *loadState) processLine(file string, lineNo int, line string, isMain bool) error {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	var keyword, rest string
	if idx < 0 {
		keyword = line
	} else {
		keyword = line[:idx]
		rest = strings.TrimSpace(line[idx:])
	}

	switch lowerCaser.String(keyword) {
	case "training":
		return st.directiveTraining(file, lineNo, rest, isMain)
	case "match":
		return st.directiveMatch(file, lineNo, rest, isMain)
	case "syslog":
		return st.directiveSyslog(file, lineNo, rest, isMain)
	case "banner":
		return st.directiveBanner(file, lineNo, rest, isMain)
	case "logfiles":
		return st.directiveLogfiles(file, lineNo, rest, isMain)
	}

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueUnknownDirective, Message: keyword})
		return nil
	}
	return st.directiveAuth(file, lineNo, line[:colon], line[colon+1:])
}

func (st *loadState) directiveTraining(file string, lineNo int, rest string, isMain bool) error {
	if rest == "" {
		if !isMain {
			st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueMainFileOnly,
				Message: "global training directive only valid in main file"})
			return nil
		}
		st.training.Global = true
		return nil
	}
	for _, tok := range strings.Fields(rest) {
		p, label, err := ParsePrincipalToken(tok)
		if err != nil {
			return err
		}
		st.training.Add(p, label)
	}
	return nil
}

func (st *loadState) directiveMatch(file string, lineNo int, rest string, isMain bool) error {
	if !isMain {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueMainFileOnly,
			Message: "match directive only valid in main file"})
		return nil
	}
	if st.seen["match"] {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueRepeatedSetting, Message: "match"})
	}
	st.seen["match"] = true

	style := Style(lowerCaser.String(rest))
	if !style.Valid() {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueInvalidMatchStyle, Message: rest})
		return nil
	}
	st.settings.MatchStyle = style
	return nil
}

func (st *loadState) directiveSyslog(file string, lineNo int, rest string, isMain bool) error {
	if !isMain {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueMainFileOnly,
			Message: "syslog directive only valid in main file"})
		return nil
	}
	if st.seen["syslog"] {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueRepeatedSetting, Message: "syslog"})
	}
	st.seen["syslog"] = true

	facility := lowerCaser.String(rest)
	if !ValidFacilities[facility] {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueInvalidFacility, Message: rest})
		return nil
	}
	st.settings.SyslogFacility = facility
	return nil
}

func (st *loadState) directiveBanner(file string, lineNo int, rest string, isMain bool) error {
	if !isMain {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueMainFileOnly,
			Message: "banner directive only valid in main file"})
		return nil
	}
	if st.seen["banner"] {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueRepeatedSetting, Message: "banner"})
	}
	st.seen["banner"] = true
	st.settings.BannerPath = pathutil.ExpandHomeEnv(rest)
	return nil
}

func (st *loadState) directiveLogfiles(file string, lineNo int, rest string, isMain bool) error {
	if !isMain {
		st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueMainFileOnly,
			Message: "logfiles directive only valid in main file"})
		return nil
	}
	for _, glob := range strings.Fields(rest) {
		st.settings.LogfileGlobs = append(st.settings.LogfileGlobs, pathutil.ExpandHomeEnv(glob))
	}
	return nil
}

func (st *loadState) directiveAuth(file string, lineNo int, principalPart, commandPart string) error {
	commandPart = strings.TrimSpace(commandPart)
	cmdText, err := parseCommandText(commandPart)
	if err != nil {
		return err
	}

	toks := strings.Fields(principalPart)
	if len(toks) == 0 {
		return fmt.Errorf("%w: directive has no principal", ErrInvalidPattern)
	}

	if st.checkMode && cmdText != interactiveMarker && !strings.HasPrefix(commandPart, binaryPrefix) {
		if msg := lintShellSyntax(cmdText); msg != "" {
			st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueLintAdvisory, Message: msg})
		}
	}

	for _, tok := range toks {
		p, label, err := ParsePrincipalToken(tok)
		if err != nil {
			return err
		}
		if st.checkMode {
			st.checkPrincipalExists(file, lineNo, p)
		}
		st.tree.Add(p, label, cmdText)
	}
	return nil
}

func (st *loadState) checkPrincipalExists(file string, lineNo int, p Principal) {
	switch p.Kind {
	case KindUser, KindNegUser:
		if _, err := user.Lookup(p.Name); err != nil {
			st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueUnknownUser, Message: p.Name})
		}
	case KindGroup:
		if _, err := user.LookupGroup(p.Name); err != nil {
			st.issues = append(st.issues, Issue{File: file, Line: lineNo, Kind: IssueUnknownGroup, Message: p.Name})
		}
	}
}

// labelsOverlap reports whether two label keys can ever refer to the
// same invocation, accounting for the "any label" wildcard on either
// side.
func labelsOverlap(a, b Label) bool {
	return a.IsAny() || b.IsAny() || a == b
}

func (st *loadState) checkClashes() {
	for key, set := range st.tree.entries {
		if key.Principal.Kind != KindUser {
			continue
		}
		for negKey, negSet := range st.tree.entries {
			if negKey.Principal.Kind != KindNegUser || negKey.Principal.Name != key.Principal.Name {
				continue
			}
			if !labelsOverlap(key.Label, negKey.Label) {
				continue
			}
			for _, cmd := range set.Patterns {
				for _, negCmd := range negSet.Patterns {
					if cmd == negCmd {
						st.issues = append(st.issues, Issue{Kind: IssueClashAuth, Message: fmt.Sprintf(
							"%s and %s both name %q under label %s", key.Principal, negKey.Principal, cmd, key.Label)})
					}
				}
			}
		}
	}
	for key := range st.training.entries {
		if key.Principal.Kind != KindUser {
			continue
		}
		for negKey := range st.training.entries {
			if negKey.Principal.Kind != KindNegUser || negKey.Principal.Name != key.Principal.Name {
				continue
			}
			if !labelsOverlap(key.Label, negKey.Label) {
				continue
			}
			st.issues = append(st.issues, Issue{Kind: IssueClashTraining, Message: fmt.Sprintf(
				"%s and %s both carry training under label %s", key.Principal, negKey.Principal, key.Label)})
		}
	}
}

func (st *loadState) checkFilesystem() {
	if st.settings.BannerPath != "" {
		if _, err := os.Stat(st.settings.BannerPath); err != nil {
			st.issues = append(st.issues, Issue{Kind: IssueMissingBanner, Message: st.settings.BannerPath})
		}
	}
	if len(st.settings.LogfileGlobs) > 0 {
		found := false
		for _, g := range st.settings.LogfileGlobs {
			if matches, err := doublestar.FilepathGlob(g); err == nil && len(matches) > 0 {
				found = true
				break
			}
		}
		if !found {
			st.issues = append(st.issues, Issue{Kind: IssueMissingLogfiles, Message: strings.Join(st.settings.LogfileGlobs, " ")})
		}
	}
}
