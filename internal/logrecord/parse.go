package logrecord

import (
	"regexp"
	"strings"

	"sshdo/internal/audit"
)

const defaultProgname = "sshdo"

// fieldRe matches one name="value" pair, where value may contain
// \", \\ and \xNN escapes but never a bare unescaped quote.
var fieldRe = regexp.MustCompile(`([a-z]+)="((?:[^"\\]|\\.)*)"`)

// isCandidateLine reports whether line looks like it was emitted by
// sshdo's own syslog tag, the way a typical syslog line embeds the
// program name as " progname[pid]:" or " progname:".
func isCandidateLine(line, progname string) bool {
	return strings.Contains(line, " "+progname+"[") || strings.Contains(line, " "+progname+":")
}

// ParseLine extracts an audit Record from one raw log line. It returns
// false if the line does not look like an sshdo record at all, which
// is the common case for ordinary syslog noise interleaved in the same
// file.
func ParseLine(line string) (Record, bool) {
	return ParseLineProgname(line, defaultProgname)
}

func ParseLineProgname(line, progname string) (Record, bool) {
	if !isCandidateLine(line, progname) {
		return Record{}, false
	}

	matches := fieldRe.FindAllStringSubmatch(line, -1)
	if matches == nil {
		return Record{}, false
	}

	var rec Record
	for _, m := range matches {
		value := audit.Unescape(m[2])
		switch m[1] {
		case "type":
			rec.Type = value
		case "user":
			rec.User = value
		case "remoteip":
			rec.RemoteIP = value
		case "label":
			rec.Label = value
		case "command":
			rec.Command = value
		case "group":
			rec.Group = value
		case "config":
			rec.Config = value
		case "message":
			rec.Message = value
		}
	}
	if rec.Type == "" {
		return Record{}, false
	}
	return rec, true
}
