package main

import (
	"go.uber.org/zap"

	"sshdo/internal/logrecord"
	"sshdo/internal/policy"
)

const defaultLogfileGlob = "/var/log/auth.log*"

// loadForMining loads the policy named by configPath and streams every
// decision record relevant to it for --learn and --unlearn. cliFiles,
// when non-empty, names the log files to read directly instead of the
// policy's configured logfile globs, or defaultLogfileGlob when the
// policy configures none. A file that fails to open aborts the run
// with that file's error.
func loadForMining(configPath string, cliFiles []string, accepting bool, logger *zap.Logger) (*policy.Policy, []logrecord.Record, error) {
	pol, _, err := policy.Load(configPath, false)
	if err != nil {
		return nil, nil, err
	}

	globs := cliFiles
	if len(globs) == 0 {
		globs = pol.Settings.LogfileGlobs
	}
	if len(globs) == 0 {
		globs = []string{defaultLogfileGlob}
	}
	paths, err := logrecord.ExpandGlobs(globs)
	if err != nil {
		return nil, nil, err
	}

	var records []logrecord.Record
	err = logrecord.StreamPaths(paths, func(path string, lineNo int, rec logrecord.Record) {
		if !logrecord.IsDecisionType(rec.Type) {
			return
		}
		if !recordMatchesConfig(rec, pol.Settings.ConfigPath) {
			return
		}
		if rec.Type == "disallowed" && !accepting {
			return
		}
		records = append(records, rec)
	}, func(path string, err error) error {
		logger.Debug("unreadable log file", zap.String("path", path), zap.Error(err))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return pol, records, nil
}

// recordMatchesConfig reports whether rec was logged against the same
// config path that is currently active. A record's config field is
// only stamped when the path it was produced under differs from
// defaultPolicyPath, so an empty field matches an active path that is
// itself the default.
func recordMatchesConfig(rec logrecord.Record, activeConfigPath string) bool {
	if rec.Config == "" {
		return activeConfigPath == defaultPolicyPath
	}
	return rec.Config == activeConfigPath
}
