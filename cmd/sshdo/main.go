// Command sshdo is the forced-command gatekeeper for an SSH public key:
// installed as the "command=" in authorized_keys, it decides whether
// the shell command the client asked to run is allowed for the
// authenticated account, logs that decision, and, if permitted, execs
// the account's shell in its own place. Run directly by an
// administrator (not by sshd), it also offers --check, --learn and
// --unlearn.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"sshdo/internal/audit"
	"sshdo/internal/coalesce"
	"sshdo/internal/policy"
	"sshdo/pkg/pathutil"
)

const (
	ExitOK          = 0
	ExitDisallowed  = 1
	ExitUsageError  = 1
	ExitConfigError = 1
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultPolicyPath = "/etc/sshdoers"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("sshdo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configDefault := defaultPolicyPath
	if env := os.Getenv("SSHDO_CONFIG"); env != "" {
		configDefault = env
	}

	var (
		showHelp    bool
		showVersion bool
		configPath  string
		checkMode   bool
		learnMode   bool
		unlearnMode bool
		accepting   bool
		debug       bool
		dumpMode    bool
	)
	fs.BoolVar(&showHelp, "help", false, "show usage")
	fs.BoolVar(&showHelp, "h", false, "show usage (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&showVersion, "V", false, "print version and exit (shorthand)")
	fs.StringVar(&configPath, "config", configDefault, "path to the main policy file (env SSHDO_CONFIG)")
	fs.StringVar(&configPath, "C", configDefault, "path to the main policy file (shorthand)")
	fs.BoolVar(&checkMode, "check", false, "validate the policy file and report issues")
	fs.BoolVar(&checkMode, "c", false, "validate the policy file and report issues (shorthand)")
	fs.BoolVar(&learnMode, "learn", false, "propose new directives from the audit log")
	fs.BoolVar(&learnMode, "l", false, "propose new directives from the audit log (shorthand)")
	fs.BoolVar(&unlearnMode, "unlearn", false, "propose directive removals from the audit log")
	fs.BoolVar(&unlearnMode, "u", false, "propose directive removals from the audit log (shorthand)")
	fs.BoolVar(&accepting, "accepting", false, "also fold denied attempts into learn/unlearn evidence")
	fs.BoolVar(&accepting, "a", false, "also fold denied attempts into learn/unlearn evidence (shorthand)")
	fs.BoolVar(&debug, "debug", os.Getenv("SSHDO_DEBUG") == "1", "enable structured operational tracing to stderr")
	fs.BoolVar(&dumpMode, "dump", false, "print the resolved policy as TOML and exit")

	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}
	configPath = pathutil.ExpandHomeEnv(configPath)

	if showHelp {
		fs.Usage()
		return ExitOK
	}
	if showVersion {
		fmt.Fprintf(stdout, "sshdo %s (commit %s, built %s)\n", version, commit, date)
		return ExitOK
	}

	modeCount := 0
	for _, b := range []bool{checkMode, learnMode, unlearnMode, dumpMode} {
		if b {
			modeCount++
		}
	}
	if modeCount > 1 {
		fmt.Fprintln(stderr, "sshdo: --check, --learn, --unlearn and --dump are mutually exclusive")
		return ExitUsageError
	}
	if accepting && !learnMode && !unlearnMode {
		fmt.Fprintln(stderr, "sshdo: --accepting requires --learn or --unlearn")
		return ExitUsageError
	}

	logger := buildLogger(debug, stderr)
	defer logger.Sync()

	switch {
	case dumpMode:
		return runDump(configPath, stdout, stderr)
	case checkMode:
		return runCheck(configPath, stdout, stderr)
	case learnMode:
		return runLearn(configPath, fs.Args(), accepting, stdout, stderr, logger)
	case unlearnMode:
		return runUnlearn(configPath, fs.Args(), accepting, stdout, stderr, logger)
	default:
		return runForcedCommand(configPath, fs.Args(), stderr, logger)
	}
}

func buildLogger(debug bool, stderr *os.File) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runCheck(configPath string, stdout, stderr *os.File) int {
	_, issues, err := policy.Load(configPath, true)
	if err != nil {
		fmt.Fprintf(stderr, "sshdo: %v\n", err)
		return ExitConfigError
	}
	for _, issue := range issues {
		fmt.Fprintln(stdout, issue.String())
	}
	return min(len(issues), 255)
}

func runDump(configPath string, stdout, stderr *os.File) int {
	pol, _, err := policy.Load(configPath, false)
	if err != nil {
		fmt.Fprintf(stderr, "sshdo: %v\n", err)
		return ExitConfigError
	}
	if err := toml.NewEncoder(stdout).Encode(pol.Snapshot()); err != nil {
		fmt.Fprintf(stderr, "sshdo: %v\n", err)
		return ExitConfigError
	}
	return ExitOK
}

func runLearn(configPath string, files []string, accepting bool, stdout, stderr *os.File, logger *zap.Logger) int {
	pol, records, err := loadForMining(configPath, files, accepting, logger)
	if err != nil {
		fmt.Fprintf(stderr, "sshdo: %v\n", err)
		return ExitConfigError
	}
	for _, p := range coalesce.Learn(pol, records) {
		if len(p.Principals) > 0 {
			fmt.Fprintf(stdout, "%s: %s\n", joinPrincipals(p.Principals), p.Pattern)
		}
		if len(p.DisallowedPrincipals) > 0 {
			fmt.Fprintf(stdout, "# %s: %s\n", joinPrincipals(p.DisallowedPrincipals), p.Pattern)
		}
	}
	return ExitOK
}

func runUnlearn(configPath string, files []string, accepting bool, stdout, stderr *os.File, logger *zap.Logger) int {
	pol, records, err := loadForMining(configPath, files, accepting, logger)
	if err != nil {
		fmt.Fprintf(stderr, "sshdo: %v\n", err)
		return ExitConfigError
	}
	for _, p := range coalesce.Unlearn(pol, records) {
		switch p.Action {
		case "remove":
			fmt.Fprintf(stdout, "# %s: %s\n", p.Principal, p.Pattern)
		case "keep":
			fmt.Fprintf(stdout, "%s: %s\n", p.Principal, p.Pattern)
		}
	}
	return ExitOK
}

func runForcedCommand(configPath string, cliArgs []string, stderr *os.File, logger *zap.Logger) int {
	pol, issues, err := policy.Load(configPath, false)
	if err != nil {
		emitConfigError(pol, err.Error())
		pol = &policy.Policy{Tree: policy.NewTree(), Training: policy.NewTraining(), Settings: policy.DefaultSettings()}
		pol.Settings.ConfigPath = configPath
	}
	for _, issue := range issues {
		emitConfigError(pol, issue.String())
	}

	u, err := user.Current()
	if err != nil {
		fmt.Fprintln(stderr, "sshdo: cannot determine invoking user")
		return ExitConfigError
	}
	if name := os.Getenv("USER"); name != "" {
		u.Username = name
	}

	label := ""
	if len(cliArgs) > 0 {
		label = normalizeLabel(cliArgs[0])
	}

	command := os.Getenv("SSH_ORIGINAL_COMMAND")
	if command == "" {
		command = interactiveMarker
	}

	engine := policy.NewEngine(pol, policy.OSGroups{})
	decision, err := engine.Decide(u.Username, policy.NewLabel(label), command)
	if err != nil {
		fmt.Fprintln(stderr, "sshdo: policy evaluation failed:", err)
		return ExitConfigError
	}

	emitDecision(pol, u.Username, label, command, remoteIP(), decision)
	logger.Debug("decision", zap.String("user", u.Username), zap.String("label", label),
		zap.String("command", command), zap.String("outcome", decision.Outcome.String()))

	if !decision.Permits() {
		showBanner(pol, stderr)
		return ExitDisallowed
	}

	if err := execShell(u, command); err != nil {
		fmt.Fprintln(stderr, "sshdo: exec failed:", err)
		return ExitConfigError
	}
	return ExitOK
}

func showBanner(pol *policy.Policy, stderr *os.File) {
	if pol.Settings.BannerPath == "" {
		return
	}
	data, err := os.ReadFile(pol.Settings.BannerPath)
	if err != nil {
		emitConfigError(pol, "banner: "+err.Error())
		return
	}
	stderr.Write(data)
}

func emitDecision(pol *policy.Policy, username, label, command, remoteIP string, d policy.Decision) {
	emitter, err := audit.NewSyslogEmitter(pol.Settings.SyslogFacility, "sshdo")
	if err != nil {
		return
	}
	defer emitter.Close()
	emitter.Emit(audit.Event{
		Type:     d.Outcome.String(),
		User:     username,
		RemoteIP: remoteIP,
		Label:    label,
		Command:  command,
		Group:    d.Group,
		Config:   configFieldFor(pol),
	})
}

func emitConfigError(pol *policy.Policy, message string) {
	facility := "auth"
	if pol != nil {
		facility = pol.Settings.SyslogFacility
	}
	emitter, err := audit.NewSyslogEmitter(facility, "sshdo")
	if err != nil {
		return
	}
	defer emitter.Close()
	emitter.Emit(audit.Event{Type: "configerror", Message: message, Config: configFieldFor(pol)})
}

// configFieldFor returns the audit record's "config" field: empty when
// the policy was loaded from the default path, the active path
// otherwise, so a record only names a config file when it matters for
// distinguishing which policy produced it.
func configFieldFor(pol *policy.Policy) string {
	if pol == nil || pol.Settings.ConfigPath == defaultPolicyPath {
		return ""
	}
	return pol.Settings.ConfigPath
}

// normalizeLabel rewrites whitespace and colons to "_": a label flows
// into the "label" audit field and into principal-token parsing, both
// of which use whitespace and ":" as delimiters.
func normalizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ':' {
			return '_'
		}
		return r
	}, label)
}

// remoteIP reads the client address out of SSH_CLIENT ("addr port
// port"), the environment variable sshd sets for a forced command.
func remoteIP() string {
	v := os.Getenv("SSH_CLIENT")
	if v == "" {
		return ""
	}
	if i := strings.IndexByte(v, ' '); i >= 0 {
		return v[:i]
	}
	return v
}

func joinPrincipals(principals []string) string {
	out := ""
	for i, p := range principals {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
