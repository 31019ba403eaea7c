package audit

import (
	"log/syslog"
)

// Emitter delivers a rendered audit line. SyslogEmitter is its only
// implementation in this module.
type Emitter interface {
	Emit(e Event) error
	Close() error
}

// SyslogEmitter delivers to the local syslog daemon on the facility
// named by the policy's "syslog" setting. log/syslog is the only
// syslog client anywhere in the retrieval pack or the standard
// library; there is no third-party alternative to reach for here.
type SyslogEmitter struct {
	w *syslog.Writer
}

func NewSyslogEmitter(facility, tag string) (*SyslogEmitter, error) {
	f, err := parseFacility(facility)
	if err != nil {
		return nil, err
	}
	w, err := syslog.New(f|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, err
	}
	return &SyslogEmitter{w: w}, nil
}

func (s *SyslogEmitter) Emit(e Event) error {
	line := e.Render()
	if e.IsError() {
		return s.w.Err(line)
	}
	return s.w.Info(line)
}

func (s *SyslogEmitter) Close() error {
	return s.w.Close()
}

func parseFacility(name string) (syslog.Priority, error) {
	switch name {
	case "auth":
		return syslog.LOG_AUTH, nil
	case "authpriv":
		return syslog.LOG_AUTHPRIV, nil
	case "daemon":
		return syslog.LOG_DAEMON, nil
	case "user":
		return syslog.LOG_USER, nil
	case "local0":
		return syslog.LOG_LOCAL0, nil
	case "local1":
		return syslog.LOG_LOCAL1, nil
	case "local2":
		return syslog.LOG_LOCAL2, nil
	case "local3":
		return syslog.LOG_LOCAL3, nil
	case "local4":
		return syslog.LOG_LOCAL4, nil
	case "local5":
		return syslog.LOG_LOCAL5, nil
	case "local6":
		return syslog.LOG_LOCAL6, nil
	case "local7":
		return syslog.LOG_LOCAL7, nil
	default:
		return 0, ErrUnknownFacility
	}
}
