package audit

import "errors"

var ErrUnknownFacility = errors.New("audit: unknown syslog facility")
