//go:build !nolog && !stdlog
// +build !nolog,!stdlog

package build

// LoggingType uses the backend supplied by the caller.
const LoggingType = LogTypeDefault
