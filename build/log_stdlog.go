//go:build stdlog && !nolog
// +build stdlog,!nolog

package build

// LoggingType writes every subsystem straight to stdout.
const LoggingType = LogTypeStdOut
