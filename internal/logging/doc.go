// Package logging builds the slog loggers used across podflow and defines the
// standardized structured field names. Console output targets interactive
// runs; JSON output targets log files and non-tty environments. Loggers are
// constructed once in the CLI and threaded explicitly into the pipeline and
// clients.
package logging
