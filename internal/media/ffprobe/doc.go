// Package ffprobe wraps the ffprobe binary to inspect media containers and
// exposes typed accessors over the parsed JSON report.
package ffprobe
