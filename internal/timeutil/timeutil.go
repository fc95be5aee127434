// Package timeutil formats durations for transcripts, chapter markers, and
// status output.
package timeutil

import "fmt"

// Clock renders seconds as HH:MM:SS.
func Clock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ChapterMark renders seconds as MM:SS, or H:MM:SS past the first hour,
// the form YouTube recognizes for chapter markers in descriptions.
func ChapterMark(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
