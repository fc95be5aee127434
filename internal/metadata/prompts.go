package metadata

import (
	"fmt"
	"strings"
)

// maxTranscriptChars bounds the transcript portion of the prompt so very
// long episodes stay under the model's context window.
const maxTranscriptChars = 100_000

const systemPrompt = `You are a podcast producer writing episode metadata.
Respond with a single JSON object and nothing else. The object must have
exactly these keys:
  "title": a specific, compelling episode title (no episode number prefix)
  "description": 2-4 sentences describing the episode
  "show_notes": markdown show notes with the main topics as bullet points
  "summary": one sentence
  "tags": an array of short topical tag strings
  "chapters": an array of {"start_seconds": number, "title": string} marking
  topic transitions, in ascending order, starting at 0

Base everything strictly on the transcript content. Do not invent guests,
sponsors, or topics that are not present.`

// buildUserPrompt assembles the generation request from the timestamped
// transcript and per-episode settings.
func buildUserPrompt(transcript string, episodeNumber, maxTags int, chapters bool) string {
	var b strings.Builder
	if episodeNumber > 0 {
		fmt.Fprintf(&b, "This is episode %d.\n", episodeNumber)
	}
	fmt.Fprintf(&b, "Produce at most %d tags.\n", maxTags)
	if !chapters {
		b.WriteString("Return an empty chapters array.\n")
	}
	b.WriteString("\nTranscript with [HH:MM:SS] segment timestamps:\n\n")
	b.WriteString(truncateTranscript(transcript, maxTranscriptChars))
	return b.String()
}

func truncateTranscript(transcript string, limit int) string {
	if len(transcript) <= limit {
		return transcript
	}
	cut := transcript[:limit]
	// Break at a line boundary so no segment is half-quoted.
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[transcript truncated]"
}
