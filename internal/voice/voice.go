// Package voice listens to a continuous transcript stream, detects the
// wake word, and routes the spoken remainder as a command.
package voice

import (
	"context"
	"strings"
)

// StreamEvent is one transcript update from the speech recognizer.
type StreamEvent struct {
	Text  string
	Final bool
}

// TranscriptStream is the speech-to-text collaborator. Start returns a
// channel that delivers events until the stream terminates, at which
// point the channel closes. Starting an already-active stream must be a
// no-op error: the underlying engine may emit a termination event while a
// restart is already pending.
type TranscriptStream interface {
	Start(ctx context.Context) (<-chan StreamEvent, error)
	Stop()
}

// Speaker is the text-to-speech collaborator. Speak is fire-and-forget:
// playback completion is never awaited.
type Speaker interface {
	Speak(text string)
}

// CommandRouter receives the stripped command text and returns the spoken
// reply for it.
type CommandRouter interface {
	Route(ctx context.Context, command string) string
}

// StripWakeWord removes every case-insensitive occurrence of the wake
// word from the transcript and trims the remainder.
func StripWakeWord(transcript, wakeWord string) string {
	if wakeWord == "" {
		return strings.TrimSpace(transcript)
	}

	lower := strings.ToLower(transcript)
	token := strings.ToLower(wakeWord)

	var b strings.Builder
	for {
		i := strings.Index(lower, token)
		if i < 0 {
			b.WriteString(transcript)
			break
		}
		b.WriteString(transcript[:i])
		transcript = transcript[i+len(token):]
		lower = lower[i+len(token):]
	}
	return strings.TrimSpace(b.String())
}

// containsWakeWord is a case-insensitive substring test, not a fuzzy match.
func containsWakeWord(transcript, wakeWord string) bool {
	return wakeWord != "" && strings.Contains(strings.ToLower(transcript), strings.ToLower(wakeWord))
}
