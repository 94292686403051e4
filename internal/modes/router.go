// Package modes holds the kiosk's top-level mode machine and routes
// spoken commands to mode switches or the chat assistant.
package modes

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/sakhi-assistant/sakhi/internal/config"
)

// Mode is the kiosk's current screen.
type Mode int32

const (
	ModeHome Mode = iota
	ModeAlzheimer
	ModeBlind
)

func (m Mode) String() string {
	switch m {
	case ModeAlzheimer:
		return "alzheimer"
	case ModeBlind:
		return "blind"
	default:
		return "home"
	}
}

// Recognition controls the camera-bound face recognition loop. Start is
// a no-op when the loop is already running; Stop when it is not.
type Recognition interface {
	Start(ctx context.Context) error
	Stop()
}

// Chatter answers free-form commands.
type Chatter interface {
	Reply(ctx context.Context, command string) string
}

// Router maps stripped, lowercased commands to mode transitions. Mode
// keywords take precedence over chat: a command naming a mode never
// reaches the assistant. Entering a mode only switches the screen; the
// recognition loop is started by its explicit trigger, never by a mode
// switch. Leaving AlzheimerMode tears the loop down unconditionally.
type Router struct {
	recognition Recognition
	chatter     Chatter
	phrases     config.PhrasesConfig

	mode atomic.Int32
}

func NewRouter(recognition Recognition, chatter Chatter, phrases config.PhrasesConfig) *Router {
	return &Router{
		recognition: recognition,
		chatter:     chatter,
		phrases:     phrases,
	}
}

// Mode returns the current mode.
func (r *Router) Mode() Mode {
	return Mode(r.mode.Load())
}

// Route handles one spoken command and returns the spoken reply.
func (r *Router) Route(ctx context.Context, command string) string {
	cmd := strings.ToLower(command)

	switch {
	// "alzhiemer" covers a transcription the recognizer produces often
	// enough to matter.
	case strings.Contains(cmd, "alzheimer mode"), strings.Contains(cmd, "alzhiemer mode"):
		r.mode.Store(int32(ModeAlzheimer))
		return r.phrases.Acknowledgments["alzheimer_mode"]
	case strings.Contains(cmd, "blind mode"):
		r.recognition.Stop()
		r.mode.Store(int32(ModeBlind))
		return r.phrases.Acknowledgments["blind_mode"]
	case strings.Contains(cmd, "go home"):
		r.recognition.Stop()
		r.mode.Store(int32(ModeHome))
		return r.phrases.Acknowledgments["go_home"]
	default:
		return r.chatter.Reply(ctx, cmd)
	}
}
