// Package chat turns free-form spoken commands into replies: hardware
// commands fire a home-automation webhook, everything else goes to the
// language model under the assistant persona.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sakhi-assistant/sakhi/internal/config"
)

// Responder is the language-model collaborator.
type Responder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LightTrigger fires the toggle_light home-automation event.
type LightTrigger interface {
	Trigger(command string)
}

// Assistant answers spoken commands. Light commands short-circuit to
// the webhook; the model is never consulted for them.
type Assistant struct {
	model   Responder
	light   LightTrigger
	phrases config.PhrasesConfig
}

func NewAssistant(model Responder, light LightTrigger, phrases config.PhrasesConfig) *Assistant {
	return &Assistant{
		model:   model,
		light:   light,
		phrases: phrases,
	}
}

// Reply produces the spoken answer for a command. It always returns
// something sayable: model failures fall back to the apology phrase.
func (a *Assistant) Reply(ctx context.Context, command string) string {
	if state := DetectLightCommand(command); state != "" {
		a.light.Trigger(state)
		if reply, ok := a.phrases.LightReplies[state]; ok {
			return reply
		}
		return ""
	}

	prompt := fmt.Sprintf(a.phrases.PersonaPrompt, command)
	reply, err := a.model.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Chat model error: %v", err)
		return a.phrases.ChatApology
	}
	return reply
}

// DetectLightCommand classifies a command as a light toggle. Returns
// "ON", "OFF", or the empty string when the command is not about the
// light at all.
func DetectLightCommand(command string) string {
	lower := strings.ToLower(command)
	if !strings.Contains(lower, "light") {
		return ""
	}
	switch {
	case strings.Contains(lower, "turn on"), strings.Contains(lower, "switch on"):
		return "ON"
	case strings.Contains(lower, "turn off"), strings.Contains(lower, "switch off"):
		return "OFF"
	}
	return ""
}
