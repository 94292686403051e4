// Package tts speaks text through the OpenAI speech API and the local
// ALSA playback device.
package tts

import (
	"context"
	"io"
	"log"
	"os/exec"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const speechTimeout = 30 * time.Second

// Speaker synthesizes speech with the OpenAI API and plays it with
// aplay. Speak is fire-and-forget: the kiosk never blocks on playback
// and failures only show up in the log.
type Speaker struct {
	client *openai.Client
	voice  string
}

func NewSpeaker(token, voice string) *Speaker {
	client := openai.NewClient(option.WithAPIKey(token))
	return &Speaker{
		client: &client,
		voice:  voice,
	}
}

// Speak synthesizes and plays text in the background.
func (s *Speaker) Speak(text string) {
	if text == "" {
		return
	}
	go func() {
		if err := s.speak(text); err != nil {
			log.Printf("Warning: speech playback failed: %v", err)
		}
	}()
}

func (s *Speaker) speak(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), speechTimeout)
	defer cancel()

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return play(ctx, resp.Body)
}

// play pipes a WAV stream into aplay.
func play(ctx context.Context, audio io.Reader) error {
	cmd := exec.CommandContext(ctx, "aplay", "-q")
	cmd.Stdin = audio
	return cmd.Run()
}
