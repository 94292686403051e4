package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/chat"
	"github.com/sakhi-assistant/sakhi/internal/config"
	"github.com/sakhi-assistant/sakhi/internal/descriptor"
	"github.com/sakhi-assistant/sakhi/internal/embedder"
	"github.com/sakhi-assistant/sakhi/internal/modes"
	"github.com/sakhi-assistant/sakhi/internal/recognize"
	"github.com/sakhi-assistant/sakhi/internal/store"
	"github.com/sakhi-assistant/sakhi/internal/tts"
	"github.com/sakhi-assistant/sakhi/internal/voice"
	"github.com/sakhi-assistant/sakhi/internal/web"
	"github.com/sakhi-assistant/sakhi/internal/webhook"
)

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Run the full assistant kiosk",
	Long: `Run the complete Sakhi kiosk: the wake-word voice loop, the
camera-bound face recognition modes, and the HTTP API, all in one
process. This is the command the device boots into.`,
	RunE: runKiosk,
}

func init() {
	rootCmd.AddCommand(kioskCmd)

	kioskCmd.Flags().Int("port", 8080, "Port for the kiosk API")
	kioskCmd.Flags().String("host", "0.0.0.0", "Host to bind the kiosk API to")
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Speech.URL == "" {
		return errors.New("SPEECH_WS_URL environment variable is required")
	}
	if cfg.Gemini.APIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := store.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()
	repo := store.NewIdentityRepository(pool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := capture.NewManager()

	// The microphone runs for the whole kiosk lifetime; the camera comes
	// and goes with the recognition modes.
	mic := capture.NewMicrophone(cfg.Capture.MicDevice, cfg.Speech.SampleRate)
	micSession, err := sessions.Start(ctx, mic)
	if err != nil {
		return fmt.Errorf("opening microphone: %w", err)
	}
	defer sessions.Stop(micSession)

	speaker := tts.NewSpeaker(cfg.OpenAI.Token, cfg.OpenAI.Voice)
	embed := embedder.NewClient(cfg.Embedding.URL)
	camera := capture.NewCamera(cfg.Capture.CameraDevice)

	watch := modes.NewFaceWatch(sessions, camera,
		func(frames recognize.FrameSource) *recognize.Scheduler {
			return recognize.NewScheduler(repo, frames, embed, recognize.DefaultPeriod)
		},
		announceRecognition(speaker),
	)
	defer watch.Stop()

	gemini, err := chat.NewGemini(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	light := webhook.NewClient(cfg.Webhook.IFTTTKey)
	assistant := chat.NewAssistant(gemini, light, cfg.Phrases)
	router := modes.NewRouter(watch, assistant, cfg.Phrases)

	// The kiosk UI's start button drives the recognition loop through
	// the API; mode switches only change the screen.
	host, port := resolveServeHostPort(cmd)
	server := web.NewServer(host, port, repo, router.Route, watch)
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Kiosk API server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	stream := voice.NewWSStream(cfg.Speech, func() io.Reader { return mic.Reader() })
	dispatcher := voice.NewDispatcher(stream, router, speaker, cfg.Phrases.WakeWord, voice.DefaultCooldown)

	fmt.Printf("Sakhi is listening for '%s'. Press Ctrl+C to stop.\n", cfg.Phrases.WakeWord)
	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("voice loop: %w", err)
	}
	return nil
}

// announceRecognition greets a person once per appearance: only when
// the recognized label changes and is not unknown.
func announceRecognition(speaker *tts.Speaker) func(recognize.Result) {
	var lastLabel string
	return func(r recognize.Result) {
		if r.Label == lastLabel {
			return
		}
		lastLabel = r.Label
		if r.Label == descriptor.UnknownLabel {
			return
		}
		log.Printf("Recognized %s (distance %.3f)", r.Label, r.Distance)
		speaker.Speak(fmt.Sprintf("Hello, %s!", r.Label))
	}
}
