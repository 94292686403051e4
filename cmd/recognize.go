package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/config"
	"github.com/sakhi-assistant/sakhi/internal/embedder"
	"github.com/sakhi-assistant/sakhi/internal/recognize"
	"github.com/sakhi-assistant/sakhi/internal/store"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the face recognition loop in the foreground",
	Long: `Run the camera recognition loop and print every result until
interrupted. Useful for checking enrollment quality and camera placement.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Int("interval", 200, "Milliseconds between recognition attempts")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := store.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()
	repo := store.NewIdentityRepository(pool)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := capture.NewManager()
	camera := capture.NewCamera(cfg.Capture.CameraDevice)
	session, err := sessions.Start(ctx, camera)
	if err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			return fmt.Errorf("camera %s is unavailable: %w", cfg.Capture.CameraDevice, err)
		}
		return err
	}
	defer sessions.Stop(session)

	embed := embedder.NewClient(cfg.Embedding.URL)
	period := time.Duration(mustGetInt(cmd, "interval")) * time.Millisecond
	scheduler := recognize.NewScheduler(repo, camera, embed, period)

	if err := scheduler.Start(session.Context()); err != nil {
		if errors.Is(err, recognize.ErrNoEnrolledIdentities) {
			fmt.Println("No faces are registered.")
			return nil
		}
		return fmt.Errorf("starting recognition: %w", err)
	}
	defer scheduler.Stop()

	fmt.Println("Recognizing faces. Press Ctrl+C to stop.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-scheduler.Results():
			fmt.Printf("%-16s distance=%.3f box=[%.0f %.0f %.0f %.0f]\n",
				r.Label, r.Distance, r.Box[0], r.Box[1], r.Box[2], r.Box[3])
		}
	}
}
