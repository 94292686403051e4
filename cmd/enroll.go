package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/config"
	"github.com/sakhi-assistant/sakhi/internal/embedder"
	"github.com/sakhi-assistant/sakhi/internal/enroll"
	"github.com/sakhi-assistant/sakhi/internal/store"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Enroll a face from the camera",
	Long: `Capture one frame from the camera, compute the face descriptor,
and store it under a new identity. Re-running creates another identity;
the same person may be enrolled multiple times under the same name.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := args[0]
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

	fmt.Println("Look at the camera...")
	identity, err := enroll.Enroll(ctx, repo, name, func(ctx context.Context) ([]float32, error) {
		frame, err := camera.Grab(ctx)
		if err != nil {
			return nil, err
		}
		det, err := embed.DetectFace(ctx, frame)
		if err != nil || det == nil {
			return nil, err
		}
		return det.Descriptor, nil
	})
	if err != nil {
		if errors.Is(err, enroll.ErrNoFaceDetected) {
			return errors.New("could not detect a face, try again with better lighting")
		}
		return err
	}

	fmt.Printf("Enrolled %s (%s)\n", identity.Name, identity.ID)
	return nil
}
