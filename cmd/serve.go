package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakhi-assistant/sakhi/internal/chat"
	"github.com/sakhi-assistant/sakhi/internal/config"
	"github.com/sakhi-assistant/sakhi/internal/store"
	"github.com/sakhi-assistant/sakhi/internal/web"
	"github.com/sakhi-assistant/sakhi/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk API server",
	Long: `Start the Sakhi API server without the voice and camera loops.
The server handles face registration, identity management, and typed
chat requests from the kiosk UI.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (string, int) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return host, port
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
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

	gemini, err := chat.NewGemini(context.Background(), cfg.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	light := webhook.NewClient(cfg.Webhook.IFTTTKey)
	assistant := chat.NewAssistant(gemini, light, cfg.Phrases)

	host, port := resolveServeHostPort(cmd)
	server := web.NewServer(host, port, repo, assistant.Reply, nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Sakhi API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
