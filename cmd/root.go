package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sakhi",
	Short: "A voice-activated assistant kiosk with face recognition",
	Long: `Sakhi is a voice-activated assistant that listens for its wake word,
routes spoken commands to mode switches or a conversational model, and
recognizes enrolled faces through the camera while in Alzheimer mode.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
