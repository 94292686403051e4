package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sakhi-assistant/sakhi/internal/config"
	"github.com/sakhi-assistant/sakhi/internal/enroll"
	"github.com/sakhi-assistant/sakhi/internal/store"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Manage enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities and their descriptor counts",
	RunE:  runIdentitiesList,
}

var identitiesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import identities with precomputed descriptors from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesImport,
}

var identitiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every identity and descriptor",
	RunE:  runIdentitiesClear,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesImportCmd)
	identitiesCmd.AddCommand(identitiesClearCmd)

	identitiesClearCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

// confirmAction prompts the user for a yes/no confirmation.
func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func openIdentityRepo() (*store.Pool, *store.IdentityRepository, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := store.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, store.NewIdentityRepository(pool), nil
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	pool, repo, err := openIdentityRepo()
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := cmd.Context()
	identities, err := repo.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}
	if len(identities) == 0 {
		fmt.Println("No identities enrolled.")
		return nil
	}

	descriptors, err := repo.ListDescriptors(ctx)
	if err != nil {
		return fmt.Errorf("listing descriptors: %w", err)
	}
	counts := make(map[string]int)
	for _, d := range descriptors {
		counts[d.OwnerID.String()]++
	}

	fmt.Printf("%-38s %-20s %s\n", "ID", "NAME", "DESCRIPTORS")
	for _, id := range identities {
		fmt.Printf("%-38s %-20s %d\n", id.ID, id.Name, counts[id.ID.String()])
	}
	return nil
}

type importEntry struct {
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
}

func runIdentitiesImport(cmd *cobra.Command, args []string) error {
	pool, repo, err := openIdentityRepo()
	if err != nil {
		return err
	}
	defer pool.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var entries []importEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parsing import file: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Importing identities"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("identities"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	ctx := cmd.Context()
	imported, failed := 0, 0
	for _, entry := range entries {
		_, err := enroll.Enroll(ctx, repo, entry.Name, func(ctx context.Context) ([]float32, error) {
			return entry.Descriptor, nil
		})
		if err != nil {
			failed++
			fmt.Printf("\nSkipping %q: %v\n", entry.Name, err)
		} else {
			imported++
		}
		bar.Add(1)
	}

	fmt.Printf("\nImported %d identities (%d failed)\n", imported, failed)
	return nil
}

func runIdentitiesClear(cmd *cobra.Command, args []string) error {
	pool, repo, err := openIdentityRepo()
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := cmd.Context()
	identities, err := repo.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}
	if len(identities) == 0 {
		fmt.Println("Nothing to clear.")
		return nil
	}

	if !mustGetBool(cmd, "yes") &&
		!confirmAction(fmt.Sprintf("Delete all %d identities and their descriptors? [y/N]: ", len(identities))) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := repo.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing identities: %w", err)
	}
	fmt.Printf("Removed %d identities\n", len(identities))
	return nil
}
