package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tebogo/mathmate/internal/config"
	"github.com/tebogo/mathmate/internal/content"
	"github.com/tebogo/mathmate/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a question bank into the database",
	Long:  "Validates a question-bank JSON file against the schema and inserts any questions not already present. Without --file the embedded default bank is used.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var bank *content.Bank
		var err error

		if path, _ := cmd.Flags().GetString("file"); path != "" {
			bank, err = content.LoadFile(path)
		} else {
			bank, err = content.Default()
		}
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		inserted, err := content.Seed(cmd.Context(), s.DB(), bank)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d questions (%d already present).\n", inserted, len(bank.Questions)-inserted)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "Path to a question-bank JSON file")
}

// openStore resolves the DSN from the --db flag or config and opens the
// store.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn, _ := cmd.Flags().GetString("db")
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DB.DSN
	}
	if err := store.EnsureDir(dsn); err != nil {
		return nil, err
	}
	return store.Open(dsn)
}
