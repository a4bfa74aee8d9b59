package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mathmate",
	Short: "Conversational maths tutoring backend",
	Long:  "MathMate — message-driven maths tutoring: stress triage, confidence building, exam prep and adaptive practice over a simple webhook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN (overrides MATHMATE_DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
