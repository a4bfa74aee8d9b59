package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tebogo/mathmate/internal/config"
	"github.com/tebogo/mathmate/internal/content"
	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/flow"
	"github.com/tebogo/mathmate/internal/orchestrator"
	"github.com/tebogo/mathmate/internal/selector"
	"github.com/tebogo/mathmate/internal/server"
	"github.com/tebogo/mathmate/internal/store"
	"github.com/tebogo/mathmate/internal/textgen"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log)

	dsn := cfg.DB.DSN
	if flagDSN, _ := cmd.Flags().GetString("db"); flagDSN != "" {
		dsn = flagDSN
	}
	if err := store.EnsureDir(dsn); err != nil {
		return err
	}
	s, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	// An empty bank serves nobody; load the embedded seed on first boot.
	bank, err := content.Default()
	if err != nil {
		return err
	}
	inserted, err := content.Seed(cmd.Context(), s.DB(), bank)
	if err != nil {
		return err
	}
	if inserted > 0 {
		log.WithField("questions", inserted).Info("seeded default question bank")
	}

	if err := cfg.TextGen.Validate(); err != nil {
		return err
	}
	gen, err := textgen.NewGenerator(cmd.Context(), cfg.TextGen, logrus.NewEntry(log))
	if err != nil {
		return err
	}

	diff := difficulty.DefaultConfig()
	entry := logrus.NewEntry(log)
	deps := flow.Deps{
		Users:      s.Users(),
		Responses:  s.Responses(),
		Selector:   selector.New(s.Questions(), s.Users(), nil, entry),
		Evaluator:  evaluator.New(s.Questions(), s.Responses(), s.Weaknesses(), s.Users(), diff, nil, entry),
		Diff:       diff,
		Gen:        gen,
		GenTimeout: cfg.TextGen.Timeout,
		Log:        entry,
	}
	orch := orchestrator.New(s.Users(), s.Sessions(), deps, entry)
	srv := server.New(orch, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("listening")
		errCh <- srv.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
