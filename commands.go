package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/config"
)

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "legal-case-api",
		Short:         "Legal case priority API and scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the API and start the cron jobs",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "run-once",
			Short: "Run one hourly case analysis pass and exit",
			Args:  cobra.NoArgs,
			RunE:  runOnce,
		},
		&cobra.Command{
			Use:   "daily",
			Short: "Recompute case statistics and rebalance lawyer workload, then exit",
			Args:  cobra.NoArgs,
			RunE:  runDaily,
		},
		&cobra.Command{
			Use:   "analyze <case-id>",
			Short: "Score a single case immediately",
			Args:  cobra.ExactArgs(1),
			RunE:  runAnalyze,
		},
		&cobra.Command{
			Use:   "hash-password <password>",
			Short: "Print a bcrypt hash for a password",
			Args:  cobra.ExactArgs(1),
			RunE:  runHashPassword,
		},
	)
	return root
}

func initApp() (*handlers.App, error) {
	a := &handlers.App{}
	a.Config = *config.New()
	if err := a.Initialize(); err != nil {
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	a.StartScheduler()
	defer a.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", a.Config.Port),
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	zap.S().Infow("legal-case-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
		"scheduler", a.Config.SchedulerEnabled,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Scheduler.RunHourly(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d cases in %d batches, %d succeeded, %d failed (took %s)\n",
		report.RunID,
		len(report.Outcomes),
		report.Batches,
		report.Succeeded(),
		report.Failed(),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	for _, o := range report.Outcomes {
		if o.OK() {
			fmt.Fprintf(out, "  %-20s %3d  %s\n", o.CaseNumber, o.PriorityScore, o.Priority)
			continue
		}
		fmt.Fprintf(out, "  %-20s FAILED  %s\n", o.CaseNumber, o.Error)
	}
	return nil
}

func runDaily(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Scheduler.RunDaily(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s := report.Statistics; s != nil {
		fmt.Fprintf(out, "Cases: %s total, %s delayed\n", humanize.Comma(s.Total), humanize.Comma(s.Delayed))
		for status, n := range s.ByStatus {
			fmt.Fprintf(out, "  %-20s %s\n", status, humanize.Comma(n))
		}
	}
	fmt.Fprintf(out, "Workload: %d of %d lawyers updated\n", report.Rebalance.Updated, report.Rebalance.Lawyers)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	caseID, err := primitive.ObjectIDFromHex(args[0])
	if err != nil {
		return fmt.Errorf("invalid case id %q: %w", args[0], err)
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Scheduler.AnalyzeCase(cmd.Context(), caseID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Case %s: priority %d/100 (%s)\n", c.Details.CaseNumber, c.Details.PriorityScore, c.Details.Priority)
	if c.Details.ExpectedCompletionDate != nil {
		fmt.Fprintf(out, "Expected completion: %s (%s)\n",
			c.Details.ExpectedCompletionDate.Format("2006-01-02"),
			humanize.Time(*c.Details.ExpectedCompletionDate),
		)
	}
	if n := len(c.Details.Notes); n > 0 {
		fmt.Fprintln(out, c.Details.Notes[n-1].Content)
	}
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return nil
}
