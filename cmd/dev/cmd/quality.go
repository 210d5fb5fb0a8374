package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// step runs one quality stage and logs how long it took.
func step(name string, run func() error) error {
	start := time.Now()
	slog.Info("running", "step", name)
	err := run()
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	slog.Info("done", "step", name, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (driver, transports and cli)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return step("test", func() error { return test.Test() })
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return step("lint", func() error { return test.Lint() })
		},
	}
}

func IntegrationTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against a chip on a real bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return step("integration-test", func() error { return test.Integ() })
		},
	}
}

// CheckCmd runs lint and unit tests, stopping at the first failure.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run linting and unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := step("lint", func() error { return test.Lint() })
			if err != nil {
				return err
			}
			return step("test", func() error { return test.Test() })
		},
	}
}
