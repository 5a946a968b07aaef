package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// step wraps a devtool task in a cobra command.
func step(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}

// TestCmd runs the unit tests; they use the simulated chip and need no hardware.
func TestCmd() *cobra.Command {
	return step("test", "Run unit tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return step("lint", "Run linting", func() error { return test.Lint() })
}

// IntegrationTestCmd runs tests tagged for real hardware attached through an adapter.
func IntegrationTestCmd() *cobra.Command {
	return step("integration-test", "Run hardware integration tests", func() error { return test.Integ() })
}
