// Command ledgerctl inspects and manages estateledger snapshots in the
// configured storage backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

func main() {
	_ = godotenv.Load() // optional .env in the working directory
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "ledgerctl: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath  string
	envFile     string
	metricsFile string
	trace       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "estateledger snapshot tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to estateledger.toml (default: ./estateledger.toml if present)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file applied before reading configuration")
	root.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics for the run to this text file on exit")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "print a JSON trace line per ledger operation to stderr")
	root.AddCommand(newSnapshotCmd(opts))
	return root
}
