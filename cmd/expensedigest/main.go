package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jdaniels/expensedigest/pkg/logging"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	logger := logging.Setup(logging.FromEnv())

	rootCmd := &cobra.Command{
		Use:     "expensedigest",
		Version: version,
		Short:   "Turn bank statement emails into expense digests",
		Long: "expensedigest extracts the CSV statement embedded in bank notification\n" +
			"emails, filters out income and blocklisted merchants, collapses the\n" +
			"remaining expenses per merchant and writes CSV and report artifacts.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	processCmd := &cobra.Command{
		Use:   "process <key>...",
		Short: "Process stored statement emails into CSV and report artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), logger, args)
		},
	}

	mboxCmd := &cobra.Command{
		Use:   "mbox <file>",
		Short: "Import messages from an mbox file and process them as a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), logger, args[0])
		},
	}

	var (
		setupForce       bool
		setupCredentials string
	)
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the OAuth flow for the Google Sheets sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(logger, setupCredentials, setupForce)
		},
	}
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "discard the cached token and re-authenticate")
	setupCmd.Flags().StringVar(&setupCredentials, "credentials", "", "path to the OAuth client secret file")

	rootCmd.AddCommand(processCmd, mboxCmd, setupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
