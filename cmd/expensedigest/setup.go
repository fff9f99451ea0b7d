package main

import (
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/sheets/v4"

	"github.com/jdaniels/expensedigest/pkg/client"
	"github.com/jdaniels/expensedigest/pkg/config"
)

// runSetup handles the OAuth setup flow for the sheets sink.
func runSetup(logger *slog.Logger, secretsPath string, force bool) error {
	if secretsPath == "" {
		secretsPath = config.ClientSecretFile
	}

	fmt.Println("=== Sheets Sink Setup ===")
	fmt.Println()

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !force {
		if _, err := os.Stat(client.TokenFile); err == nil {
			fmt.Printf("Already authenticated! Token file exists: %s\n", client.TokenFile)
			fmt.Println()
			fmt.Println("To re-authenticate, run: expensedigest setup --force")
			return nil
		}
	}

	if force {
		if err := os.Remove(client.TokenFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Println("Forcing re-authentication...")
		fmt.Println()
	}

	fmt.Println("This will set up OAuth authentication with Google.")
	fmt.Println()
	fmt.Println("Required permissions:")
	fmt.Println("  - Sheets: Read and write spreadsheets")
	fmt.Println()
	fmt.Println("Starting authentication...")
	fmt.Println()

	if _, err := client.New(secretsPath, sheets.SpreadsheetsScope); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Setup Complete ===")
	fmt.Println()
	fmt.Printf("Token saved to: %s\n", client.TokenFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set SHEETS_ENABLED=true and GSHEETS_NAME (plus GSHEETS_ID or GSHEETS_TITLE)")
	fmt.Println("  2. Run 'expensedigest process <key>' to archive groups to the sheet")
	fmt.Println()

	return nil
}
