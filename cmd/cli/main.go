package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agoramesh/walletd/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walletctl",
		Short: "walletd CLI tool",
		Long:  `A command line interface for operating a walletd deployment.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the walletd API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Migration commands
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var migrationsPath string
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "migrations", "Path to migration files")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(migrationsPath, false)
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(migrationsPath, true)
		},
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)

	// Reconciliation commands
	reconcileCmd := &cobra.Command{
		Use:   "reconcile [wallet-id]",
		Short: "Check wallet balances against the transaction ledger",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				reconcileWallet(args[0])
				return
			}
			reconcileAll()
		},
	}

	rootCmd.AddCommand(reconcileCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runMigrations(migrationsPath string, down bool) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("DATABASE_URL is not set")
		os.Exit(1)
	}

	var err error
	if down {
		err = postgres.RunMigrationsDown(databaseURL, migrationsPath)
	} else {
		err = postgres.RunMigrations(databaseURL, migrationsPath)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func reconcileWallet(walletID string) {
	body := getJSON("/api/v1/reconciliation/wallets/" + walletID)

	var report struct {
		WalletID         string `json:"wallet_id"`
		Balance          string `json:"balance"`
		Reserved         string `json:"reserved"`
		ExpectedBalance  string `json:"expected_balance"`
		ExpectedReserved string `json:"expected_reserved"`
		Consistent       bool   `json:"consistent"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printReport(report.WalletID, report.Balance, report.ExpectedBalance, report.Reserved, report.ExpectedReserved, report.Consistent)
	if !report.Consistent {
		os.Exit(1)
	}
}

func reconcileAll() {
	body := getJSON("/api/v1/reconciliation/wallets")

	var result struct {
		Reports []struct {
			WalletID         string `json:"wallet_id"`
			Balance          string `json:"balance"`
			Reserved         string `json:"reserved"`
			ExpectedBalance  string `json:"expected_balance"`
			ExpectedReserved string `json:"expected_reserved"`
			Consistent       bool   `json:"consistent"`
		} `json:"reports"`
		Total        int `json:"total"`
		Inconsistent int `json:"inconsistent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	for _, r := range result.Reports {
		if r.Consistent {
			continue
		}
		printReport(r.WalletID, r.Balance, r.ExpectedBalance, r.Reserved, r.ExpectedReserved, r.Consistent)
	}

	fmt.Printf("Checked %d wallets, %d inconsistent\n", result.Total, result.Inconsistent)
	if result.Inconsistent > 0 {
		os.Exit(1)
	}
}

func printReport(walletID, balance, expectedBalance, reserved, expectedReserved string, consistent bool) {
	status := "OK"
	if !consistent {
		status = "MISMATCH"
	}
	fmt.Printf("%s  %s\n", walletID, status)
	fmt.Printf("  balance:  %s (ledger: %s)\n", balance, expectedBalance)
	fmt.Printf("  reserved: %s (ledger: %s)\n", reserved, expectedReserved)
}

func getJSON(path string) []byte {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	return body
}
