package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/surfacerecon/internal/diff"
	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/models"
	"github.com/hakim/surfacerecon/internal/report"
	"github.com/hakim/surfacerecon/internal/storage"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two scans of a domain and report what changed",
	Long: `Compare the latest stored scan of a domain with the one before it, or
with the scans named by --current and --previous.

The markdown change report is printed to stdout, or written to --output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")
		currentID, _ := cmd.Flags().GetString("current")
		previousID, _ := cmd.Flags().GetString("previous")
		output, _ := cmd.Flags().GetString("output")

		domain, err := discovery.ValidateDomain(domain)
		if err != nil {
			return err
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		current, previous, err := selectReports(store, domain, currentID, previousID)
		if errors.Is(err, storage.ErrNotFound) && currentID == "" && previousID == "" {
			fmt.Printf("[!] Fewer than two scans stored for %s; nothing to compare\n", domain)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("[*] Current:  %s (%d hosts, %d ports, %d findings)\n",
			current.ID, len(current.Resolved), len(current.OpenPorts), len(current.Findings))
		fmt.Printf("[*] Previous: %s (%d hosts, %d ports, %d findings)\n",
			previous.ID, len(previous.Resolved), len(previous.OpenPorts), len(previous.Findings))

		result := diff.Compute(current, previous)

		if output != "" {
			if err := report.WriteDiffMarkdown(result, output); err != nil {
				return err
			}
			fmt.Printf("[+] Diff report written to %s\n", output)
			return nil
		}

		fmt.Println()
		fmt.Print(report.DiffMarkdown(result))
		return nil
	},
}

func selectReports(store *storage.Store, domain, currentID, previousID string) (current, previous *models.ScanReport, err error) {
	if currentID == "" && previousID == "" {
		return store.LatestPair(domain)
	}
	if currentID == "" || previousID == "" {
		return nil, nil, errors.New("--current and --previous must be given together")
	}

	if current, err = store.GetReport(currentID); err != nil {
		return nil, nil, fmt.Errorf("loading scan %s: %w", currentID, err)
	}
	if previous, err = store.GetReport(previousID); err != nil {
		return nil, nil, fmt.Errorf("loading scan %s: %w", previousID, err)
	}
	if current.Domain != domain || previous.Domain != domain {
		return nil, nil, fmt.Errorf("both scans must belong to %s", domain)
	}
	return current, previous, nil
}

func init() {
	diffCmd.Flags().StringP("domain", "d", "", "Target domain (required)")
	diffCmd.Flags().String("current", "", "ID of the newer scan")
	diffCmd.Flags().String("previous", "", "ID of the older scan")
	diffCmd.Flags().StringP("output", "o", "", "write the markdown report to this file")
	diffCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(diffCmd)
}
