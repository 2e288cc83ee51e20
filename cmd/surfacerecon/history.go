package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakim/surfacerecon/internal/discovery"
	"github.com/hakim/surfacerecon/internal/models"
	"github.com/hakim/surfacerecon/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored scans for a domain",
	Long: `Display past scans for a domain, newest first, with their status and
headline counts.

Use --limit to cap the number of rows shown (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		domain, err := discovery.ValidateDomain(domain)
		if err != nil {
			return err
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		reports, err := store.ListReports(domain)
		if err != nil {
			return fmt.Errorf("listing scans for %s: %w", domain, err)
		}
		if len(reports) == 0 {
			fmt.Printf("No scan history found for %s\n", domain)
			return nil
		}

		if limit > 0 && len(reports) > limit {
			reports = reports[:limit]
		}

		const separator = "------------------------------------------------------------------------------"

		fmt.Printf("\nScan History for %s\n", domain)
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-17s  %-9s  %5s  %5s  %8s\n", "#", "Scan ID", "Started", "Status", "Live", "Ports", "Findings")
		fmt.Println(separator)

		for i, r := range reports {
			fmt.Printf("  %-3d  %-12s  %-17s  %s  %5d  %5d  %8d\n",
				i+1,
				shortScanID(r.ID),
				r.StartedAt.UTC().Format("2006-01-02 15:04"),
				statusColor(r.Status).Sprintf("%-9s", r.Status),
				len(r.Live),
				len(r.OpenPorts),
				len(r.Findings))
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d scan(s)\n\n", len(reports))
		return nil
	},
}

// shortScanID returns the first 8 characters of a UUID followed by "..."
func shortScanID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func statusColor(s models.ScanStatus) *color.Color {
	switch s {
	case models.StatusComplete:
		return color.New(color.FgGreen)
	case models.StatusPartial:
		return color.New(color.FgYellow)
	case models.StatusFailed:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Reset)
	}
}

func init() {
	historyCmd.Flags().StringP("domain", "d", "", "Target domain (required)")
	historyCmd.Flags().Int("limit", 10, "Maximum number of scans to display")
	historyCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(historyCmd)
}
