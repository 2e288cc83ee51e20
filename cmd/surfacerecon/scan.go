package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/hakim/surfacerecon/internal/config"
	"github.com/hakim/surfacerecon/internal/models"
	"github.com/hakim/surfacerecon/internal/pipeline"
	"github.com/hakim/surfacerecon/internal/report"
	"github.com/hakim/surfacerecon/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the full reconnaissance pipeline for a domain",
	Long: `Run every phase for a target domain: enumeration, resolution, probing,
URL harvest, content analysis, path scan and port scan.

Results are saved to:
  {scan_dir}/{domain}_{timestamp}/raw/report.json
  {scan_dir}/{domain}_{timestamp}/reports/summary.md

and to the report database so history and diff work across runs.
Interrupting the scan (Ctrl-C) stops it between phases and keeps a partial
report.

Examples:
  surfacerecon scan -d example.com
  surfacerecon scan -d example.com --profile quick
  surfacerecon scan -d example.com --scope-domains "example.com,*.example.com"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")
		profile, _ := cmd.Flags().GetString("profile")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		webhookURL, _ := cmd.Flags().GetString("notify-webhook")
		scopeDomains, _ := cmd.Flags().GetString("scope-domains")
		noSave, _ := cmd.Flags().GetBool("no-save")
		jsonOut, _ := cmd.Flags().GetBool("json")
		noProgress, _ := cmd.Flags().GetBool("no-progress")

		if profile != "" {
			if err := config.ApplyProfile(cfg, profile); err != nil {
				return err
			}
			p := config.Profiles()[profile]
			fmt.Printf("[*] Using profile: %s (%s)\n", p.Name, p.Description)
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeouts.Scan = timeout
		}
		if webhookURL != "" {
			cfg.Notify.WebhookURL = webhookURL
		}
		if scopeDomains != "" {
			cfg.Scope.AllowedDomains = splitCSV(scopeDomains)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		orch := pipeline.NewFromConfig(cfg, pipeline.Options{})

		var bar *phaseBar
		if !noProgress && !jsonOut {
			bar = newPhaseBar(domain)
			orch = orch.WithProgress(bar.update)
		}

		r, err := orch.Run(ctx, domain)
		if bar != nil {
			bar.finish(r)
		}
		if r == nil {
			return err
		}

		if !noSave {
			saveReport(cfg, r)
		}

		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(r); encErr != nil {
				return encErr
			}
		} else {
			printSummary(r)
		}

		var phaseErr *pipeline.PhaseError
		switch {
		case errors.As(err, &phaseErr):
			return fmt.Errorf("scan failed: %w", err)
		case errors.Is(err, pipeline.ErrScanCancelled):
			color.New(color.FgYellow).Printf("[!] %v\n", err)
			return nil
		}
		return err
	},
}

// phaseBar renders orchestrator progress as a single mpb bar.
type phaseBar struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	phase atomic.Value
}

func newPhaseBar(domain string) *phaseBar {
	pb := &phaseBar{p: mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))}
	pb.phase.Store(string(models.PhaseEnumeration))

	pb.bar = pb.p.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(domain, decor.WCSyncWidth),
			decor.Any(func(decor.Statistics) string {
				return pb.phase.Load().(string)
			}, decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace), "done"),
		),
	)
	return pb
}

func (pb *phaseBar) update(phase models.Phase, percent int) {
	pb.phase.Store(string(phase))
	pb.bar.SetCurrent(int64(percent))
}

func (pb *phaseBar) finish(r *models.ScanReport) {
	if r != nil && r.Status == models.StatusComplete {
		pb.bar.SetCurrent(100)
	} else {
		pb.bar.Abort(false)
	}
	pb.p.Wait()
}

func saveReport(cfg *config.Config, r *models.ScanReport) {
	dir, err := storage.WriteReportFiles(cfg.ScanDir, r, report.Markdown(r))
	if err != nil {
		fmt.Printf("[!] Warning: writing report files: %v\n", err)
	} else {
		fmt.Printf("[+] Report written to %s\n", dir)
	}

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		fmt.Printf("[!] Warning: opening database: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.SaveReport(r); err != nil {
		fmt.Printf("[!] Warning: saving scan %s: %v\n", r.ID, err)
	}
}

func printSummary(r *models.ScanReport) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	s := r.Summary
	fmt.Println()
	cyan.Printf("[+] Scan %s: %s\n", r.Status, r.Domain)
	fmt.Printf("    Scan ID:    %s\n", r.ID)
	fmt.Printf("    Elapsed:    %s\n", r.Duration.Round(time.Second))
	fmt.Printf("    Candidates: %d\n", s.Candidates)
	fmt.Printf("    Resolved:   %d\n", s.Resolved)
	green.Printf("    Live:       %d\n", len(s.LiveEndpoints))
	fmt.Printf("    URLs:       %d\n", s.URLs)
	fmt.Printf("    Paths:      %d\n", s.SensitivePaths)
	fmt.Printf("    Ports:      %d\n", s.OpenPorts)

	if s.Findings > 0 {
		fmt.Printf("    Findings:   %d (", s.Findings)
		parts := make([]string, 0, len(models.SeverityOrder))
		for _, sev := range models.SeverityOrder {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(string(sev)), s.SeverityCounts[sev]))
		}
		fmt.Printf("%s)\n", strings.Join(parts, ", "))
	}

	if len(s.Technologies) > 0 {
		names := make([]string, len(s.Technologies))
		for i, t := range s.Technologies {
			names[i] = t.Name
		}
		fmt.Printf("    Tech:       %s\n", strings.Join(names, ", "))
	}

	if len(s.Warnings) > 0 {
		fmt.Println()
		for _, w := range s.Warnings {
			if strings.HasPrefix(w, "critical ") {
				red.Printf("[!] %s\n", w)
			} else {
				yellow.Printf("[!] %s\n", w)
			}
		}
	}
}

// splitCSV splits a comma-separated string and drops empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	scanCmd.Flags().StringP("domain", "d", "", "Target domain (required)")
	scanCmd.Flags().String("profile", "", "Scan profile: quick, standard, deep")
	scanCmd.Flags().Duration("timeout", 0, "Overall scan timeout (0 = config value)")
	scanCmd.Flags().String("notify-webhook", "", "POST a JSON summary to this URL when the scan ends")
	scanCmd.Flags().String("scope-domains", "", "Comma-separated allowed domains (e.g. \"example.com,*.example.com\")")
	scanCmd.Flags().Bool("no-save", false, "Do not write report files or store the scan")
	scanCmd.Flags().Bool("json", false, "Print the full report as JSON")
	scanCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	scanCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(scanCmd)
}
