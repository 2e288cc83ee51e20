package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakim/surfacerecon/internal/config"
	"github.com/hakim/surfacerecon/internal/storage"
)

var (
	initForce   bool
	initDir     string
	initProfile string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file and prepare the report store",
	Long: `Writes surfacerecon.yaml, creates the scan directory and opens the
report database once so later scans can index into it.

API keys for keyed sources are read from SECURITYTRAILS_API_KEY,
VIRUSTOTAL_API_KEY and URLSCAN_API_KEY and are never written to the file.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing surfacerecon.yaml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "directory to write surfacerecon.yaml into")
	initCmd.Flags().StringVar(&initProfile, "profile", "standard", "limits profile stored in the file (quick, standard, deep)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, ok := config.Profiles()[initProfile]; !ok {
		return fmt.Errorf("unknown profile %q", initProfile)
	}

	path := filepath.Join(initDir, "surfacerecon.yaml")
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s exists, pass --force to replace it", path)
	}

	draft := config.DefaultConfig()
	draft.Profile = initProfile
	if err := config.Write(path, draft); err != nil {
		return err
	}

	// Reload so env keys and the profile are reflected in what we report.
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("reloading %s: %w", path, err)
	}

	if err := os.MkdirAll(cfg.ScanDir, 0755); err != nil {
		return fmt.Errorf("creating scan directory: %w", err)
	}
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening report database: %w", err)
	}
	store.Close()

	ok := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("%s config    %s (profile %s)\n", ok("[+]"), path, cfg.Profile)
	fmt.Printf("%s scans     %s\n", ok("[+]"), cfg.ScanDir)
	fmt.Printf("%s database  %s\n", ok("[+]"), cfg.DBPath)
	fmt.Println()

	keyed := map[string]bool{
		"securitytrails": cfg.Sources.SecurityTrailsKey != "",
		"virustotal":     cfg.Sources.VirusTotalKey != "",
		"urlscan":        cfg.Archives.URLScanKey != "",
	}
	names := make([]string, 0, len(keyed))
	for name := range keyed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if keyed[name] {
			fmt.Printf("    %-15s %s\n", name, ok("key found"))
		} else {
			fmt.Printf("    %-15s %s\n", name, dim("no key, skipped"))
		}
	}

	fmt.Println()
	fmt.Println("Run 'surfacerecon scan -d <domain>' to start.")
	return nil
}
