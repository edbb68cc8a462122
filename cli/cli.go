package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	DryRun       bool
	Preview      bool
	Revert       bool
	Redo         bool
	NoEditorSync bool
	LookupDirs   []string
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Parse and plan only; print the summary without touching any file.")
	pflag.BoolVarP(&cfg.Preview, "preview", "p", false, "Show a diff preview for each changed file in the summary.")
	pflag.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", []string{}, "Directory to look for files in (default: current directory).")
	pflag.BoolVar(&cfg.NoEditorSync, "no-editor-sync", false, "Do not reload applied files in a listening Neovim instance.")

	// Mutually exclusive history group
	pflag.BoolVarP(&cfg.Revert, "revert", "r", false, "Revert the last apply.")
	pflag.BoolVarP(&cfg.Redo, "redo", "R", false, "Redo the last reverted apply.")

	pflag.Usage = func() {
		fmt.Println("Usage: mdapply [flags]")
		fmt.Println("\nParse a model response from stdin (pipe) or clipboard and apply its file operations.")
		fmt.Println("\nExample: pbpaste | mdapply -p")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.Revert && cfg.Redo {
		return nil, fmt.Errorf("error: --revert and --redo are mutually exclusive")
	}

	return cfg, nil
}
