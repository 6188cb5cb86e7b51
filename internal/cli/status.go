package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/soyeahso/finch-mcp/internal/config"
	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show finch installation, VM state and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("finch-mcp %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Println(configLine(paths.Config))
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			// finch
			if err := finch.Installed(cfg.Finch.Binary); err != nil {
				fmt.Printf("Finch:   %s (%v)\n", cfg.Finch.Binary, err)
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()

				client := finch.NewClient(finch.NewExecRunner(cfg.Finch.Binary, 30*time.Second, log), log)
				if v := client.Version(ctx); v.OK() {
					fmt.Printf("Finch:   %s\n", firstLine(v.Version))
				} else {
					fmt.Printf("Finch:   %s\n", v.Message)
				}
				if client.NeedsVM() {
					state, _, err := client.VMStatus(ctx)
					if err != nil {
						fmt.Printf("VM:      error: %v\n", err)
					} else {
						fmt.Printf("VM:      %s\n", state)
					}
				} else {
					fmt.Println("VM:      not used on linux")
				}
			}

			fmt.Printf("Server:  transport=%s listen=%s\n", cfg.Server.Transport, cfg.ListenAddr())
			mode := "read-only"
			if cfg.AWS.ResourceWrite {
				mode = "read-write"
			}
			region := cfg.AWS.Region
			if region == "" {
				region = "(sdk default)"
			}
			fmt.Printf("AWS:     mode=%s region=%s\n", mode, region)
			if cfg.History.IsEnabled() {
				fmt.Printf("History: %s (retention %dd)\n", cfg.History.Path, cfg.History.RetentionDays)
			} else {
				fmt.Println("History: disabled")
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Println()
				fmt.Printf("Validation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
			}

			return nil
		},
	}
	return cmd
}

// configLine describes the config file, noting when defaults are in use.
func configLine(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("Config:  %s (not found, using defaults)", path)
	}
	return fmt.Sprintf("Config:  %s", path)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
