package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/finch-mcp/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		tool   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent finch invocations made by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.History.IsEnabled() {
				return fmt.Errorf("history is disabled (history.enabled=false)")
			}
			if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
				fmt.Println("No history recorded yet.")
				return nil
			}

			db, err := store.Open(cfg.History.Path, log)
			if err != nil {
				return fmt.Errorf("opening history database: %w", err)
			}
			defer db.Close()

			invs, err := store.NewHistoryStore(db).Recent(cmd.Context(), limit, tool)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(invs)
			}
			if len(invs) == 0 {
				fmt.Println("No matching invocations.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTOOL\tEXIT\tDURATION\tCOMMAND")
			for _, inv := range invs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					inv.CreatedAt.Local().Format(time.DateTime),
					orDash(inv.Tool),
					inv.ExitCode,
					inv.Duration.Round(time.Millisecond),
					inv.CommandLine(),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of invocations to show")
	cmd.Flags().StringVar(&tool, "tool", "", "only show invocations made by this tool")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
