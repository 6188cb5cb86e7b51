package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/soyeahso/finch-mcp/internal/config"
	"github.com/soyeahso/finch-mcp/internal/ecr"
	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/hooks"
	"github.com/soyeahso/finch-mcp/internal/logging"
	"github.com/soyeahso/finch-mcp/internal/mcpserver"
	"github.com/soyeahso/finch-mcp/internal/store"
	"github.com/soyeahso/finch-mcp/internal/version"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

func newServeCmd() *cobra.Command {
	var (
		transport     string
		port          int
		resourceWrite bool
		autoRestart   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if transport != "" {
				cfg.Server.Transport = transport
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if resourceWrite {
				cfg.AWS.ResourceWrite = true
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating directories: %w", err)
			}

			logFile := cfg.Logging.File
			if logFile == "" {
				logFile = filepath.Join(paths.Logs, "finch-mcp.log")
			}
			fileLog, closer, err := logging.Open(logging.Options{
				Level:        cfg.Logging.Level,
				ConsoleStyle: cfg.Logging.ConsoleStyle,
				File:         logFile,
				MaxSizeMB:    cfg.Logging.MaxSizeMB,
				MaxBackups:   cfg.Logging.MaxBackups,
			})
			if err != nil {
				return err
			}
			defer closer.Close()
			log = fileLog

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var runner finch.Runner = finch.NewExecRunner(cfg.Finch.Binary, cfg.FinchTimeout(), log)

			var history *store.HistoryStore
			if cfg.History.IsEnabled() {
				db, err := store.Open(cfg.History.Path, log)
				if err != nil {
					return fmt.Errorf("opening history database: %w", err)
				}
				defer db.Close()

				history = store.NewHistoryStore(db)
				cutoff := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
				if n, err := history.Prune(ctx, cutoff); err != nil {
					log.Warn().Err(err).Msg("pruning history")
				} else if n > 0 {
					log.Info().Int64("removed", n).Msg("pruned old invocations")
				}
				runner = finch.Observed(runner, mcpserver.HistoryObserver(history, log))
			}

			hookMgr := hooks.NewManager(log)
			hooks.RegisterCommandHooks(hookMgr, cfg.Hooks, log)

			binary := cfg.Finch.Binary
			srv := mcpserver.New(mcpserver.Options{
				Client:          finch.NewClient(runner, log),
				ECR:             ecr.NewService(ecr.SDKFactory(cfg.AWS.Profile), cfg.AWS.Region, log),
				Hooks:           hookMgr,
				History:         history,
				Log:             log,
				Version:         version.ServerVersion(),
				ReadOnly:        !cfg.AWS.ResourceWrite,
				SkipVM:          cfg.Finch.SkipVM,
				FinchConfigPath: cfg.Finch.ConfigPath,
				CheckInstalled:  func() error { return finch.Installed(binary) },
			})

			log.Info().
				Str("transport", cfg.Server.Transport).
				Bool("awsResourceWrite", cfg.AWS.ResourceWrite).
				Str("version", version.Version).
				Msg("starting finch-mcp")

			hookMgr.Emit(ctx, hooks.EventServerStart, map[string]any{
				"transport": cfg.Server.Transport,
				"readOnly":  !cfg.AWS.ResourceWrite,
			})
			defer func() {
				drainCtx, cancel := context.WithTimeout(context.Background(), hooks.DefaultCommandTimeout)
				defer cancel()
				if err := hookMgr.Wait(drainCtx); err != nil {
					log.Warn().Err(err).Msg("tool call hooks still running at shutdown")
				}
				hookMgr.Emit(context.Background(), hooks.EventServerStop, map[string]any{
					"transport": cfg.Server.Transport,
				})
			}()

			switch cfg.Server.Transport {
			case "sse":
				if autoRestart {
					go autorestart.RestartOnChange()
				}
				httpSrv := srv.NewHTTPServer(mcpserver.HTTPOptions{
					Addr:           cfg.ListenAddr(),
					BaseURL:        cfg.Server.BaseURL,
					AllowedOrigins: cfg.Server.AllowedOrigins,
				})
				return httpSrv.ListenAndServe(ctx)
			default:
				if autoRestart {
					log.Warn().Msg("--autorestart only applies to the sse transport")
				}
				return srv.ServeStdio(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "transport to serve on (stdio, sse)")
	cmd.Flags().IntVar(&port, "port", 0, "override the sse listen port")
	cmd.Flags().BoolVar(&resourceWrite, "enable-aws-resource-write", false, "allow creating ECR repositories and pushing to ECR")
	cmd.Flags().BoolVar(&autoRestart, "autorestart", false, "restart when the binary changes (sse transport only)")

	return cmd
}
