package main

import (
	"github.com/spf13/cobra"

	"github.com/MimeLyc/sakura-subtrans/internal/config"
	"github.com/MimeLyc/sakura-subtrans/internal/service"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		dir      string
		cronExpr string
	)

	cmd := &cobra.Command{
		Use:   "watch [--dir <dir>] [--cron <expr>]",
		Short: "Translate new subtitle files in a directory on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []config.Option
			if cmd.Flags().Changed("dir") {
				opts = append(opts, config.WithWatchDir(dir))
			}
			if cmd.Flags().Changed("cron") {
				opts = append(opts, config.WithCronExpr(cronExpr))
			}

			cfg, err := ctx.loadConfig(cmd.ErrOrStderr(), opts...)
			if err != nil {
				return err
			}
			svc, err := ctx.newService(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return service.NewWatcher(svc, cmd.OutOrStdout()).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (env WATCH_DIR)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Scan schedule, five or six fields (env CRON_EXPR)")

	return cmd
}
