package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/sakura-subtrans/internal/llm"
	"github.com/MimeLyc/sakura-subtrans/internal/service"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models served at LLM_API_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := llm.NewClient(&cfg.LLM)
			if err != nil {
				return service.WrapError(err, service.ErrConfig, "failed to create LLM client")
			}

			models, err := client.Models(cmd.Context())
			if err != nil {
				return service.WrapError(err, service.ErrAPI, "failed to list models").WithContext("url", cfg.LLM.APIURL)
			}

			out := cmd.OutOrStdout()
			for _, m := range models {
				marker := " "
				if m.ID == cfg.LLM.Model {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, m.ID)
			}
			return nil
		},
	}
}
