package main

import (
	"github.com/spf13/cobra"

	"github.com/MimeLyc/sakura-subtrans/internal/config"
	"github.com/MimeLyc/sakura-subtrans/internal/service"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		input     string
		output    string
		mode      string
		batchSize int
		workers   int
		glossary  string
	)

	cmd := &cobra.Command{
		Use:   "translate -i <input> [-o <output>]",
		Short: "Translate one subtitle file into a bilingual one",
		Long: "Translate every Japanese line of a subtitle file and write the source and\n" +
			"the Chinese translation as two lines of the same event. ASS/SSA files are\n" +
			"sent in numbered batches, other formats line by line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []config.Option
			flags := cmd.Flags()
			if flags.Changed("input") {
				opts = append(opts, config.WithInput(input))
			}
			if flags.Changed("output") {
				opts = append(opts, config.WithOutput(output))
			}
			if flags.Changed("mode") {
				opts = append(opts, config.WithMode(mode))
			}
			if flags.Changed("batch-size") {
				opts = append(opts, config.WithBatchSize(batchSize))
			}
			if flags.Changed("workers") {
				opts = append(opts, config.WithWorkers(workers))
			}
			if flags.Changed("glossary") {
				opts = append(opts, config.WithGlossary(glossary))
			}

			cfg, err := ctx.loadConfig(cmd.ErrOrStderr(), opts...)
			if err != nil {
				return err
			}
			svc, err := ctx.newService(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res, err := svc.TranslateFile(cmd.Context(), service.Request{
				Input:  cfg.Translate.Input,
				Output: cfg.Translate.Output,
				Mode:   cfg.TranslateMode(),
			})
			if err != nil {
				return err
			}
			return service.RenderReport(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Subtitle file to translate (env INPUT_PATH)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <name>.bilingual<ext>)")
	cmd.Flags().StringVar(&mode, "mode", "", "auto, batch or line (default: auto, batch for ASS/SSA)")
	cmd.Flags().IntVar(&batchSize, "batch-size", config.DefaultBatchSize, "Lines per batch prompt")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "Concurrent line tasks in line mode")
	cmd.Flags().StringVar(&glossary, "glossary", "", "Term map file, JSON or TOML (env GLOSSARY_PATH)")

	return cmd
}
