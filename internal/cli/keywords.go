package cli

import (
	"fmt"

	"resumeopt/internal/common"
	"resumeopt/internal/keywords"
	"resumeopt/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [job-description-file]",
	Short: "Extract weighted ATS keywords from a job description",
	Long: `Extract weighted ATS keywords from a job description. Keywords are
lowercased, weighted by how strongly the posting demands them, categorized
as skills, tools, soft skills or certifications, and annotated with common
synonym spellings. With assist enabled the AI extractor runs first and the
rule-based extractor covers any failure.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if keywordsConfig.OutputFormat == "" {
			keywordsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(keywordsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runKeywords,
}

var keywordsConfig common.CommandConfig

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	keywordsCmd.Flags().StringVar(&keywordsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	keywordsCmd.Flags().Int("top-n", 0, "Number of keywords to extract (default from config)")
	keywordsCmd.Flags().Bool("assist", false, "Use the AI assist for extraction")

	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, keywordsCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}
	bindFlag("pipeline.topn", "top-n")
	bindFlag("pipeline.useassist", "assist")

	// Add completion for format flag
	_ = keywordsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runKeywords(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	assist, err := common.BuildAssist(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI assist: %w", err)
	}

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}
	job := types.ParseJobPosting(contents[0])

	opts := common.PipelineOptions(cfg)

	logger.Info("Starting keyword extraction",
		"job_chars", len(job.Description),
		"top_n", opts.TopN,
		"use_assist", opts.UseAssist,
		"output_format", keywordsConfig.OutputFormat)

	var entries []keywords.Entry
	if opts.UseAssist && assist != nil {
		entries, err = assist.ExtractKeywords(cmd.Context(), job.Description, opts.TopN)
		if err != nil {
			logger.Warn("Assist extraction failed, using rule-based extractor", "error", err.Error())
			entries = nil
		} else {
			entries = keywords.NormalizeEntries(entries, opts.TopN)
		}
	}
	if len(entries) == 0 {
		entries = keywords.ExtractWithLexicon(job.Description, opts.TopN, opts.Lexicon)
	}

	logger.Info("Keyword extraction completed", "keywords", len(entries))

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(entries, keywordsConfig)
}
