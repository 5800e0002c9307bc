package cli

import (
	"fmt"

	"resumeopt/internal/common"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a LaTeX resume against a job description without rewriting it",
	Long: `Score a LaTeX resume against a job description. The command extracts
weighted keywords from the posting and reports keyword coverage, formatting,
bullet quality and keyword distribution, combined into an overall 0-100
score. The resume is never modified.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
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
	resumeSource := contents[0]
	job := types.ParseJobPosting(contents[1])

	opts := common.PipelineOptions(cfg)

	logger.Info("Starting resume scoring",
		"resume_chars", len(resumeSource),
		"job_chars", len(job.Description),
		"output_format", scoreConfig.OutputFormat)

	entries, score, err := pipeline.Score(cmd.Context(), resumeSource, job, opts, assist, logger)
	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}

	logger.Info("Resume scoring completed", "overall", score.Overall)

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(pipeline.ScoreOutput{
		Job:      job,
		Keywords: entries,
		Score:    score,
	}, scoreConfig)
}
