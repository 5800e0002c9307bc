package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"resumeopt/internal/common"
	"resumeopt/internal/compile"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/types"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Optimize a LaTeX resume for a specific job description",
	Long: `Optimize a LaTeX resume for a specific job description. The command
extracts weighted keywords from the job posting, scores the resume, rewrites
bullet items under a strict edit budget to close keyword gaps, and re-scores
the result. Every LaTeX command in the resume is preserved exactly.

The job description file may be plain text or a harvester JSON record with
a "description" field.

With --out-dir the command writes four artifacts next to each other:
main_optimized.tex, diff.patch, keyword_map.json and report.md.

With --watch the command re-runs whenever the resume file changes, which
pairs well with an editor session.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if optimizeConfig.OutputFormat == "" {
			optimizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(optimizeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runOptimize,
}

var (
	optimizeConfig common.CommandConfig
	optimizeOutDir string
	optimizePDF    bool
	optimizeWatch  bool
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	optimizeCmd.Flags().StringVar(&optimizeOutDir, "out-dir", "", "Directory to write optimization artifacts into")
	optimizeCmd.Flags().BoolVar(&optimizePDF, "pdf", false, "Compile the optimized resume to PDF (requires compile.endpoint)")
	optimizeCmd.Flags().BoolVar(&optimizeWatch, "watch", false, "Re-run on resume file changes")
	optimizeCmd.Flags().Bool("assist", false, "Use the AI assist for extraction and rewriting")
	optimizeCmd.Flags().Bool("relaxed", false, "Use the relaxed edit budget instead of the strict one")
	optimizeCmd.Flags().Int("top-n", 0, "Number of keywords to extract (default from config)")
	optimizeCmd.Flags().Float64("fail-below", 0, "Exit non-zero when the post-rewrite score is below this threshold")

	// Bind tuning flags to viper config keys so flag > env > file ordering holds
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, optimizeCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}
	bindFlag("pipeline.useassist", "assist")
	bindFlag("pipeline.topn", "top-n")
	bindFlag("pipeline.atsthreshold", "fail-below")

	// Add completion for format flag
	_ = optimizeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if relaxed, _ := cmd.Flags().GetBool("relaxed"); relaxed {
		cfg.Pipeline.Strict = false
	}

	assist, err := common.BuildAssist(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI assist: %w", err)
	}

	if err := runOptimizeOnce(cmd, args, assist); err != nil {
		return err
	}

	if optimizeWatch {
		return watchAndRerun(cmd, args, assist)
	}
	return nil
}

func runOptimizeOnce(cmd *cobra.Command, args []string, assist pipeline.Assist) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}
	resumeSource := contents[0]
	job := types.ParseJobPosting(contents[1])

	opts := common.PipelineOptions(cfg)

	logger.Info("Starting resume optimization",
		"resume_chars", len(resumeSource),
		"job_chars", len(job.Description),
		"top_n", opts.TopN,
		"strict", opts.Rewrite.Strict,
		"use_assist", opts.UseAssist,
		"output_format", optimizeConfig.OutputFormat)

	result, err := pipeline.Run(cmd.Context(), resumeSource, job, opts, assist, logger)
	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}

	logger.Info("Resume optimization completed",
		"score_before", result.Before.Overall,
		"score_after", result.After.Overall,
		"rewrites", len(result.Plans),
		"skipped", len(result.Skipped))

	if optimizeOutDir != "" {
		writer := common.NewArtifactWriter(logger)
		if err := writer.WriteArtifacts(optimizeOutDir, result); err != nil {
			return err
		}
	}

	if optimizePDF {
		if err := compileOptimized(cmd, result.RewrittenSource); err != nil {
			return err
		}
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(result, optimizeConfig); err != nil {
		return err
	}

	if threshold := cfg.Pipeline.ATSThreshold; threshold > 0 && result.After.Overall < threshold {
		return fmt.Errorf("post-rewrite score %.1f is below the required threshold %.1f",
			result.After.Overall, threshold)
	}
	return nil
}

// compileOptimized submits the rewritten source to the compile service and
// drops the PDF next to the other artifacts (or the working directory).
func compileOptimized(cmd *cobra.Command, source string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client := compile.NewClient(cfg.Compile, logger)
	pdf, err := client.Compile(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to compile optimized resume: %w", err)
	}

	dir := optimizeOutDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, "main_optimized.pdf")
	if err := os.WriteFile(path, pdf, 0600); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	logger.Info("PDF written", "path", path, "bytes", len(pdf))
	return nil
}

// watchAndRerun blocks on resume file changes and re-runs the optimization
// after each write. Errors in a watched run are logged, not fatal, so one
// bad intermediate save doesn't end the session.
func watchAndRerun(cmd *cobra.Command, args []string, assist pipeline.Assist) error {
	logger := getLoggerFromContext(cmd.Context())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("Failed to close file watcher", "error", err)
		}
	}()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	resumePath := args[0]
	if err := watcher.Add(filepath.Dir(resumePath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", resumePath, err)
	}

	logger.Info("Watching for changes", "file", resumePath)

	absResume, err := filepath.Abs(resumePath)
	if err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			absEvent, err := filepath.Abs(event.Name)
			if err != nil || absEvent != absResume {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Info("Resume changed, re-running", "event", event.Op.String())
			if err := runOptimizeOnce(cmd, args, assist); err != nil {
				logger.LogError(err, "Watched run failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}
