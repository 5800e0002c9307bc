package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumeopt/internal/keywords"
	"resumeopt/internal/pipeline"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "OptimizeResult", &OptimizeTextFormatter{})
	registry.RegisterFormatter("markdown", "OptimizeResult", &OptimizeMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreOutput", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreOutput", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "KeywordList", &KeywordsTextFormatter{})
	registry.RegisterFormatter("markdown", "KeywordList", &KeywordsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case pipeline.Result, *pipeline.Result:
		return "OptimizeResult"
	case pipeline.ScoreOutput, *pipeline.ScoreOutput:
		return "ScoreOutput"
	case []keywords.Entry:
		return "KeywordList"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func asOptimizeResult(data any) (*pipeline.Result, error) {
	switch v := data.(type) {
	case pipeline.Result:
		return &v, nil
	case *pipeline.Result:
		return v, nil
	default:
		return nil, fmt.Errorf("expected pipeline.Result, got %T", data)
	}
}

func asScoreOutput(data any) (*pipeline.ScoreOutput, error) {
	switch v := data.(type) {
	case pipeline.ScoreOutput:
		return &v, nil
	case *pipeline.ScoreOutput:
		return v, nil
	default:
		return nil, fmt.Errorf("expected pipeline.ScoreOutput, got %T", data)
	}
}

// OptimizeTextFormatter handles text formatting for optimization results
type OptimizeTextFormatter struct{}

func (otf *OptimizeTextFormatter) Format(data any) (string, error) {
	result, err := asOptimizeResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZATION SUMMARY ===\n")
	if result.Job.Title != "" {
		output.WriteString(fmt.Sprintf("Job: %s", result.Job.Title))
		if result.Job.Company != "" {
			output.WriteString(fmt.Sprintf(" at %s", result.Job.Company))
		}
		output.WriteString("\n")
	}
	output.WriteString(fmt.Sprintf("Score: %.1f -> %.1f\n\n", result.Before.Overall, result.After.Overall))

	output.WriteString("Subscores (before -> after):\n")
	output.WriteString(fmt.Sprintf("  Coverage:     %.1f -> %.1f\n", result.Before.Coverage, result.After.Coverage))
	output.WriteString(fmt.Sprintf("  Format:       %.1f -> %.1f\n", result.Before.Format, result.After.Format))
	output.WriteString(fmt.Sprintf("  Quality:      %.1f -> %.1f\n", result.Before.Quality, result.After.Quality))
	output.WriteString(fmt.Sprintf("  Distribution: %.1f -> %.1f\n\n", result.Before.Distribution, result.After.Distribution))

	if len(result.Plans) > 0 {
		output.WriteString("=== APPLIED REWRITES ===\n")
		for i, plan := range result.Plans {
			output.WriteString(fmt.Sprintf("%d. [block %d, delta %d] keywords: %s\n",
				i+1, plan.Block, plan.EditDelta, strings.Join(plan.Keywords, ", ")))
			output.WriteString(fmt.Sprintf("   - %s\n", plan.Original))
			output.WriteString(fmt.Sprintf("   + %s\n", plan.Replacement))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("No rewrites applied.\n\n")
	}

	if len(result.Skipped) > 0 {
		output.WriteString("=== SKIPPED KEYWORDS ===\n")
		for _, gap := range result.Skipped {
			output.WriteString(fmt.Sprintf("- %s: %s\n", gap.Term, gap.Reason))
		}
		output.WriteString("\n")
	}

	if len(result.Flags) > 0 {
		output.WriteString("=== FLAGS ===\n")
		for _, flag := range result.Flags {
			output.WriteString(fmt.Sprintf("- %s\n", flag))
		}
		output.WriteString("\n")
	}

	if result.Diff != "" {
		output.WriteString("=== DIFF ===\n")
		output.WriteString(result.Diff)
		if !strings.HasSuffix(result.Diff, "\n") {
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (otf *OptimizeTextFormatter) SupportedType() string {
	return "OptimizeResult"
}

// OptimizeMarkdownFormatter handles markdown formatting for optimization
// results. The pipeline already builds a full markdown report, so this
// formatter hands it through untouched.
type OptimizeMarkdownFormatter struct{}

func (omf *OptimizeMarkdownFormatter) Format(data any) (string, error) {
	result, err := asOptimizeResult(data)
	if err != nil {
		return "", err
	}
	return result.Report, nil
}

func (omf *OptimizeMarkdownFormatter) SupportedType() string {
	return "OptimizeResult"
}

// ScoreTextFormatter handles text formatting for score results
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, err := asScoreOutput(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== ATS SCORE ===\n")
	if result.Job.Title != "" {
		output.WriteString(fmt.Sprintf("Job: %s\n", result.Job.Title))
	}
	output.WriteString(fmt.Sprintf("Overall: %.1f/100\n\n", result.Score.Overall))
	output.WriteString(fmt.Sprintf("Coverage:     %.1f\n", result.Score.Coverage))
	output.WriteString(fmt.Sprintf("Format:       %.1f\n", result.Score.Format))
	output.WriteString(fmt.Sprintf("Quality:      %.1f\n", result.Score.Quality))
	output.WriteString(fmt.Sprintf("Distribution: %.1f\n\n", result.Score.Distribution))

	matched := result.Score.MatchedTerms()
	var missing []string
	for _, entry := range result.Keywords {
		if !matched[entry.Term] {
			missing = append(missing, entry.Term)
		}
	}
	sort.Strings(missing)

	output.WriteString(fmt.Sprintf("Keywords matched: %d/%d\n", len(matched), len(result.Keywords)))
	if len(missing) > 0 {
		output.WriteString("Missing:\n")
		for _, term := range missing {
			output.WriteString(fmt.Sprintf("- %s\n", term))
		}
	}

	if len(result.Score.Flags) > 0 {
		output.WriteString("\nFlags:\n")
		for _, flag := range result.Score.Flags {
			output.WriteString(fmt.Sprintf("- %s\n", flag))
		}
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreOutput"
}

// ScoreMarkdownFormatter handles markdown formatting for score results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, err := asScoreOutput(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# ATS Score\n\n")
	if result.Job.Title != "" {
		output.WriteString(fmt.Sprintf("**Job:** %s\n\n", result.Job.Title))
	}
	output.WriteString(fmt.Sprintf("**Overall:** %.1f/100\n\n", result.Score.Overall))

	output.WriteString("| Component | Score |\n")
	output.WriteString("|-----------|-------|\n")
	output.WriteString(fmt.Sprintf("| Coverage | %.1f |\n", result.Score.Coverage))
	output.WriteString(fmt.Sprintf("| Format | %.1f |\n", result.Score.Format))
	output.WriteString(fmt.Sprintf("| Quality | %.1f |\n", result.Score.Quality))
	output.WriteString(fmt.Sprintf("| Distribution | %.1f |\n\n", result.Score.Distribution))

	matched := result.Score.MatchedTerms()
	output.WriteString(fmt.Sprintf("**Keywords matched:** %d/%d\n\n", len(matched), len(result.Keywords)))

	var missing []string
	for _, entry := range result.Keywords {
		if !matched[entry.Term] {
			missing = append(missing, entry.Term)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		output.WriteString("## Missing Keywords\n\n")
		for _, term := range missing {
			output.WriteString(fmt.Sprintf("- %s\n", term))
		}
		output.WriteString("\n")
	}

	if len(result.Score.Flags) > 0 {
		output.WriteString("## Flags\n\n")
		for _, flag := range result.Score.Flags {
			output.WriteString(fmt.Sprintf("- %s\n", flag))
		}
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreOutput"
}

// KeywordsTextFormatter handles text formatting for keyword extraction results
type KeywordsTextFormatter struct{}

func (ktf *KeywordsTextFormatter) Format(data any) (string, error) {
	entries, ok := data.([]keywords.Entry)
	if !ok {
		return "", fmt.Errorf("expected []keywords.Entry, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== EXTRACTED KEYWORDS ===\n")
	if len(entries) == 0 {
		output.WriteString("No keywords extracted.\n")
		return output.String(), nil
	}

	for i, entry := range entries {
		output.WriteString(fmt.Sprintf("%2d. %-28s %.2f  %s", i+1, entry.Term, entry.Weight, entry.Category))
		if len(entry.Synonyms) > 0 {
			output.WriteString(fmt.Sprintf("  (%s)", strings.Join(entry.Synonyms, ", ")))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ktf *KeywordsTextFormatter) SupportedType() string {
	return "KeywordList"
}

// KeywordsMarkdownFormatter handles markdown formatting for keyword extraction results
type KeywordsMarkdownFormatter struct{}

func (kmf *KeywordsMarkdownFormatter) Format(data any) (string, error) {
	entries, ok := data.([]keywords.Entry)
	if !ok {
		return "", fmt.Errorf("expected []keywords.Entry, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Extracted Keywords\n\n")
	if len(entries) == 0 {
		output.WriteString("No keywords extracted.\n")
		return output.String(), nil
	}

	output.WriteString("| # | Term | Weight | Category | Synonyms |\n")
	output.WriteString("|---|------|--------|----------|----------|\n")
	for i, entry := range entries {
		output.WriteString(fmt.Sprintf("| %d | %s | %.2f | %s | %s |\n",
			i+1, entry.Term, entry.Weight, entry.Category, strings.Join(entry.Synonyms, ", ")))
	}

	return output.String(), nil
}

func (kmf *KeywordsMarkdownFormatter) SupportedType() string {
	return "KeywordList"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
