package types

import (
	"strings"

	"github.com/tidwall/gjson"
)

// JobPosting is a job description as the pipeline consumes it. It comes in
// either as bare text or as a harvester JSON record; ParseJobPosting
// accepts both uniformly.
type JobPosting struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// ParseJobPosting sniffs raw for a harvester JSON record and falls back to
// treating the whole input as description text. Harvester records carry the
// description under "description" or "description_text".
func ParseJobPosting(raw string) JobPosting {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return JobPosting{Description: raw}
	}
	desc := gjson.Get(trimmed, "description").String()
	if desc == "" {
		desc = gjson.Get(trimmed, "description_text").String()
	}
	if desc == "" {
		// JSON without a description field is not a job record.
		return JobPosting{Description: raw}
	}
	return JobPosting{
		Title:       gjson.Get(trimmed, "title").String(),
		Company:     gjson.Get(trimmed, "company").String(),
		Location:    gjson.Get(trimmed, "location").String(),
		URL:         gjson.Get(trimmed, "url").String(),
		Description: desc,
	}
}

// OptimizeInput is the request shape shared by the CLI and the HTTP server.
type OptimizeInput struct {
	ResumeSource   string `json:"resumeSource"`
	JobDescription string `json:"jobDescription"`
}

// ScoreInput scores a resume without rewriting it.
type ScoreInput struct {
	ResumeSource   string `json:"resumeSource"`
	JobDescription string `json:"jobDescription"`
}

// ExtractInput extracts keywords from a job description alone.
type ExtractInput struct {
	JobDescription string `json:"jobDescription"`
	TopN           int    `json:"topN,omitempty"`
}
