package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"resumeopt/internal/common"
	"resumeopt/internal/keywords"
	"resumeopt/internal/observability"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createOptimizeHandler wraps the optimize handler with observability
func (s *Server) createOptimizeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeopt.api")
		ctx, span := tracer.Start(ctx, "api.optimize")
		defer span.End()

		// Parse request
		var req OptimizeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if strings.TrimSpace(req.ResumeSource) == "" {
			err := fmt.Errorf("missing resume source")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume source", "resumeSource field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		// Size validation
		if len(req.ResumeSource) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("resume source too large: %d chars", len(req.ResumeSource))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Resume source too large", fmt.Sprintf("resumeSource exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeSource)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "optimize"),
		)

		job := types.ParseJobPosting(req.JobDescription)
		opts := common.PipelineOptions(s.AppConfig)

		assist, err := common.BuildAssist(s.AppConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI assist", err.Error(), http.StatusInternalServerError)
			return
		}

		// Track the operation with observability
		metrics := om.GetMetrics()
		var result *pipeline.Result
		err = metrics.TrackAIOperationWithTokens(ctx, "optimize", func(ctx context.Context) *observability.AIOperationResult {
			output, runErr := pipeline.Run(ctx, req.ResumeSource, job, opts, assist, s.Logger)
			if runErr == nil {
				result = output
			}
			return &observability.AIOperationResult{Error: runErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "pipeline_processing"))
			metrics.RecordBusinessMetric(ctx, "resume_optimized", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to optimize resume", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "resume_optimized", true, om,
			attribute.Int("rewrites", len(result.Plans)),
			attribute.Float64("score.before", result.Before.Overall),
			attribute.Float64("score.after", result.After.Overall))
		metrics.RecordScoreDelta(ctx, result.After.Overall-result.Before.Overall, om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.rewrites", len(result.Plans)),
			attribute.Float64("score.before", result.Before.Overall),
			attribute.Float64("score.after", result.After.Overall),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createScoreHandler wraps the score handler with observability
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeopt.api")
		ctx, span := tracer.Start(ctx, "api.score")
		defer span.End()

		var req ScoreRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation (similar to optimize)
		if strings.TrimSpace(req.ResumeSource) == "" {
			err := fmt.Errorf("missing resume source")
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume source", "resumeSource field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeSource)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "score"),
		)

		job := types.ParseJobPosting(req.JobDescription)
		opts := common.PipelineOptions(s.AppConfig)

		assist, err := common.BuildAssist(s.AppConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI assist", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result pipeline.ScoreOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
			entries, score, scoreErr := pipeline.Score(ctx, req.ResumeSource, job, opts, assist, s.Logger)
			if scoreErr == nil {
				result = pipeline.ScoreOutput{Job: job, Keywords: entries, Score: score}
			}
			return &observability.AIOperationResult{Error: scoreErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_scored", false, om)
			writeErrorResponse(w, "Failed to score resume", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_scored", true, om,
			attribute.Float64("score.overall", result.Score.Overall))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("score.overall", result.Score.Overall),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createKeywordsHandler wraps the keywords handler with observability
func (s *Server) createKeywordsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeopt.api")
		ctx, span := tracer.Start(ctx, "api.keywords")
		defer span.End()

		var req KeywordsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "keywords"),
		)

		job := types.ParseJobPosting(req.JobDescription)
		opts := common.PipelineOptions(s.AppConfig)

		assist, err := common.BuildAssist(s.AppConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI assist", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var entries []keywords.Entry
		err = metrics.TrackAIOperationWithTokens(ctx, "extract_keywords", func(ctx context.Context) *observability.AIOperationResult {
			if opts.UseAssist && assist != nil {
				extracted, extractErr := assist.ExtractKeywords(ctx, job.Description, opts.TopN)
				if extractErr != nil {
					s.Logger.Warn("Assist extraction failed, using rule-based extractor", "error", extractErr.Error())
				} else {
					entries = keywords.NormalizeEntries(extracted, opts.TopN)
				}
			}
			if len(entries) == 0 {
				entries = keywords.ExtractWithLexicon(job.Description, opts.TopN, opts.Lexicon)
			}
			return &observability.AIOperationResult{}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "keywords_extracted", false, om)
			writeErrorResponse(w, "Failed to extract keywords", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "keywords_extracted", true, om,
			attribute.Int("keyword_count", len(entries)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("keyword_count", len(entries)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
