// Package compile submits LaTeX sources to a remote compilation service
// and returns the produced PDF. The pipeline treats compilation as an
// optional verification step; a disabled client is a valid client.
package compile

import (
	"bytes"
	"context"
	"fmt"

	"resumeopt/internal/config"
	"resumeopt/internal/errors"

	"github.com/go-resty/resty/v2"
)

var pdfMagic = []byte("%PDF")

// Client talks to the remote LaTeX compilation endpoint.
type Client struct {
	http    *resty.Client
	cfg     config.CompileConfig
	logger  *errors.Logger
	enabled bool
}

// compileRequest is the wire shape the compile service accepts.
type compileRequest struct {
	Source string `json:"source"`
	Engine string `json:"engine"`
}

// NewClient builds a compile client from configuration. When compilation
// is disabled the returned client rejects Compile calls with a clear error,
// so callers can hold one unconditionally.
func NewClient(cfg config.CompileConfig, logger *errors.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/pdf")

	return &Client{
		http:    client,
		cfg:     cfg,
		logger:  logger,
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether the client is configured to compile.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Compile sends source to the remote service and returns the PDF bytes.
// The response body is sniffed for the PDF magic number so a service that
// answers 200 with an error page still fails loudly.
func (c *Client) Compile(ctx context.Context, source string) ([]byte, error) {
	if !c.enabled {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Compilation is disabled; set compile.enabled and compile.endpoint", nil)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(compileRequest{Source: source, Engine: c.cfg.Engine}).
		Post("/compile")
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeCompilationFailed,
			"Compile service request failed", err)
	}

	if resp.IsError() {
		c.logger.Warn("Compile service returned an error",
			"status", resp.StatusCode(),
			"engine", c.cfg.Engine,
			"body_length", len(resp.Body()))
		return nil, errors.NewNetworkError(errors.ErrCodeCompilationFailed,
			fmt.Sprintf("Compile service returned status %d", resp.StatusCode()), nil)
	}

	body := resp.Body()
	if !bytes.HasPrefix(body, pdfMagic) {
		return nil, errors.NewInternalError(errors.ErrCodeCompilationFailed,
			"Compile service response is not a PDF", nil)
	}

	c.logger.Debug("Compilation succeeded",
		"engine", c.cfg.Engine,
		"pdf_bytes", len(body))
	return body, nil
}
