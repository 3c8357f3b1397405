package remote

import (
	"context"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// Runner calls a remote test execution service. A run that completes with
// failing steps is a successful invocation; only runner-level faults are
// returned as errors.
type Runner struct {
	client *Client
}

// NewRunner creates a TestRunner backed by the remote service.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

type runRequest struct {
	Code     *models.GeneratedCode `json:"code"`
	Platform models.Platform       `json:"platform"`
}

type runResponse struct {
	Result models.TestResult `json:"result"`
}

// RunTests implements protocol.TestRunner.
func (r *Runner) RunTests(ctx context.Context, input protocol.TestInput) (*models.TestResult, error) {
	req := runRequest{
		Code:     input.Code,
		Platform: input.Platform,
	}

	var resp runResponse
	if err := r.client.post(ctx, "/v1/run-tests", req, &resp); err != nil {
		return nil, err
	}

	return &resp.Result, nil
}
