package remote

import (
	"context"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// Analyzer calls a remote document analysis service.
type Analyzer struct {
	client *Client
}

// NewAnalyzer creates a DocumentAnalyzer backed by the remote service.
func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

type analyzeRequest struct {
	Document     []byte          `json:"document,omitempty"`
	Instruction  string          `json:"instruction,omitempty"`
	PlatformHint models.Platform `json:"platform_hint"`
	Parameters   map[string]any  `json:"parameters,omitempty"`
}

type analyzeResponse struct {
	Blueprint models.Blueprint `json:"blueprint"`
}

// AnalyzeDocument implements protocol.DocumentAnalyzer.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, input protocol.AnalyzeInput) (*models.Blueprint, error) {
	req := analyzeRequest{
		Document:     input.Document,
		Instruction:  input.Instruction,
		PlatformHint: input.PlatformHint,
		Parameters:   input.Parameters,
	}

	var resp analyzeResponse
	if err := a.client.post(ctx, "/v1/analyze", req, &resp); err != nil {
		return nil, err
	}

	return &resp.Blueprint, nil
}
