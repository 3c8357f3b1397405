package remote

import (
	"context"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// Generator calls a remote code generation service. The same endpoint
// serves first-pass generation and collaboration repairs; repairs carry the
// fix request alongside the blueprint.
type Generator struct {
	client *Client
}

// NewGenerator creates a CodeGenerator backed by the remote service.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

type generateRequest struct {
	Blueprint  *models.Blueprint  `json:"blueprint"`
	Platform   models.Platform    `json:"platform"`
	FixRequest *models.FixRequest `json:"fix_request,omitempty"`
}

type generateResponse struct {
	Code models.GeneratedCode `json:"code"`
}

// GenerateCode implements protocol.CodeGenerator.
func (g *Generator) GenerateCode(ctx context.Context, input protocol.GenerateInput) (*models.GeneratedCode, error) {
	req := generateRequest{
		Blueprint:  input.Blueprint,
		Platform:   input.Platform,
		FixRequest: input.FixRequest,
	}

	var resp generateResponse
	if err := g.client.post(ctx, "/v1/generate", req, &resp); err != nil {
		return nil, err
	}

	return &resp.Code, nil
}
