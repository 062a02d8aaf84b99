package providers

import (
	"context"

	"github.com/sipeed/alfred/pkg/providers/protocoltypes"
)

type (
	GenerateRequest  = protocoltypes.GenerateRequest
	GenerateResponse = protocoltypes.GenerateResponse
	StatusError      = protocoltypes.StatusError
)

// TextGenerator is the narrow surface the NL service needs from a model
// backend: a prompt in, text out.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	GetDefaultModel() string
}
