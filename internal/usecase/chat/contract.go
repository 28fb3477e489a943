package chat

import (
	"context"

	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	"github.com/kailas-cloud/tribe/internal/transport/langflow"
)

// FlowRunner invokes the remote flow once.
type FlowRunner interface {
	Run(ctx context.Context, message string, tw tweaks.Map) (langflow.Response, error)
}

// Extractor pulls the answer text out of a flow reply.
type Extractor func(resp langflow.Response) (string, error)
