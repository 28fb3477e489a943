// Package chat orchestrates one chat submission end to end.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	"github.com/kailas-cloud/tribe/internal/logger"
	"github.com/kailas-cloud/tribe/internal/transport/langflow"
)

// Reply is the outcome of a successful submission.
type Reply struct {
	Text string
	// Extracted is false when the flow answered but no text could be found;
	// Text then holds domain.ExtractionFailureText.
	Extracted bool
}

// Service submits messages to the flow on behalf of a session.
type Service struct {
	flow    FlowRunner
	extract Extractor
}

// New creates a chat service. A nil extract uses langflow.ExtractMessage.
func New(flow FlowRunner, extract Extractor) *Service {
	if extract == nil {
		extract = langflow.ExtractMessage
	}
	return &Service{flow: flow, extract: extract}
}

// Submit appends text as a user message, overlays sel onto the session's
// parameter map and runs the flow. The answer is appended as an assistant
// message. When the flow call fails the user message stays in the log,
// nothing else is appended and the error is returned.
func (s *Service) Submit(ctx context.Context, sess *chat.Session, text string, sel facet.Selection) (Reply, error) {
	if facet.IsBlank(text) {
		return Reply{}, domain.ErrEmptyMessage
	}
	log := logger.FromContext(ctx).With(zap.String("session_id", sess.ID()))

	sess.Append(text, true)
	tw := sess.UpdateTweaks(func(m tweaks.Map) tweaks.Map {
		return tweaks.Apply(m, sel).WithChatInput(text)
	})

	start := time.Now()
	resp, err := s.flow.Run(ctx, text, tw)
	if err != nil {
		log.Warn("Flow run failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return Reply{}, fmt.Errorf("run flow: %w", err)
	}

	answer, err := s.extract(resp)
	extracted := err == nil
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) {
			return Reply{}, fmt.Errorf("extract answer: %w", err)
		}
		log.Warn("No answer text in flow reply", zap.Error(err))
	}

	sess.Append(answer, false)
	log.Debug("Chat reply appended",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("extracted", extracted),
		zap.Int("messages", sess.Len()),
	)
	return Reply{Text: answer, Extracted: extracted}, nil
}

// Clear empties the session's message log. Sticky filters are kept.
func (s *Service) Clear(sess *chat.Session) {
	sess.Clear()
}
