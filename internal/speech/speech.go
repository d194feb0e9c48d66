package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/vpay/internal/errs"
)

// Transcriber turns captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// StaticTranscriber answers every non-empty recording with the same
// transcript. It stands in for a real speech backend in development.
type StaticTranscriber struct {
	Transcript string
}

func (s StaticTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio: %w", errs.ErrTranscriptionFailed)
	}
	text := strings.TrimSpace(s.Transcript)
	if text == "" {
		return "", fmt.Errorf("no transcript configured: %w", errs.ErrTranscriptionFailed)
	}
	return text, nil
}
