package genai

import (
	"context"
	"errors"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

// FallbackClassifier tries the primary classifier and degrades to the
// fallback when the primary fails or is not configured. In practice
// the primary is the LLM and the fallback is the rule classifier, so
// the dialog keeps working through API outages.
type FallbackClassifier struct {
	primary    intent.Classifier
	fallback   intent.Classifier
	logger     *logger.Logger
	onFallback func()
}

// NewFallbackClassifier wires a primary and a fallback classifier.
// primary may be nil; fallback must not be.
func NewFallbackClassifier(primary, fallback intent.Classifier, log *logger.Logger) (*FallbackClassifier, error) {
	if fallback == nil {
		return nil, errors.New("fallback classifier is required")
	}
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithModule("genai"),
	}, nil
}

// Classify implements intent.Classifier.
func (f *FallbackClassifier) Classify(ctx context.Context, phrase string) (intent.Key, error) {
	if f.primary != nil {
		key, err := f.primary.Classify(ctx, phrase)
		if err == nil {
			return key, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.logger.WithError(err).Warn("Primary classifier failed, using rules")
		if f.onFallback != nil {
			f.onFallback()
		}
	}
	return f.fallback.Classify(ctx, phrase)
}

// OnFallback sets a callback invoked each time the primary classifier
// fails and the fallback takes over.
func (f *FallbackClassifier) OnFallback(fn func()) {
	f.onFallback = fn
}
