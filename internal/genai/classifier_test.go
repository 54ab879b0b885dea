package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

func TestNewClassifier_NilWithEmptyKey(t *testing.T) {
	t.Parallel()
	c, err := NewClassifier("", "some-model", "http://localhost/v1", DefaultRetryConfig(), logger.New("error"))
	if err != nil {
		t.Errorf("Expected nil error for empty key, got: %v", err)
	}
	if c != nil {
		t.Error("Expected nil classifier for empty key")
	}
}

func TestNewClassifier_RequiresModelAndEndpoint(t *testing.T) {
	t.Parallel()
	if _, err := NewClassifier("key", "", "http://localhost/v1", DefaultRetryConfig(), logger.New("error")); err == nil {
		t.Error("Expected error for missing model")
	}
	if _, err := NewClassifier("key", "model", "", DefaultRetryConfig(), logger.New("error")); err == nil {
		t.Error("Expected error for missing endpoint")
	}
}

func TestClassify_NilClassifier(t *testing.T) {
	t.Parallel()
	var c *Classifier
	if _, err := c.Classify(context.Background(), "привет"); err == nil {
		t.Error("Expected error from nil classifier")
	}
	if c.Enabled() {
		t.Error("nil classifier must report disabled")
	}
}

func TestParseChoice(t *testing.T) {
	t.Parallel()

	toolResp := func(name string) *openai.ChatCompletion {
		var tc openai.ChatCompletionMessageToolCallUnion
		tc.Type = "function"
		tc.Function.Name = name
		return &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ChatCompletionMessageToolCallUnion{tc},
				},
			}},
		}
	}

	key, err := parseChoice(toolResp("next_class"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != intent.NextClass {
		t.Errorf("Expected %s, got %s", intent.NextClass, key)
	}

	if _, err := parseChoice(toolResp("nonsense")); err == nil {
		t.Error("Expected error for unknown function name")
	}
	if _, err := parseChoice(nil); err == nil {
		t.Error("Expected error for nil response")
	}
	if _, err := parseChoice(&openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{}}}); err == nil {
		t.Error("Expected error when no tool call present")
	}
}

func TestFunctionIntentsCoverAllKeys(t *testing.T) {
	t.Parallel()

	seen := make(map[intent.Key]bool)
	for _, key := range functionIntents {
		seen[key] = true
	}
	for _, key := range intent.All() {
		if !seen[key] {
			t.Errorf("Intent %s has no tool function", key)
		}
	}
	if len(functionDescriptions) != len(functionIntents) {
		t.Errorf("Description count %d does not match function count %d",
			len(functionDescriptions), len(functionIntents))
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	if d := backoff(0, time.Second, 10*time.Second); d != 0 {
		t.Errorf("Expected zero delay for first attempt, got %v", d)
	}
	for attempt := 1; attempt <= 5; attempt++ {
		d := backoff(attempt, 500*time.Millisecond, 2*time.Second)
		if d < 0 || d > 2*time.Second {
			t.Errorf("Attempt %d: delay %v out of bounds", attempt, d)
		}
	}
}

func TestSleepRespectsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("Zero duration sleep should be immediate, got %v", err)
	}
}

type stubClassifier struct {
	key intent.Key
	err error
}

func (s *stubClassifier) Classify(context.Context, string) (intent.Key, error) {
	return s.key, s.err
}

func TestFallbackClassifier(t *testing.T) {
	t.Parallel()

	log := logger.New("error")

	t.Run("primary wins when healthy", func(t *testing.T) {
		t.Parallel()
		fc, err := NewFallbackClassifier(
			&stubClassifier{key: intent.NextClass},
			&stubClassifier{key: intent.BotInfo},
			log,
		)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		key, err := fc.Classify(context.Background(), "когда пара")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if key != intent.NextClass {
			t.Errorf("Expected primary result, got %s", key)
		}
	})

	t.Run("falls back on primary error", func(t *testing.T) {
		t.Parallel()
		fc, err := NewFallbackClassifier(
			&stubClassifier{err: errors.New("api down")},
			&stubClassifier{key: intent.ClassList},
			log,
		)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		key, err := fc.Classify(context.Background(), "какие пары")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if key != intent.ClassList {
			t.Errorf("Expected fallback result, got %s", key)
		}
	})

	t.Run("fallback callback fires", func(t *testing.T) {
		t.Parallel()
		fc, err := NewFallbackClassifier(
			&stubClassifier{err: errors.New("api down")},
			&stubClassifier{key: intent.ClassList},
			log,
		)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		fired := 0
		fc.OnFallback(func() { fired++ })
		if _, err := fc.Classify(context.Background(), "расписание"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if fired != 1 {
			t.Errorf("OnFallback fired %d times, want 1", fired)
		}
	})

	t.Run("nil primary goes straight to fallback", func(t *testing.T) {
		t.Parallel()
		fc, err := NewFallbackClassifier(nil, &stubClassifier{key: intent.BotInfo}, log)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		key, err := fc.Classify(context.Background(), "привет")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if key != intent.BotInfo {
			t.Errorf("Expected fallback result, got %s", key)
		}
	})

	t.Run("requires fallback", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFallbackClassifier(nil, nil, log); err == nil {
			t.Error("Expected error when fallback is nil")
		}
	})
}
