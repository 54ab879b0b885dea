package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// State is the per-user conversation state persisted between turns.
// AnswerSubject non-empty means a clarification question is pending and
// the next phrase is its literal answer.
type State struct {
	Intent        intent.Key    `json:"intent,omitempty"`
	AnswerSubject entity.Kind   `json:"answer_subject,omitempty"`
	Pending       []Group       `json:"pending,omitempty"`
	Context       *entity.Store `json:"context,omitempty"`
}

// Awaiting reports whether a clarification question is pending.
func (s *State) Awaiting() bool {
	return s.AnswerSubject != ""
}

func loadState(ctx context.Context, db *storage.DB, userID string) (*State, error) {
	blob, err := db.GetConversation(ctx, userID)
	if errors.Is(err, domerrors.ErrNotFound) {
		return &State{Context: entity.NewStore()}, nil
	}
	if err != nil {
		return nil, err
	}

	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	if s.Context == nil {
		s.Context = entity.NewStore()
	}
	return &s, nil
}

func saveState(ctx context.Context, db *storage.DB, userID string, s *State) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	return db.SaveConversation(ctx, userID, blob)
}
