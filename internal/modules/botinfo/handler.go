// Package botinfo implements the capability fallback intent.
package botinfo

import (
	"context"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
)

const capabilitiesText = "Я отвечаю на вопросы о расписании: когда следующая пара," +
	" какие занятия в какой день, кто и где преподает." +
	" Скажите, например: \"какие пары у группы 1491м завтра\"" +
	" или \"где сейчас Петров\"." +
	" Чтобы не называть группу каждый раз, представьтесь:" +
	" \"я учусь в группе 1491м\"."

// Handler answers capability questions and everything the classifier
// could not place.
type Handler struct{}

// NewHandler creates a botinfo handler.
func NewHandler() *Handler { return &Handler{} }

// Describe returns the capabilities text.
func (h *Handler) Describe(_ context.Context, _ string, _ *entity.Store) (string, error) {
	return capabilitiesText, nil
}
