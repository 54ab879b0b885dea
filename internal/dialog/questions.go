package dialog

import (
	"strings"

	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Clarification questions per entity kind.
var questions = map[entity.Kind]string{
	entity.KindOrganization: "Назовите, пожалуйста, вашу образовательную организацию.",
	entity.KindGroup:        "Какая группа вас интересует?",
	entity.KindSubgroup:     "Какая подгруппа?",
	entity.KindClass:        "О какой дисциплине идет речь?",
	entity.KindEmployee:     "О каком преподавателе идет речь?",
	entity.KindDay:          "На какой день?",
	entity.KindPlace:        "В какой аудитории?",
}

const retryPrefix = "Не удалось разобрать ответ. "

// questionFor returns the clarification question for a kind.
func questionFor(k entity.Kind) (string, bool) {
	q, ok := questions[k]
	return q, ok
}

// parseAnswer binds a raw free-text answer to the pending entity kind.
// The kind's normal extractor runs over the answer; kinds whose values
// are open vocabulary (organization, class, employee surname) accept
// the trimmed literal text when the extractor finds nothing, and the
// numeric kinds (subgroup, place) accept a bare number.
func parseAnswer(kind entity.Kind, answer string, orch *extract.Orchestrator) (entity.Value, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, false
	}

	if ex := orch.ByKind(kind); ex != nil {
		if _, v, ok := ex.Extract(answer); ok {
			return v, true
		}
	}

	// The extractors anchor numbers on marker words ("подгруппа 2",
	// "аудитория 312"); the question already named the subject, so a bare
	// number is a complete answer here.
	literal := stringutil.Lower(answer)
	switch kind {
	case entity.KindOrganization:
		return entity.Organization{Name: literal}, true
	case entity.KindClass:
		return entity.Class{Name: literal}, true
	case entity.KindSubgroup:
		if stringutil.IsNumeric(literal) && len(literal) == 1 && literal != "0" {
			return entity.Subgroup{Name: literal}, true
		}
	case entity.KindPlace:
		if stringutil.IsNumeric(literal) {
			return entity.Place{Room: literal}, true
		}
	case entity.KindEmployee:
		if !stringutil.IsCyrillicWord(strings.ReplaceAll(literal, " ", "")) {
			return nil, false
		}
		return entity.Employee{Name: entity.PersonName{Last: strings.Fields(literal)[0]}}, true
	}

	return nil, false
}
