// Package genai provides LLM-backed intent classification through any
// OpenAI-compatible chat completion API. This file declares the tool
// functions the model chooses between: one per recognized intent.
package genai

import (
	"github.com/openai/openai-go/v3"

	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

// functionIntents maps tool function names to intent keys.
var functionIntents = map[string]intent.Key{
	"next_class":     intent.NextClass,
	"class_list":     intent.ClassList,
	"class_peer":     intent.ClassPeer,
	"declare_self":   intent.UserClar,
	"employee_info":  intent.EmployeeInfo,
	"educator_place": intent.EducatorPlace,
	"bot_info":       intent.BotInfo,
}

var functionDescriptions = []struct {
	name        string
	description string
}{
	{"next_class", "Вопрос о ближайшем или следующем занятии. Примеры: «когда следующая пара», «во сколько завтра физика»"},
	{"class_list", "Вопрос о расписании на день: какие занятия и сколько их. Примеры: «какие пары завтра», «расписание на понедельник»"},
	{"class_peer", "Вопрос о том, кто ведет занятие или с кем оно проходит. Примеры: «с кем у нас лаба», «кто ведет матанализ»"},
	{"declare_self", "Пользователь представляется или сообщает свою группу. Примеры: «я из группы 1491м», «я Иванов Петр, преподаватель»"},
	{"employee_info", "Вопрос о том, кто такой сотрудник: должность, кафедра. Примеры: «кто такой Петров», «расскажи про Сидорову»"},
	{"educator_place", "Вопрос о том, где сейчас находится преподаватель. Примеры: «где сейчас Петров», «в какой аудитории Сидорова»"},
	{"bot_info", "Вопрос о самом боте или фраза вне остальных тем. Примеры: «что ты умеешь», «привет»"},
}

// buildTools converts the intent functions to the chat completion tool
// format. Every function takes no parameters: entity extraction stays
// on our side, the model only picks the intent.
func buildTools() []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(functionDescriptions))
	for _, fd := range functionDescriptions {
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.name,
			Description: openai.String(fd.description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		}))
	}
	return tools
}
