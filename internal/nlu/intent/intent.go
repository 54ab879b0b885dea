// Package intent classifies a phrase into one of the fixed request
// intents. Classification runs over the placeholder-rewritten phrase, so
// rules can anchor on consumed entity positions ("где employee") instead
// of raw surface text.
package intent

import (
	"context"
	"regexp"
)

// Key identifies a request intent.
type Key string

const (
	// NextClass asks for the next upcoming class session.
	NextClass Key = "nextClass"
	// ClassList asks for the list of sessions on some day.
	ClassList Key = "classList"
	// ClassPeer asks who attends a group or session.
	ClassPeer Key = "classPeer"
	// UserClar declares the asker's own identity for their profile.
	UserClar Key = "userClar"
	// EmployeeInfo asks about a person.
	EmployeeInfo Key = "employeeInfo"
	// EducatorPlace asks where a person currently is.
	EducatorPlace Key = "educatorPlace"
	// BotInfo is the fallback: capability questions and anything else.
	BotInfo Key = "botInfo"
)

// All returns every recognized intent key.
func All() []Key {
	return []Key{NextClass, ClassList, ClassPeer, UserClar, EmployeeInfo, EducatorPlace, BotInfo}
}

// Valid reports whether k is a recognized intent key.
func (k Key) Valid() bool {
	for _, known := range All() {
		if k == known {
			return true
		}
	}
	return false
}

// Classifier maps a placeholder-rewritten phrase to an intent key. It
// must be a pure function of the phrase: no conversation state.
type Classifier interface {
	Classify(ctx context.Context, phrase string) (Key, error)
}

type rule struct {
	key Key
	re  *regexp.Regexp
}

// First matching rule wins, so more specific intents sit above the
// broader schedule ones.
var rules = []rule{
	{UserClar, regexp.MustCompile(`(?i)(?:я\s+(?:учусь|преподаю|работаю|из)|меня\s+зовут|мо[йя]\s+(?:group|групп[а-яё]*|имя)|запомни)`)},
	{EducatorPlace, regexp.MustCompile(`(?i)где\s+(?:сейчас\s+)?(?:сидит\s+|находится\s+)?employee`)},
	{EmployeeInfo, regexp.MustCompile(`(?i)(?:кто\s+так(?:ой|ая)|расскажи\s+(?:о[б]?|про)\s+employee|employee\s+кто|что\s+ведет\s+employee)`)},
	{ClassPeer, regexp.MustCompile(`(?i)(?:кто\s+(?:учится|ходит|будет|еще|ещё)|одногруппник|одноклассник|с\s+кем)`)},
	{ClassList, regexp.MustCompile(`(?i)(?:какие\s+(?:пары|уроки|занятия)|расписание|список\s+(?:пар|уроков)|что\s+(?:было\s+)?(?:у\s+\S+\s+)?day|(?:пары|уроки)\s+(?:на\s+)?day)`)},
	{NextClass, regexp.MustCompile(`(?i)(?:когда|во\s+сколько|следующ[а-яё]+|ближайш[а-яё]+|скоро)`)},
}

// RuleClassifier is the built-in keyword classifier.
type RuleClassifier struct{}

// NewRuleClassifier creates the keyword classifier.
func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

// Classify implements Classifier. Unmatched phrases fall back to BotInfo.
func (c *RuleClassifier) Classify(_ context.Context, phrase string) (Key, error) {
	for _, r := range rules {
		if r.re.MatchString(phrase) {
			return r.key, nil
		}
	}
	return BotInfo, nil
}
