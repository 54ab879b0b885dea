package dialog

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrasage/sagebot-go/internal/catalog"
	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

type capturingHandler struct {
	calls []capturedCall
}

type capturedCall struct {
	key  intent.Key
	ents *entity.Store
}

func (h *capturingHandler) handlerFor(key intent.Key) Handler {
	return HandlerFunc(func(_ context.Context, _ string, ents *entity.Store) (string, error) {
		h.calls = append(h.calls, capturedCall{key: key, ents: ents})
		return "ответ:" + string(key), nil
	})
}

func testEngine(t *testing.T) (*Engine, *storage.DB, *capturingHandler) {
	t.Helper()
	return testEngineMetrics(t, nil)
}

func testEngineMetrics(t *testing.T, rec Recorder) (*Engine, *storage.DB, *capturingHandler) {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New("error")

	cat := catalog.New(log)
	require.NoError(t, cat.Load([]string{"математический анализ", "физика"}))

	orch := extract.NewOrchestrator(
		extract.NewOrganizationExtractor(),
		extract.NewEmployeeExtractor(),
		extract.NewGroupExtractor(),
		extract.NewSubgroupExtractor(),
		extract.NewClassExtractor(cat),
		extract.NewDayExtractor(),
		extract.NewPlaceExtractor(),
	)

	captured := &capturingHandler{}
	dispatcher := NewDispatcher()
	for _, key := range intent.All() {
		dispatcher.Register(key, captured.handlerFor(key))
	}

	engine, err := NewEngine(
		db, orch, intent.NewRuleClassifier(), cat, dispatcher,
		rand.New(rand.NewSource(1)), log, rec,
	)
	require.NoError(t, err)

	return engine, db, captured
}

func saveTestProfile(t *testing.T, db *storage.DB, userID string) {
	t.Helper()
	require.NoError(t, db.SaveProfile(context.Background(), &storage.Profile{
		UserID:        userID,
		Organization:  "югу",
		IsGroupMember: true,
		GroupName:     "1491м",
	}))
}

func TestWelcome(t *testing.T) {
	engine, db, _ := testEngine(t)
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		text, err := engine.Process(ctx, "new-user", "", nil, true)
		require.NoError(t, err)
		assert.Contains(t, text, "назовите свою образовательную")
		assert.Contains(t, text, "Можно спросить, что я умею.")
	})

	t.Run("group member", func(t *testing.T) {
		saveTestProfile(t, db, "student")
		text, err := engine.Process(ctx, "student", "", nil, true)
		require.NoError(t, err)
		assert.Contains(t, text, "Твоя группа 1491м")
		assert.Contains(t, text, "подгруппу ты не назвал")
	})

	t.Run("employee", func(t *testing.T) {
		require.NoError(t, db.SaveProfile(ctx, &storage.Profile{
			UserID:       "prof",
			Organization: "югу",
			FirstName:    "иван",
			LastName:     "петров",
		}))
		text, err := engine.Process(ctx, "prof", "", nil, true)
		require.NoError(t, err)
		assert.Contains(t, text, "Здравствуйте, петров иван!")
	})

	t.Run("welcome resets a pending question", func(t *testing.T) {
		_, err := engine.Process(ctx, "resetter", "когда следующая пара", nil, false)
		require.NoError(t, err)

		_, err = engine.Process(ctx, "resetter", "", nil, true)
		require.NoError(t, err)

		state, err := loadState(ctx, db, "resetter")
		require.NoError(t, err)
		assert.False(t, state.Awaiting())
	})
}

func TestDirectAnswerWithProfile(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()
	saveTestProfile(t, db, "u1")

	text, err := engine.Process(ctx, "u1", "я учусь в университете в группе 1491м", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "ответ:userClar", text)

	require.Len(t, captured.calls, 1)
	call := captured.calls[0]
	assert.Equal(t, intent.UserClar, call.key)

	group, ok := call.ents.Group()
	require.True(t, ok)
	assert.Equal(t, "1491м", group.Name)
	assert.True(t, call.ents.Contains(entity.KindOrganization))
}

func TestBotInfoFallback(t *testing.T) {
	engine, _, captured := testEngine(t)

	text, err := engine.Process(context.Background(), "u1", "что ты умеешь", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "ответ:botInfo", text)
	require.Len(t, captured.calls, 1)
	assert.Equal(t, intent.BotInfo, captured.calls[0].key)
}

// answerFor produces a literal answer that satisfies the given pending
// question subject.
func answerFor(k entity.Kind) string {
	switch k {
	case entity.KindGroup:
		return "1491м"
	case entity.KindEmployee:
		return "петров"
	case entity.KindPlace:
		return "аудитория 312"
	case entity.KindOrganization:
		return "югу"
	case entity.KindSubgroup:
		return "подгруппа 2"
	case entity.KindDay:
		return "завтра"
	case entity.KindClass:
		return "физика"
	}
	return ""
}

func TestClarificationRoundTrip(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()

	// No profile, no entities: the machine must start asking.
	text, err := engine.Process(ctx, "u1", "когда следующая пара", nil, false)
	require.NoError(t, err)

	for turn := 0; turn < 4; turn++ {
		state, stateErr := loadState(ctx, db, "u1")
		require.NoError(t, stateErr)
		if !state.Awaiting() {
			break
		}
		question, _ := questionFor(state.AnswerSubject)
		assert.Equal(t, question, text)

		text, err = engine.Process(ctx, "u1", answerFor(state.AnswerSubject), nil, false)
		require.NoError(t, err)
	}

	assert.Equal(t, "ответ:nextClass", text)
	require.Len(t, captured.calls, 1)
	call := captured.calls[0]
	assert.Equal(t, intent.NextClass, call.key)
	assert.True(t, call.ents.Contains(entity.KindOrganization))

	// One of the shuffled alternatives must have been collected.
	assert.True(t,
		call.ents.Contains(entity.KindGroup) ||
			call.ents.Contains(entity.KindEmployee) ||
			call.ents.Contains(entity.KindPlace))

	// The sub-dialog is finished.
	state, err := loadState(ctx, db, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting())
}

func TestUnparseableAnswerReasksSameQuestion(t *testing.T) {
	engine, db, _ := testEngine(t)
	ctx := context.Background()

	_, err := engine.Process(ctx, "u1", "когда следующая пара", nil, false)
	require.NoError(t, err)

	state, err := loadState(ctx, db, "u1")
	require.NoError(t, err)
	require.True(t, state.Awaiting())
	subject := state.AnswerSubject

	text, err := engine.Process(ctx, "u1", "?!", nil, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, retryPrefix))

	state, err = loadState(ctx, db, "u1")
	require.NoError(t, err)
	assert.Equal(t, subject, state.AnswerSubject)
}

func TestContextCarriesAcrossTurns(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()

	_, err := engine.Process(ctx, "u1", "какие пары у группы 1491м завтра в университете", nil, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 1)

	// The follow-up relies on the previous turn's group via "у них".
	_, err = engine.Process(ctx, "u1", "а когда у них физика", nil, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 2)

	call := captured.calls[1]
	assert.Equal(t, intent.NextClass, call.key)
	group, ok := call.ents.Group()
	require.True(t, ok)
	assert.Equal(t, "1491м", group.Name)

	_ = db
}

func TestClientEntitiesOverrideExtraction(t *testing.T) {
	engine, _, captured := testEngine(t)
	ctx := context.Background()

	client := entity.NewStore()
	client.Set(entity.Group{Name: "2251"})
	client.Set(entity.Organization{Name: "югу"})

	_, err := engine.Process(ctx, "u1", "когда следующая пара у группы 1491м", nil, false)
	require.NoError(t, err)
	captured.calls = nil

	_, err = engine.Process(ctx, "u2", "когда следующая пара у группы 1491м", client, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 1)

	group, ok := captured.calls[0].ents.Group()
	require.True(t, ok)
	assert.Equal(t, "2251", group.Name)
}

func TestProfileDoesNotOverrideNamedSubject(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()
	saveTestProfile(t, db, "u1")

	_, err := engine.Process(ctx, "u1", "когда следующая пара у группы 2251", nil, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 1)

	group, ok := captured.calls[0].ents.Group()
	require.True(t, ok)
	assert.Equal(t, "2251", group.Name)
}

func TestClassNameCorrectedToCatalog(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()
	saveTestProfile(t, db, "u1")

	_, err := engine.Process(ctx, "u1", "когда будет физике", nil, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 1)

	cls, ok := captured.calls[0].ents.Class()
	require.True(t, ok)
	assert.Equal(t, "физика", cls.Name)
}

func TestParseAnswerBareNumbers(t *testing.T) {
	t.Parallel()

	log := logger.New("error")
	cat := catalog.New(log)
	orch := extract.NewOrchestrator(
		extract.NewOrganizationExtractor(),
		extract.NewEmployeeExtractor(),
		extract.NewGroupExtractor(),
		extract.NewSubgroupExtractor(),
		extract.NewClassExtractor(cat),
		extract.NewDayExtractor(),
		extract.NewPlaceExtractor(),
	)

	v, ok := parseAnswer(entity.KindPlace, "312", orch)
	require.True(t, ok)
	assert.Equal(t, entity.Place{Room: "312"}, v)

	v, ok = parseAnswer(entity.KindSubgroup, "2", orch)
	require.True(t, ok)
	assert.Equal(t, entity.Subgroup{Name: "2"}, v)

	// Marker-word forms still go through the extractors.
	v, ok = parseAnswer(entity.KindPlace, "аудитория 312", orch)
	require.True(t, ok)
	assert.Equal(t, entity.Place{Room: "312"}, v)

	v, ok = parseAnswer(entity.KindSubgroup, "подгруппа 2", orch)
	require.True(t, ok)
	assert.Equal(t, entity.Subgroup{Name: "2"}, v)

	// Multi-digit numbers are not subgroup answers.
	_, ok = parseAnswer(entity.KindSubgroup, "12", orch)
	assert.False(t, ok)

	_, ok = parseAnswer(entity.KindPlace, "где-то", orch)
	assert.False(t, ok)
}

func TestBareNumberAnswersPendingQuestion(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()

	require.NoError(t, saveState(ctx, db, "u1", &State{
		Intent:        intent.NextClass,
		AnswerSubject: entity.KindPlace,
		Context:       entity.NewStore(),
	}))

	text, err := engine.Process(ctx, "u1", "312", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "ответ:nextClass", text)

	require.Len(t, captured.calls, 1)
	place, ok := captured.calls[0].ents.Place()
	require.True(t, ok)
	assert.Equal(t, "312", place.Room)
}

func TestDispatchRejectsEmptyAnswer(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Register(intent.BotInfo, HandlerFunc(
		func(context.Context, string, *entity.Store) (string, error) {
			return "  ", nil
		},
	))

	_, err := d.Dispatch(context.Background(), intent.BotInfo, "u1", entity.NewStore())
	assert.ErrorIs(t, err, domerrors.ErrEmptyAnswer)
}

func TestOrganizationNormalizedToStored(t *testing.T) {
	engine, db, captured := testEngine(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceLessons(ctx, "югу", []*storage.Lesson{{
		GroupName: "1491м",
		ClassName: "физика",
		Weekday:   1,
		StartsAt:  "08:30",
		EndsAt:    "10:00",
	}}))

	_, err := engine.Process(ctx, "u1", "какие пары у группы 1491м завтра в университете", nil, false)
	require.NoError(t, err)
	require.Len(t, captured.calls, 1)

	org, ok := captured.calls[0].ents.Organization()
	require.True(t, ok)
	assert.Equal(t, "югу", org.Name)
}

type fakeRecorder struct {
	turns          int
	clarifications []string
	extractions    []string
}

func (r *fakeRecorder) RecordTurn(string, bool) { r.turns++ }

func (r *fakeRecorder) RecordClarification(kind string) {
	r.clarifications = append(r.clarifications, kind)
}

func (r *fakeRecorder) RecordEntityExtraction(kind string) {
	r.extractions = append(r.extractions, kind)
}

func TestTurnMetricsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	engine, db, _ := testEngineMetrics(t, rec)
	ctx := context.Background()

	_, err := engine.Process(ctx, "u1", "когда следующая пара у группы 1491м", nil, false)
	require.NoError(t, err)

	state, err := loadState(ctx, db, "u1")
	require.NoError(t, err)
	require.True(t, state.Awaiting())

	assert.Equal(t, 1, rec.turns)
	assert.Equal(t, []string{string(state.AnswerSubject)}, rec.clarifications)
	assert.Contains(t, rec.extractions, string(entity.KindGroup))
}

func TestValidateRejectsMissingHandler(t *testing.T) {
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New("error")
	cat := catalog.New(log)
	orch := extract.NewOrchestrator(
		extract.NewOrganizationExtractor(),
		extract.NewEmployeeExtractor(),
		extract.NewGroupExtractor(),
		extract.NewSubgroupExtractor(),
		extract.NewClassExtractor(cat),
		extract.NewDayExtractor(),
		extract.NewPlaceExtractor(),
	)

	_, err = NewEngine(db, orch, intent.NewRuleClassifier(), cat, NewDispatcher(),
		rand.New(rand.NewSource(1)), log, nil)
	assert.Error(t, err)
}
