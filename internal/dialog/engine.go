package dialog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/ugrasage/sagebot-go/internal/catalog"
	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
	"github.com/ugrasage/sagebot-go/internal/nlu/resolve"
	"github.com/ugrasage/sagebot-go/internal/storage"
	"github.com/ugrasage/sagebot-go/internal/stringutil"
)

// Recorder receives per-turn dialog metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordTurn(intentKey string, clarification bool)
	RecordClarification(kind string)
	RecordEntityExtraction(kind string)
}

// Engine runs the slot-filling state machine: one call per user phrase,
// producing the bot's reply and updating the persisted conversation
// state. Turns of the same user are serialized; different users proceed
// concurrently.
type Engine struct {
	db         *storage.DB
	orch       *extract.Orchestrator
	classifier intent.Classifier
	catalog    *catalog.Catalog
	dispatcher *Dispatcher
	logger     *logger.Logger
	metrics    Recorder

	rngMu sync.Mutex
	rng   *rand.Rand

	locks *keyedMutex
}

// NewEngine creates a dialog engine. rng orders shuffle-eligible
// requirement groups; pass a seeded source for deterministic tests.
// metrics may be nil.
func NewEngine(
	db *storage.DB,
	orch *extract.Orchestrator,
	classifier intent.Classifier,
	cat *catalog.Catalog,
	dispatcher *Dispatcher,
	rng *rand.Rand,
	log *logger.Logger,
	metrics Recorder,
) (*Engine, error) {
	if err := dispatcher.Validate(orch); err != nil {
		return nil, err
	}
	return &Engine{
		db:         db,
		orch:       orch,
		classifier: classifier,
		catalog:    cat,
		dispatcher: dispatcher,
		rng:        rng,
		logger:     log.WithModule("dialog"),
		metrics:    metrics,
		locks:      newKeyedMutex(),
	}, nil
}

// Process handles one user turn. clientEnts are entities the client
// already resolved on its side; they override extraction. welcome resets
// the conversation and greets the user instead of answering.
func (e *Engine) Process(ctx context.Context, userID, phrase string, clientEnts *entity.Store, welcome bool) (string, error) {
	unlock := e.locks.lock(userID)
	defer unlock()

	profile, err := e.db.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, domerrors.ErrNotFound) {
		return "", err
	}

	if welcome {
		if err := e.db.DeleteConversation(ctx, userID); err != nil {
			return "", err
		}
		return welcomeMessage(profile), nil
	}

	state, err := loadState(ctx, e.db, userID)
	if err != nil {
		return "", err
	}

	if state.Awaiting() {
		return e.processAnswer(ctx, userID, phrase, state)
	}
	return e.processFresh(ctx, userID, phrase, clientEnts, profile, state)
}

// processFresh handles a turn with no pending question: full extraction,
// reference and context resolution, profile defaulting, then requirement
// evaluation for the classified intent.
func (e *Engine) processFresh(
	ctx context.Context,
	userID, phrase string,
	clientEnts *entity.Store,
	profile *storage.Profile,
	state *State,
) (string, error) {
	store, residual := e.orch.Extract(phrase)
	if e.metrics != nil {
		for _, k := range store.PresentKinds() {
			e.metrics.RecordEntityExtraction(string(k))
		}
	}

	if clientEnts != nil {
		for _, k := range clientEnts.PresentKinds() {
			if v, ok := clientEnts.Get(k); ok {
				store.Set(v)
			}
		}
	}

	key, err := e.classifier.Classify(ctx, residual)
	if err != nil {
		e.logger.WithUser(userID).WithError(err).Warn("Intent classification failed, falling back")
		key = intent.BotInfo
	}
	if !key.Valid() {
		return "", fmt.Errorf("%w: %s", domerrors.ErrUnknownIntent, key)
	}

	refs := extract.ExtractRefs(residual)
	resolve.ContextFill(store, state.Context, refs)

	// Context snapshot is taken before profile defaulting, so the
	// asker's own identity never leaks into later turns as context.
	snapshot := store.Clone()

	resolve.ProfileFill(store, toResolveProfile(profile), refs)
	e.correctEntities(ctx, store)

	res := e.evaluateLocked(Requirements(key), store)
	if !res.satisfied {
		question, _ := questionFor(res.ask)
		next := &State{Intent: key, AnswerSubject: res.ask, Pending: res.remaining, Context: store}
		if err := saveState(ctx, e.db, userID, next); err != nil {
			return "", err
		}
		e.record(key, true)
		e.recordAsk(res.ask)
		return question, nil
	}

	text, err := e.dispatcher.Dispatch(ctx, key, userID, store)
	if err != nil {
		return "", err
	}

	next := &State{Intent: key, Context: snapshot}
	if err := saveState(ctx, e.db, userID, next); err != nil {
		return "", err
	}
	e.record(key, false)
	return text, nil
}

// processAnswer handles a turn whose phrase is the literal answer to the
// pending question. Extraction is not re-run; the store is rebuilt from
// the saved full snapshot and the saved pending requirement is resumed.
func (e *Engine) processAnswer(ctx context.Context, userID, phrase string, state *State) (string, error) {
	subject := state.AnswerSubject
	question, _ := questionFor(subject)

	answer := strings.TrimSpace(phrase)
	if answer == "" {
		return retryPrefix + question, nil
	}

	store := state.Context.Clone()
	v, ok := parseAnswer(subject, answer, e.orch)
	if !ok {
		return retryPrefix + question, nil
	}
	store.Set(v)
	e.correctEntities(ctx, store)

	key := state.Intent
	res := e.evaluateLocked(state.Pending, store)
	if !res.satisfied {
		nextQuestion, _ := questionFor(res.ask)
		next := &State{Intent: key, AnswerSubject: res.ask, Pending: res.remaining, Context: store}
		if err := saveState(ctx, e.db, userID, next); err != nil {
			return "", err
		}
		e.record(key, true)
		e.recordAsk(res.ask)
		return nextQuestion, nil
	}

	text, err := e.dispatcher.Dispatch(ctx, key, userID, store)
	if err != nil {
		return "", err
	}

	// The pre-question context survives the sub-dialog unchanged.
	next := &State{Intent: key, Context: state.Context}
	if err := saveState(ctx, e.db, userID, next); err != nil {
		return "", err
	}
	e.record(key, false)
	return text, nil
}

// correctEntities normalizes open-vocabulary entities against the stored
// rosters: organizations to the key lessons are stored under, class
// names to their canonical catalog spelling, employees to a roster
// record with an external id. Best effort; unknown values pass through
// as extracted.
func (e *Engine) correctEntities(ctx context.Context, store *entity.Store) {
	e.correctOrganization(ctx, store)

	if cls, ok := store.Class(); ok && e.catalog != nil {
		if canonical, found := e.catalog.Correct(cls.Name); found && canonical != cls.Name {
			store.Set(entity.Class{Name: canonical, Spec: cls.Spec})
		}
	}

	emp, ok := store.Employee()
	if !ok || emp.ExternalID != "" {
		return
	}
	org := ""
	if o, hasOrg := store.Organization(); hasOrg {
		org = o.Name
	}
	found, err := e.db.FindEmployees(ctx, org, emp.Name.Last, emp.Name.First, emp.Name.Patronymic)
	if err != nil || len(found) != 1 {
		return
	}
	match := found[0]
	store.Set(entity.Employee{
		Name: entity.PersonName{
			First:      match.FirstName,
			Last:       match.LastName,
			Patronymic: match.Patronymic,
		},
		ExternalID: match.ID,
	})
}

// correctOrganization maps a raw organization mention, which arrives as
// inflected surface text ("в югорском университете"), to the name the
// schedule data is stored under. A unique stem overlap with a known
// organization wins; a mention made of bare institution nouns
// ("в университете") names the only organization when a single one is
// loaded.
func (e *Engine) correctOrganization(ctx context.Context, store *entity.Store) {
	org, ok := store.Organization()
	if !ok {
		return
	}
	known, err := e.db.ListOrganizations(ctx)
	if err != nil || len(known) == 0 {
		return
	}
	for _, k := range known {
		if k == org.Name {
			return
		}
	}

	mention := orgStems(org.Name)
	match, matches := "", 0
	for _, k := range known {
		if stemsOverlap(mention, orgStems(k)) {
			match = k
			matches++
		}
	}
	switch {
	case matches == 1:
		store.Set(entity.Organization{Name: match})
	case matches == 0 && len(known) == 1 && extract.IsGenericOrgName(org.Name):
		store.Set(entity.Organization{Name: known[0]})
	}
}

func orgStems(name string) map[string]struct{} {
	stems := make(map[string]struct{})
	for _, f := range strings.Fields(stringutil.Lower(name)) {
		if stringutil.IsCyrillicWord(f) && len([]rune(f)) >= 3 {
			stems[stringutil.Stem(f)] = struct{}{}
		}
	}
	return stems
}

func stemsOverlap(a, b map[string]struct{}) bool {
	for s := range a {
		if _, ok := b[s]; ok {
			return true
		}
	}
	return false
}

// evaluateLocked guards the shared rand source; rand.Rand is not safe
// for concurrent use and turns of different users run in parallel.
func (e *Engine) evaluateLocked(groups []Group, store *entity.Store) evalResult {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return evaluate(groups, store, e.rng)
}

func (e *Engine) record(key intent.Key, clarification bool) {
	if e.metrics != nil {
		e.metrics.RecordTurn(string(key), clarification)
	}
}

func (e *Engine) recordAsk(kind entity.Kind) {
	if e.metrics != nil {
		e.metrics.RecordClarification(string(kind))
	}
}

func toResolveProfile(p *storage.Profile) *resolve.Profile {
	if p == nil {
		return nil
	}
	return &resolve.Profile{
		Organization:  p.Organization,
		IsGroupMember: p.IsGroupMember,
		Group:         p.GroupName,
		Subgroup:      p.Subgroup,
		Name: entity.PersonName{
			First:      p.FirstName,
			Last:       p.LastName,
			Patronymic: p.Patronymic,
		},
		EmployeeID: p.EmployeeID,
	}
}

// welcomeMessage greets a user on the welcome/reset path, reflecting
// their stored identity back at them.
func welcomeMessage(profile *storage.Profile) string {
	var msg string
	switch {
	case profile == nil:
		msg = "Здравствуйте! Пожалуйста, назовите свою образовательную" +
			" организацию, а также группу, если вы учащийся, или имя, если" +
			" вы преподаватель."
	case profile.IsGroupMember:
		msg = fmt.Sprintf("Привет! Твоя группа %s, а ", profile.GroupName)
		if profile.Subgroup == "" {
			msg += "подгруппу ты не назвал."
		} else {
			msg += fmt.Sprintf("подгруппа %s.", profile.Subgroup)
		}
	default:
		fullName := strings.TrimSpace(strings.Join([]string{
			profile.LastName, profile.FirstName, profile.Patronymic,
		}, " "))
		msg = fmt.Sprintf("Здравствуйте, %s!", fullName)
	}
	return msg + " Можно спросить, что я умею."
}
