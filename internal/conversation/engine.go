package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/wolfman30/campus-triage-bot/internal/observability/metrics"
	"github.com/wolfman30/campus-triage-bot/internal/textnorm"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

// ResetKeyword restarts a session from any stage.
const ResetKeyword = "reset"

// DefaultLongIllnessDays is the duration at which the bot recommends a doctor.
const DefaultLongIllnessDays = 5

// ErrInvalidDuration marks a duration answer that is not a non-negative integer.
var ErrInvalidDuration = errors.New("conversation: duration must be a whole number of days")

var greetingWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "greetings": {}, "hola": {},
}

var (
	affirmativeWords = map[string]struct{}{"yes": {}, "y": {}, "yeah": {}, "yep": {}, "sure": {}, "ok": {}, "okay": {}}
	negativeWords    = map[string]struct{}{"no": {}, "n": {}, "nope": {}, "nah": {}}
)

// SymptomMatcher finds catalogued symptoms in free text.
type SymptomMatcher interface {
	Match(input string) []string
}

// ConditionResolver picks the most likely condition for a symptom history.
type ConditionResolver interface {
	Resolve(symptoms []string) (string, bool)
}

// TreatmentLookup returns advice for a condition.
type TreatmentLookup interface {
	For(condition string) []string
}

// SlotConfirmer books the alternative slot a session was offered. It runs
// inside the session's update, so it must only touch the state it is given.
type SlotConfirmer interface {
	ConfirmPending(ctx context.Context, state *State) (Confirmation, error)
}

// Confirmation is a SlotConfirmer's answer. AfterCommit, when set, runs once
// the session update has been saved and the session is unlocked.
type Confirmation struct {
	Reply       string
	AfterCommit func(ctx context.Context)
}

// Engine drives the per-session dialogue.
type Engine struct {
	store      Store
	matcher    SymptomMatcher
	resolver   ConditionResolver
	treatments TreatmentLookup
	replies    Replies
	normalizer *textnorm.Normalizer
	confirmer  SlotConfirmer
	metrics    *metrics.TriageMetrics
	logger     *logging.Logger

	longIllnessDays int
}

// Option customizes an Engine.
type Option func(*Engine)

// WithReplies swaps the message provider.
func WithReplies(r Replies) Option {
	return func(e *Engine) { e.replies = r }
}

// WithSlotConfirmer lets yes/no answers complete a pending booking offer.
func WithSlotConfirmer(c SlotConfirmer) Option {
	return func(e *Engine) { e.confirmer = c }
}

// WithMetrics records turns and resolved conditions.
func WithMetrics(m *metrics.TriageMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithNormalizer sets the tokenizer used for greeting and yes/no detection.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

// WithLongIllnessDays sets the duration threshold for recommending a doctor.
func WithLongIllnessDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.longIllnessDays = days
		}
	}
}

// NewEngine wires the dialogue engine.
func NewEngine(store Store, matcher SymptomMatcher, resolver ConditionResolver, treatments TreatmentLookup, opts ...Option) *Engine {
	if store == nil || matcher == nil || resolver == nil || treatments == nil {
		panic("conversation: store, matcher, resolver and treatments are required")
	}
	e := &Engine{
		store:           store,
		matcher:         matcher,
		resolver:        resolver,
		treatments:      treatments,
		longIllnessDays: DefaultLongIllnessDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.replies == nil {
		e.replies = NewTemplateReplies("", nil)
	}
	if e.normalizer == nil {
		e.normalizer = textnorm.English()
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	return e
}

// Handle processes one inbound message for sessionID and returns the reply.
// On error the session is left exactly as it was.
func (e *Engine) Handle(ctx context.Context, sessionID, message string) (string, error) {
	var t turn
	err := e.store.Update(ctx, sessionID, func(st *State) error {
		from := st.Stage
		out, err := e.step(ctx, st, message)
		if err != nil {
			return err
		}
		t = out
		e.metrics.ObserveTurn(string(from), string(st.Stage))
		return nil
	})
	if err != nil {
		e.logger.Error("conversation: turn failed", "session_id", sessionID, "error", err)
		e.metrics.ObserveError("chat")
		return "", err
	}
	if t.afterCommit != nil {
		t.afterCommit(ctx)
	}
	return t.reply, nil
}

// turn is the outcome of one message: the reply and any work that must wait
// until the session is saved.
type turn struct {
	reply       string
	afterCommit func(ctx context.Context)
}

func said(reply string) turn { return turn{reply: reply} }

// step applies one message to st. It holds all the transition logic; the
// only I/O it triggers is through the SlotConfirmer.
func (e *Engine) step(ctx context.Context, st *State, message string) (turn, error) {
	text := strings.TrimSpace(message)
	if strings.EqualFold(text, ResetKeyword) {
		st.Reset()
		return said(e.reply(ReplyRestart, st, ReplyData{})), nil
	}

	switch st.Stage {
	case StageAwaitingName, "":
		return said(e.onName(st, text)), nil
	case StageAwaitingDuration:
		return said(e.onDuration(st, text)), nil
	default:
		return e.onChat(ctx, st, text)
	}
}

func (e *Engine) onName(st *State, text string) string {
	if text == "" {
		st.Stage = StageAwaitingName
		return e.reply(ReplyAskName, st, ReplyData{})
	}
	st.Name = text
	st.Stage = StageChatting
	return e.reply(ReplyGreeting, st, ReplyData{})
}

func (e *Engine) onDuration(st *State, text string) string {
	days, err := parseDays(text)
	if err != nil {
		return e.reply(ReplyInvalidDuration, st, ReplyData{})
	}
	st.DurationDays = &days
	st.Stage = StageChatting
	if days >= e.longIllnessDays {
		st.CampusPrompted = true
		return e.reply(ReplySeeDoctor, st, ReplyData{Days: days})
	}
	return e.reply(ReplyMonitor, st, ReplyData{Days: days})
}

func (e *Engine) onChat(ctx context.Context, st *State, text string) (turn, error) {
	tokens := e.normalizer.Tokens(text)

	if st.PendingSlot != nil {
		switch answerOf(tokens) {
		case answerYes:
			if e.confirmer != nil {
				c, err := e.confirmer.ConfirmPending(ctx, st)
				if err != nil {
					return turn{}, err
				}
				return turn{reply: c.Reply, afterCommit: c.AfterCommit}, nil
			}
			st.PendingSlot = nil
		case answerNo:
			st.PendingSlot = nil
			return said(e.reply(ReplyOfferDeclined, st, ReplyData{})), nil
		default:
			st.PendingSlot = nil
		}
	}

	if st.CampusPrompted {
		st.CampusPrompted = false
		switch answerOf(tokens) {
		case answerYes:
			return said(e.reply(ReplyCampusYes, st, ReplyData{})), nil
		case answerNo:
			return said(e.reply(ReplyCampusNo, st, ReplyData{})), nil
		}
	}

	if containsAny(tokens, greetingWords) {
		return said(e.reply(ReplyGreeting, st, ReplyData{})), nil
	}

	matched := e.matcher.Match(text)
	if len(matched) == 0 {
		return said(e.reply(ReplyNoMatch, st, ReplyData{})), nil
	}
	st.Symptoms = append(st.Symptoms, matched...)

	condition, ok := e.resolver.Resolve(st.Symptoms)
	if !ok {
		return said(e.reply(ReplyNeedDetail, st, ReplyData{})), nil
	}
	st.Condition = condition
	st.Stage = StageAwaitingDuration
	e.metrics.ObserveCondition(condition)

	diagnosis := e.reply(ReplyDiagnosis, st, ReplyData{Treatments: e.treatments.For(condition)})
	return said(diagnosis + "\n\n" + e.reply(ReplyAskDuration, st, ReplyData{})), nil
}

func (e *Engine) reply(kind ReplyKind, st *State, data ReplyData) string {
	data.Name = st.Name
	if data.Condition == "" {
		data.Condition = st.Condition
	}
	data.Threshold = e.longIllnessDays
	return e.replies.Reply(kind, data)
}

func parseDays(text string) (int, error) {
	days, err := strconv.Atoi(text)
	if err != nil || days < 0 {
		return 0, ErrInvalidDuration
	}
	return days, nil
}

type answer int

const (
	answerOther answer = iota
	answerYes
	answerNo
)

// answerOf reads a yes/no reply from its first word.
func answerOf(tokens []string) answer {
	if len(tokens) == 0 {
		return answerOther
	}
	if _, ok := affirmativeWords[tokens[0]]; ok {
		return answerYes
	}
	if _, ok := negativeWords[tokens[0]]; ok {
		return answerNo
	}
	return answerOther
}

func containsAny(tokens []string, set map[string]struct{}) bool {
	for _, tok := range tokens {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}
