package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/question"
	"github.com/arrastaplay/game-platform/internal/settings"
)

// Feedback is the evaluation state of the current attempt.
type Feedback string

const (
	FeedbackNone      Feedback = "none"
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// State is the coarse session lifecycle presented to the shell.
type State string

const (
	StatePlaying     State = "playing"
	StateComplete    State = "complete"
	StateNoQuestions State = "no_questions"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionComplete = errors.New("session already complete")
	ErrNoQuestions     = errors.New("no questions for this subject and level")
	ErrAwaitingAck     = errors.New("correct feedback must be acknowledged first")
	ErrNoFeedback      = errors.New("no feedback to acknowledge")
)

// Announcer speaks question prompts aloud. Speak cancels any prior utterance.
type Announcer interface {
	Speak(text string)
	Stop()
}

// IllustrationProvider produces a generated image for a question in two steps.
// Either step may fail; the engine treats the pair as one fallible unit.
type IllustrationProvider interface {
	DerivePrompt(ctx context.Context, questionText string, subject question.Subject) (string, error)
	GenerateImage(ctx context.Context, prompt string) (question.Image, error)
}

// Haptics emits a vibration pattern. Implementations must be a no-op when the
// capability is unsupported.
type Haptics interface {
	Pulse(pattern ...time.Duration)
}

// SettingsSource exposes the live accessibility settings. The engine reads it
// on every question start so mid-session toggles take effect immediately.
type SettingsSource interface {
	Current() settings.Settings
}

// Deps are the engine's external collaborators. Any of them may be nil.
type Deps struct {
	Announcer   Announcer
	Illustrator IllustrationProvider
	Haptics     Haptics
	Settings    SettingsSource
	Events      EventSink
	OnComplete  func(score, total int)
}

// Options tune gameplay timing. Zero values fall back to defaults.
type Options struct {
	HintDelay       time.Duration
	HapticCorrect   []time.Duration
	HapticIncorrect []time.Duration
	Rand            *rand.Rand
}

const defaultHintDelay = time.Second

func (o Options) withDefaults() Options {
	if o.HintDelay <= 0 {
		o.HintDelay = defaultHintDelay
	}
	if len(o.HapticCorrect) == 0 {
		o.HapticCorrect = []time.Duration{100 * time.Millisecond}
	}
	if len(o.HapticIncorrect) == 0 {
		o.HapticIncorrect = []time.Duration{200 * time.Millisecond, 50 * time.Millisecond, 200 * time.Millisecond}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// attemptState is the transient per-question state. It is replaced wholesale
// every time a question starts.
type attemptState struct {
	dragOver     bool
	feedback     Feedback
	hintVisible  bool
	hintTimer    *time.Timer
	illustration question.Image
	generating   bool
}

// Engine drives one play-through of the filtered question set for a chosen
// subject and level. All state transitions happen under a single mutex;
// asynchronous completions (hint timer, illustration fetch) re-acquire it and
// validate a generation counter before applying, so results belonging to an
// earlier question or a closed session are discarded.
type Engine struct {
	mu sync.Mutex

	id      uuid.UUID
	subject question.Subject
	level   question.Level

	questions []question.Question // shuffled once, fixed for the session
	index     int
	score     int
	started   bool
	complete  bool
	closed    bool

	// gen invalidates in-flight illustration results; hintGen invalidates
	// pending hint timers. Both advance on every attempt reset.
	gen     uint64
	hintGen uint64

	attempt attemptState

	deps   Deps
	opts   Options
	logger zerolog.Logger
}

// NewEngine shuffles the filtered questions with an unbiased Fisher-Yates
// permutation and returns an engine ready to Start. An empty question slice
// yields an engine in the distinct no-questions state.
func NewEngine(id uuid.UUID, subject question.Subject, level question.Level, questions []question.Question, deps Deps, opts Options, logger zerolog.Logger) *Engine {
	opts = opts.withDefaults()

	shuffled := make([]question.Question, len(questions))
	copy(shuffled, questions)
	opts.Rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return &Engine{
		id:        id,
		subject:   subject,
		level:     level,
		questions: shuffled,
		attempt:   attemptState{feedback: FeedbackNone},
		deps:      deps,
		opts:      opts,
		logger:    logger.With().Str("session_id", id.String()).Logger(),
	}
}

// ID returns the session identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// Empty reports whether the filtered question set was empty.
func (e *Engine) Empty() bool { return len(e.questions) == 0 }

// Order returns question IDs in presentation order. The order is fixed for
// the lifetime of the session.
func (e *Engine) Order() []string {
	ids := make([]string, len(e.questions))
	for i, q := range e.questions {
		ids[i] = q.ID
	}
	return ids
}

// Start presents the first question. Calling it again is a no-op; the
// shuffled order never changes mid-session.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started || e.closed || e.Empty() {
		return
	}
	e.started = true
	e.startQuestionLocked(0)
}

// DropResult is returned to the caller of SubmitDrop.
type DropResult struct {
	Correct bool
	Score   int
}

// SubmitDrop evaluates a dropped option value against the current question's
// answer by exact string comparison. Values that match no option are treated
// as ordinary wrong answers. A drop is rejected only while an acknowledged
// correct answer is pending; after incorrect feedback the player may retry
// directly, which cancels the previously scheduled hint.
func (e *Engine) SubmitDrop(value string) (DropResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.playableLocked(); err != nil {
		return DropResult{}, err
	}
	if e.attempt.feedback == FeedbackCorrect {
		return DropResult{}, ErrAwaitingAck
	}

	e.stopHintTimerLocked()

	q := e.questions[e.index]
	correct := value == q.Answer

	if correct {
		e.score++
		e.attempt.feedback = FeedbackCorrect
		e.attempt.hintVisible = false
		e.pulse(e.opts.HapticCorrect)
		dropsEvaluated.WithLabelValues("correct").Inc()
	} else {
		e.attempt.feedback = FeedbackIncorrect
		e.pulse(e.opts.HapticIncorrect)
		e.scheduleHintLocked()
		dropsEvaluated.WithLabelValues("incorrect").Inc()
	}

	e.publish(EventDropResult, DropResultPayload{Value: value, Correct: correct, Score: e.score})
	return DropResult{Correct: correct, Score: e.score}, nil
}

// Acknowledge dismisses the visible feedback. After a correct answer it
// advances to the next question or completes the session, reporting the final
// score. After an incorrect answer it clears feedback and hint so the player
// can retry the same question with no penalty.
func (e *Engine) Acknowledge() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.playableLocked(); err != nil {
		return err
	}

	switch e.attempt.feedback {
	case FeedbackCorrect:
		if e.index+1 < len(e.questions) {
			e.index++
			e.startQuestionLocked(e.index)
			return nil
		}
		e.completeLocked()
		return nil
	case FeedbackIncorrect:
		e.stopHintTimerLocked()
		e.attempt.feedback = FeedbackNone
		e.attempt.hintVisible = false
		return nil
	default:
		return ErrNoFeedback
	}
}

// SetDragOver updates the drag-over highlight flag for the current attempt.
func (e *Engine) SetDragOver(over bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.playableLocked(); err != nil {
		return err
	}
	e.attempt.dragOver = over
	return nil
}

// Close tears the session down: cancels the pending hint timer, stops any
// in-flight speech, and invalidates in-flight illustration results so nothing
// mutates state after teardown. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.gen++
	e.stopHintTimerLocked()
	if e.deps.Announcer != nil {
		e.deps.Announcer.Stop()
	}
}

func (e *Engine) playableLocked() error {
	switch {
	case e.closed:
		return ErrSessionClosed
	case e.Empty():
		return ErrNoQuestions
	case e.complete:
		return ErrSessionComplete
	}
	return nil
}

// startQuestionLocked resets the attempt state, announces the prompt when
// text-to-speech is on, and kicks off illustration acquisition.
func (e *Engine) startQuestionLocked(index int) {
	e.gen++
	e.stopHintTimerLocked()
	e.attempt = attemptState{feedback: FeedbackNone}

	q := e.questions[index]
	prefs := e.settings()

	if prefs.TextToSpeech && e.deps.Announcer != nil {
		e.deps.Announcer.Speak(q.Prompt)
	}

	if prefs.ReducedMotion || e.deps.Illustrator == nil {
		e.attempt.illustration = q.Illustration
		e.publish(EventIllustration, IllustrationPayload{Image: q.Illustration, Generated: false})
	} else {
		e.attempt.generating = true
		go e.fetchIllustration(e.gen, q)
	}

	e.publish(EventQuestionStarted, QuestionStartedPayload{
		QuestionID: q.ID,
		Index:      index,
		Total:      len(e.questions),
		Prompt:     q.Prompt,
	})
}

// fetchIllustration runs the two-step request off the engine goroutine. The
// captured generation value gates the state update: if a newer question
// started or the session closed meanwhile, the result is dropped on the floor.
func (e *Engine) fetchIllustration(gen uint64, q question.Question) {
	ctx := context.Background()

	img := q.Illustration
	generated := false

	prompt, err := e.deps.Illustrator.DerivePrompt(ctx, q.Prompt, q.Subject)
	if err == nil {
		img, err = e.deps.Illustrator.GenerateImage(ctx, prompt)
		generated = err == nil
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("question_id", q.ID).Msg("illustration generation failed, using bundled image")
		img = q.Illustration
		illustrationFallbacks.Inc()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		return
	}
	e.attempt.generating = false
	e.attempt.illustration = img
	e.publish(EventIllustration, IllustrationPayload{Image: img, Generated: generated})
}

func (e *Engine) scheduleHintLocked() {
	gen := e.gen
	seq := e.hintGen
	e.attempt.hintTimer = time.AfterFunc(e.opts.HintDelay, func() {
		e.revealHint(gen, seq)
	})
}

func (e *Engine) revealHint(gen, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen || seq != e.hintGen || e.attempt.feedback != FeedbackIncorrect {
		return
	}
	e.attempt.hintVisible = true
	e.publish(EventHintShown, HintShownPayload{Hint: e.questions[e.index].Hint})
}

// stopHintTimerLocked cancels the pending hint and invalidates a timer that
// already fired but has not taken the lock yet.
func (e *Engine) stopHintTimerLocked() {
	if e.attempt.hintTimer != nil {
		e.attempt.hintTimer.Stop()
		e.attempt.hintTimer = nil
	}
	e.hintGen++
}

func (e *Engine) completeLocked() {
	e.complete = true
	e.gen++
	e.stopHintTimerLocked()
	sessionsCompleted.Inc()

	e.publish(EventSessionComplete, SessionCompletePayload{Score: e.score, Total: len(e.questions)})
	if e.deps.OnComplete != nil {
		e.deps.OnComplete(e.score, len(e.questions))
	}
	e.logger.Info().Int("score", e.score).Int("total", len(e.questions)).Msg("session complete")
}

func (e *Engine) settings() settings.Settings {
	if e.deps.Settings == nil {
		return settings.Settings{}
	}
	return e.deps.Settings.Current()
}

func (e *Engine) pulse(pattern []time.Duration) {
	if e.deps.Haptics != nil {
		e.deps.Haptics.Pulse(pattern...)
	}
}

func (e *Engine) publish(eventType string, payload any) {
	if e.deps.Events != nil {
		e.deps.Events.Publish(e.id, Event{Type: eventType, Payload: payload})
	}
}
