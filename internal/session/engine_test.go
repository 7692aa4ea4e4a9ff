package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrastaplay/game-platform/internal/question"
	"github.com/arrastaplay/game-platform/internal/settings"
)

type stubAnnouncer struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (s *stubAnnouncer) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func (s *stubAnnouncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *stubAnnouncer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func (s *stubAnnouncer) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type stubIllustrator struct {
	mu         sync.Mutex
	calls      int
	failPrompt bool
	failImage  bool
	gateFirst  chan struct{} // first GenerateImage call blocks until closed
}

func (s *stubIllustrator) DerivePrompt(_ context.Context, text string, _ question.Subject) (string, error) {
	if s.failPrompt {
		return "", fmt.Errorf("prompt service down")
	}
	return "draw: " + text, nil
}

func (s *stubIllustrator) GenerateImage(_ context.Context, prompt string) (question.Image, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	gate := s.gateFirst
	s.mu.Unlock()

	if first && gate != nil {
		<-gate
	}
	if s.failImage {
		return question.Image{}, fmt.Errorf("image service down")
	}
	return question.Image{Src: "data:image/png;base64,Zm9v", Alt: prompt}, nil
}

func (s *stubIllustrator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubHaptics struct {
	mu       sync.Mutex
	patterns [][]time.Duration
}

func (s *stubHaptics) Pulse(pattern ...time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
}

func (s *stubHaptics) Patterns() [][]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]time.Duration(nil), s.patterns...)
}

type stubSettings struct {
	mu      sync.Mutex
	current settings.Settings
}

func (s *stubSettings) Current() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *stubSettings) set(v settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Publish(_ uuid.UUID, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) byType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func testQuestion(id, answer, hint string) question.Question {
	return question.Question{
		ID:      id,
		Subject: question.SubjectMath,
		Level:   question.LevelOne,
		Prompt:  "prompt for " + id,
		Illustration: question.Image{
			Src: "/assets/" + id + ".png",
			Alt: "bundled " + id,
		},
		Options: []question.Option{
			{Value: answer, Color: "#43AA8B"},
			{Value: "wrong-a", Color: "#F94144"},
			{Value: "wrong-b", Color: "#577590"},
		},
		Answer: answer,
		Hint:   hint,
		Celebration: question.Celebration{
			Kind: question.CelebrationGif,
			Src:  "/assets/celebrations/" + id + ".gif",
			Alt:  "celebration",
		},
	}
}

type testEnv struct {
	engine      *Engine
	announcer   *stubAnnouncer
	illustrator *stubIllustrator
	haptics     *stubHaptics
	settings    *stubSettings
	sink        *captureSink
	completed   []int
}

func newTestEnv(t *testing.T, questions []question.Question, opts Options) *testEnv {
	t.Helper()

	env := &testEnv{
		announcer:   &stubAnnouncer{},
		illustrator: &stubIllustrator{},
		haptics:     &stubHaptics{},
		settings:    &stubSettings{},
		sink:        &captureSink{},
	}
	deps := Deps{
		Announcer:   env.announcer,
		Illustrator: env.illustrator,
		Haptics:     env.haptics,
		Settings:    env.settings,
		Events:      env.sink,
		OnComplete: func(score, total int) {
			env.completed = append(env.completed, score)
		},
	}
	if opts.HintDelay == 0 {
		opts.HintDelay = 15 * time.Millisecond
	}
	env.engine = NewEngine(uuid.New(), question.SubjectMath, question.LevelOne, questions, deps, opts, zerolog.Nop())
	return env
}

// answerFor returns the correct answer of the currently presented question.
func (env *testEnv) answerFor(v View) string {
	for _, q := range env.engine.questions {
		if q.ID == v.Question.ID {
			return q.Answer
		}
	}
	return ""
}

func TestShuffleIsPermutationAndFixed(t *testing.T) {
	var qs []question.Question
	for i := 0; i < 10; i++ {
		qs = append(qs, testQuestion(fmt.Sprintf("q-%d", i), "x", "hint"))
	}

	env := newTestEnv(t, qs, Options{Rand: rand.New(rand.NewSource(7))})
	env.engine.Start()

	order := env.engine.Order()
	require.Len(t, order, len(qs))

	sorted := append([]string(nil), order...)
	sort.Strings(sorted)
	var want []string
	for _, q := range qs {
		want = append(want, q.ID)
	}
	sort.Strings(want)
	assert.Equal(t, want, sorted, "shuffled order must be a permutation of the filtered set")

	// Order is fixed for the session's lifetime.
	assert.Equal(t, order, env.engine.Order())
	first := env.engine.Snapshot().Question.ID
	assert.Equal(t, first, env.engine.Snapshot().Question.ID)
}

func TestFullPlaythrough(t *testing.T) {
	qs := []question.Question{
		testQuestion("q1", "4", "count again"),
		testQuestion("q2", "cat", "it purrs"),
	}
	env := newTestEnv(t, qs, Options{})
	env.engine.Start()

	// First question: wrong drop shows incorrect feedback and schedules a hint.
	v := env.engine.Snapshot()
	res, err := env.engine.SubmitDrop("dog")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, FeedbackIncorrect, env.engine.Snapshot().Feedback)

	assert.Eventually(t, func() bool {
		return env.engine.Snapshot().HintVisible
	}, time.Second, 5*time.Millisecond, "hint should appear after the delay")

	// Retry with the correct value.
	res, err = env.engine.SubmitDrop(env.answerFor(v))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 1, res.Score)

	v = env.engine.Snapshot()
	assert.Equal(t, FeedbackCorrect, v.Feedback)
	require.NotNil(t, v.Question.Celebration)

	// Acknowledge advances with a fully reset attempt.
	require.NoError(t, env.engine.Acknowledge())
	v = env.engine.Snapshot()
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, FeedbackNone, v.Feedback)
	assert.False(t, v.DragOver)
	assert.False(t, v.HintVisible)
	assert.Nil(t, v.Question.Celebration)

	// Second question answered on the first try.
	res, err = env.engine.SubmitDrop(env.answerFor(v))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.Score)

	require.NoError(t, env.engine.Acknowledge())
	v = env.engine.Snapshot()
	assert.Equal(t, StateComplete, v.State)
	assert.Equal(t, 2, v.Score)
	assert.Equal(t, []int{2}, env.completed, "final score reported once")

	completeEvents := env.sink.byType(EventSessionComplete)
	require.Len(t, completeEvents, 1)
	assert.Equal(t, SessionCompletePayload{Score: 2, Total: 2}, completeEvents[0].Payload)
}

func TestCorrectDropNeverSchedulesHint(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("4")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, env.engine.Snapshot().HintVisible)
	assert.Empty(t, env.sink.byType(EventHintShown))

	patterns := env.haptics.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, patterns[0])
}

func TestIncorrectDropHapticsAndHint(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "count the apples")}, Options{})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("banana") // not an option value at all
	require.NoError(t, err)
	assert.Equal(t, FeedbackIncorrect, env.engine.Snapshot().Feedback)

	patterns := env.haptics.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 50 * time.Millisecond, 200 * time.Millisecond}, patterns[0])

	assert.Eventually(t, func() bool {
		return env.engine.Snapshot().HintVisible
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "count the apples", env.engine.Snapshot().Question.Hint)

	hints := env.sink.byType(EventHintShown)
	require.Len(t, hints, 1)
}

func TestRetryCancelsPendingHint(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{HintDelay: 40 * time.Millisecond})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("wrong-a")
	require.NoError(t, err)

	// A new drop before the delay elapses cancels the pending hint.
	_, err = env.engine.SubmitDrop("4")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, env.engine.Snapshot().HintVisible)
	assert.Empty(t, env.sink.byType(EventHintShown))
}

func TestConsecutiveWrongDropsKeepSingleHintTimer(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{HintDelay: 30 * time.Millisecond})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("wrong-a")
	require.NoError(t, err)
	_, err = env.engine.SubmitDrop("wrong-b")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(env.sink.byType(EventHintShown)) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Len(t, env.sink.byType(EventHintShown), 1, "only the latest timer may fire")
}

func TestAcknowledgeIncorrectKeepsIndexAndScore(t *testing.T) {
	env := newTestEnv(t, []question.Question{
		testQuestion("q1", "4", "hint"),
		testQuestion("q2", "cat", "hint"),
	}, Options{})
	env.engine.Start()

	before := env.engine.Snapshot()
	_, err := env.engine.SubmitDrop("nope")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return env.engine.Snapshot().HintVisible
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.engine.Acknowledge())
	after := env.engine.Snapshot()
	assert.Equal(t, before.Index, after.Index)
	assert.Equal(t, before.Question.ID, after.Question.ID)
	assert.Equal(t, 0, after.Score)
	assert.Equal(t, FeedbackNone, after.Feedback)
	assert.False(t, after.HintVisible)
}

func TestDropRejectedWhileAwaitingAck(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("4")
	require.NoError(t, err)

	_, err = env.engine.SubmitDrop("4")
	assert.ErrorIs(t, err, ErrAwaitingAck)
	assert.Equal(t, 1, env.engine.Snapshot().Score, "score increments only once per question")
}

func TestAcknowledgeWithoutFeedback(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()
	assert.ErrorIs(t, env.engine.Acknowledge(), ErrNoFeedback)
}

func TestEmptyQuestionSet(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	env.engine.Start()

	v := env.engine.Snapshot()
	assert.Equal(t, StateNoQuestions, v.State)
	assert.Nil(t, v.Question)

	_, err := env.engine.SubmitDrop("anything")
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.ErrorIs(t, env.engine.Acknowledge(), ErrNoQuestions)
}

func TestOperationsAfterComplete(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("4")
	require.NoError(t, err)
	require.NoError(t, env.engine.Acknowledge())

	_, err = env.engine.SubmitDrop("4")
	assert.ErrorIs(t, err, ErrSessionComplete)
	assert.ErrorIs(t, env.engine.Acknowledge(), ErrSessionComplete)
}

func TestReducedMotionSkipsIllustrationRequest(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.settings.set(settings.Settings{ReducedMotion: true})
	env.engine.Start()

	v := env.engine.Snapshot()
	assert.False(t, v.Question.Generating)
	assert.Equal(t, "/assets/q1.png", v.Question.Illustration.Src)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, env.illustrator.Calls(), "no illustration request may be issued")
}

func TestIllustrationSuccess(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()

	assert.Eventually(t, func() bool {
		v := env.engine.Snapshot()
		return !v.Question.Generating && v.Question.Illustration.Src != ""
	}, time.Second, 5*time.Millisecond)

	v := env.engine.Snapshot()
	assert.Contains(t, v.Question.Illustration.Src, "data:image/png;base64")
}

func TestIllustrationFailureFallsBackToBundled(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.illustrator.failImage = true
	env.engine.Start()

	assert.Eventually(t, func() bool {
		v := env.engine.Snapshot()
		return !v.Question.Generating
	}, time.Second, 5*time.Millisecond)

	v := env.engine.Snapshot()
	assert.Equal(t, "/assets/q1.png", v.Question.Illustration.Src)

	events := env.sink.byType(EventIllustration)
	require.NotEmpty(t, events)
	payload := events[len(events)-1].Payload.(IllustrationPayload)
	assert.False(t, payload.Generated)
}

func TestIllustrationDiscardedAfterClose(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.illustrator.gateFirst = make(chan struct{})
	env.engine.Start()

	env.engine.Close()
	close(env.illustrator.gateFirst)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, env.sink.byType(EventIllustration), "no state update after teardown")
}

func TestStaleIllustrationDiscardedOnNextQuestion(t *testing.T) {
	env := newTestEnv(t, []question.Question{
		testQuestion("q1", "4", "hint"),
		testQuestion("q2", "cat", "hint"),
	}, Options{})
	env.illustrator.gateFirst = make(chan struct{})
	env.engine.Start()

	// Answer the first question while its illustration is still in flight.
	first := env.engine.Snapshot()
	_, err := env.engine.SubmitDrop(env.answerFor(first))
	require.NoError(t, err)
	require.NoError(t, env.engine.Acknowledge())

	// Second question's request completes normally.
	assert.Eventually(t, func() bool {
		return !env.engine.Snapshot().Question.Generating
	}, time.Second, 5*time.Millisecond)
	applied := env.engine.Snapshot().Question.Illustration

	// Releasing the stale first request must not overwrite the current image.
	close(env.illustrator.gateFirst)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, applied, env.engine.Snapshot().Question.Illustration)
	assert.Len(t, env.sink.byType(EventIllustration), 1)
}

func TestSpeechFollowsTextToSpeechSetting(t *testing.T) {
	env := newTestEnv(t, []question.Question{
		testQuestion("q1", "4", "hint"),
		testQuestion("q2", "cat", "hint"),
	}, Options{})
	env.engine.Start()
	assert.Empty(t, env.announcer.Spoken(), "tts disabled by default")

	env.settings.set(settings.Settings{TextToSpeech: true})
	v := env.engine.Snapshot()
	_, err := env.engine.SubmitDrop(env.answerFor(v))
	require.NoError(t, err)
	require.NoError(t, env.engine.Acknowledge())

	spoken := env.announcer.Spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, env.engine.Snapshot().Question.Prompt, spoken[0])
}

func TestCloseStopsSpeechAndHintTimer(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{HintDelay: 30 * time.Millisecond})
	env.engine.Start()

	_, err := env.engine.SubmitDrop("wrong-a")
	require.NoError(t, err)

	env.engine.Close()
	assert.Equal(t, 1, env.announcer.Stops())

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, env.sink.byType(EventHintShown), "pending hint must not fire after teardown")

	_, err = env.engine.SubmitDrop("4")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestDragOverFlag(t *testing.T) {
	env := newTestEnv(t, []question.Question{testQuestion("q1", "4", "hint")}, Options{})
	env.engine.Start()

	require.NoError(t, env.engine.SetDragOver(true))
	assert.True(t, env.engine.Snapshot().DragOver)
	require.NoError(t, env.engine.SetDragOver(false))
	assert.False(t, env.engine.Snapshot().DragOver)
}
