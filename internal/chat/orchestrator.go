// Package chat runs one chat exchange for a session: the harm confirmation
// gate, the invocation gate and the streamed reply from the upstream model.
//
// Short state changes happen under the session lock via Update. The streamed
// reply itself runs outside the lock and is folded back in with Commit, which
// drops the reply if consent changed or the chat was cleared meanwhile.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"witchmart/internal/harm"
	"witchmart/internal/invocation"
	"witchmart/internal/platform/metrics"
	"witchmart/internal/platform/tracer"
	"witchmart/internal/session"
	"witchmart/internal/transparency"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/platform/circuit"
)

const defaultUpstreamTimeout = 60 * time.Second

// Sessions is the slice of the session manager the orchestrator needs.
type Sessions interface {
	Load(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error)
	Commit(ctx context.Context, id string, consent session.ConsentRecord, fn func(*session.Session) error) error
}

// Sink receives reply fragments as they arrive. An error means the caller is
// gone and the reply is abandoned.
type Sink func(fragment string) error

// ResultKind is the terminal outcome of a Submit or Confirm.
type ResultKind int

const (
	// ResultConfirmHarm asks the user to confirm a flagged message.
	ResultConfirmHarm ResultKind = iota
	// ResultHint carries a static hint; nothing was streamed.
	ResultHint
	// ResultReply means the streamed reply completed and was recorded.
	ResultReply
	// ResultFallback means the upstream failed and the fallback turn was recorded.
	ResultFallback
	// ResultAborted means the reply was abandoned and nothing was recorded.
	ResultAborted
)

func (k ResultKind) String() string {
	switch k {
	case ResultConfirmHarm:
		return "confirm_harm"
	case ResultHint:
		return "hint"
	case ResultReply:
		return "reply"
	case ResultFallback:
		return "fallback"
	case ResultAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result describes how an exchange ended.
type Result struct {
	Kind ResultKind
	// Stage and Warning are set for ResultConfirmHarm.
	Stage   int
	Warning string
	// Text is the hint, the full reply or the fallback text.
	Text string
}

// History is the visible chat state of a session.
type History struct {
	Turns        []session.Turn
	State        invocation.State
	PendingStage int
}

type Option func(*Orchestrator)

// WithBreaker replaces the upstream circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.breaker = b
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithUpstreamTimeout bounds a whole upstream reply. Non-positive values keep
// the default of 60s.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator decides what happens to each chat message.
type Orchestrator struct {
	sessions Sessions
	source   FrameSource
	recorder *transparency.Recorder
	breaker  *circuit.Breaker
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	inflight *Inflight
	timeout  time.Duration
	now      func() time.Time
}

func NewOrchestrator(sessions Sessions, source FrameSource, recorder *transparency.Recorder, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions: sessions,
		source:   source,
		recorder: recorder,
		breaker:  circuit.New("upstream"),
		tracer:   tracer.NewNoop(),
		logger:   logger,
		inflight: NewInflight(),
		timeout:  defaultUpstreamTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Inflight exposes the registry of streaming replies so revocation and
// shutdown can abort them.
func (o *Orchestrator) Inflight() *Inflight {
	return o.inflight
}

// stream is a reply registered inside the session lock and run after it.
type stream struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	release   func()
	sessionID string
	prefix    string
	consent   session.ConsentRecord
	turns     []session.Turn
}

func (s *stream) done() {
	s.release()
	s.cancel(nil)
}

// Submit handles a new user message. Fragments of a streamed reply are passed
// to sink as they arrive.
func (o *Orchestrator) Submit(ctx context.Context, sessionID, text string, sink Sink) (result Result, err error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanChatSubmit)
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, result.Kind.String()))
		span.End(err)
	}()

	var st *stream
	_, err = o.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		span.SetAttributes(tracer.String(tracer.AttrSessionPrefix, sess.IDPrefix()))
		if err := o.precheck(sess); err != nil {
			return err
		}
		o.recorder.WatchUserText(sess, text)
		if sess.Pending != nil {
			// a new message abandons the one waiting for confirmation
			o.logEvent(sess, transparency.EventHarmWarningCancelled, transparency.StageDetails(sess.Pending.Stage))
			o.metrics.IncrementHarmConfirmation("cancelled")
			sess.Pending = nil
		}
		if !sess.HarmWarningsMuted {
			triggered := harm.DetectTriggers(text)
			o.metrics.IncrementHarmScan("chat", triggered)
			if triggered {
				o.metrics.IncrementHarmTriggers("chat", harm.MatchedTriggers(text))
				sess.Pending = &session.PendingHarm{Text: text, Stage: 1, CreatedAt: o.now().UTC()}
				o.logEvent(sess, transparency.EventHarmWarningShown, transparency.StageDetails(1))
				o.metrics.IncrementHarmConfirmation("shown")
				result = Result{Kind: ResultConfirmHarm, Stage: 1, Warning: Warning(1)}
				return nil
			}
		}
		var gateErr error
		result, st, gateErr = o.gate(ctx, sess, text)
		return gateErr
	})
	if err != nil {
		if st != nil {
			st.done()
		}
		return Result{}, err
	}
	if st == nil {
		return result, nil
	}
	return o.run(ctx, st, sink)
}

// Confirm advances the harm confirmation of the pending message. The first
// confirmation escalates to a stronger warning; the second sends the message
// on. always mutes further warnings until consent is revoked.
func (o *Orchestrator) Confirm(ctx context.Context, sessionID string, always bool, sink Sink) (result Result, err error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanChatConfirm)
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, result.Kind.String()))
		span.End(err)
	}()

	var st *stream
	_, err = o.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		span.SetAttributes(tracer.String(tracer.AttrSessionPrefix, sess.IDPrefix()))
		if err := o.precheck(sess); err != nil {
			return err
		}
		if sess.Pending == nil {
			return dErrors.New(dErrors.CodeBadRequest, "no message is waiting for confirmation")
		}
		span.SetAttributes(tracer.Int(tracer.AttrHarmStage, sess.Pending.Stage))

		if sess.Pending.Stage < 2 {
			sess.Pending.Stage = 2
			o.logEvent(sess, transparency.EventHarmWarningEscalated, transparency.StageDetails(2))
			o.metrics.IncrementHarmConfirmation("escalated")
			result = Result{Kind: ResultConfirmHarm, Stage: 2, Warning: Warning(2)}
			return nil
		}

		text := sess.Pending.Text
		o.logEvent(sess, transparency.EventHarmWarningAcknowledged, transparency.StageDetails(2))
		o.metrics.IncrementHarmConfirmation("acknowledged")
		sess.Pending = nil
		if always {
			sess.HarmWarningsMuted = true
		}
		var gateErr error
		result, st, gateErr = o.gate(ctx, sess, text)
		return gateErr
	})
	if err != nil {
		if st != nil {
			st.done()
		}
		return Result{}, err
	}
	if st == nil {
		return result, nil
	}
	return o.run(ctx, st, sink)
}

// Cancel discards the pending message. A later message starts the
// confirmation again from the first stage.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) error {
	_, err := o.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if !sess.HasConsent() {
			return dErrors.New(dErrors.CodeMissingConsent, "consent is required to chat")
		}
		if sess.Pending == nil {
			return nil
		}
		o.logEvent(sess, transparency.EventHarmWarningCancelled, transparency.StageDetails(sess.Pending.Stage))
		o.metrics.IncrementHarmConfirmation("cancelled")
		sess.Pending = nil
		return nil
	})
	return err
}

// Clear aborts any streaming reply and drops the chat history, which also
// puts the oracle back to sleep.
func (o *Orchestrator) Clear(ctx context.Context, sessionID string) error {
	o.inflight.Abort(sessionID)
	_, err := o.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		turns, sensitive := len(sess.Turns), userText(sess)
		sess.ClearChat()
		o.recorder.LogEventRedacting(sess, transparency.EventChatCleared, transparency.TurnCountDetails(turns), sensitive...)
		return nil
	})
	return err
}

// History returns the session's turns and gate state.
func (o *Orchestrator) History(ctx context.Context, sessionID string) (History, error) {
	sess, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		return History{}, err
	}
	h := History{
		Turns: sess.Turns,
		State: invocation.Dormant,
	}
	if h.Turns == nil {
		h.Turns = []session.Turn{}
	}
	if invocation.WasInvokedInHistory(sess.Turns) {
		h.State = invocation.Awake
	}
	if sess.Pending != nil {
		h.PendingStage = sess.Pending.Stage
	}
	return h, nil
}

func (o *Orchestrator) precheck(sess *session.Session) error {
	if !sess.HasConsent() {
		return dErrors.New(dErrors.CodeMissingConsent, "consent is required to chat")
	}
	if o.inflight.Active(sess.ID) {
		return dErrors.New(dErrors.CodeConflict, "a reply is already streaming for this session")
	}
	return nil
}

// gate applies the invocation gate to a message that passed the harm check.
// When the oracle is awake it records the user turn and registers the reply
// stream; the caller runs it once the session lock is released.
func (o *Orchestrator) gate(ctx context.Context, sess *session.Session, text string) (Result, *stream, error) {
	if invocation.StateFor(text, sess.Turns) == invocation.Dormant {
		o.logEvent(sess, transparency.EventChatDormantHint, "")
		o.metrics.IncrementChatOutcome(ResultHint.String())
		return Result{Kind: ResultHint, Text: DormantHint}, nil, nil
	}

	streamCtx, cancel := context.WithCancelCause(ctx)
	release, err := o.inflight.begin(sess.ID, cancel)
	if err != nil {
		cancel(nil)
		return Result{}, nil, err
	}

	firstWake := !invocation.WasInvokedInHistory(sess.Turns)
	sess.Turns = append(sess.Turns, session.Turn{Role: session.RoleUser, Content: text})
	if firstWake {
		o.logEvent(sess, transparency.EventInvocationDetected, transparency.TurnCountDetails(len(sess.Turns)))
	}

	return Result{}, &stream{
		ctx:       streamCtx,
		cancel:    cancel,
		release:   release,
		sessionID: sess.ID,
		prefix:    sess.IDPrefix(),
		consent:   sess.Consent,
		turns:     append([]session.Turn(nil), sess.Turns...),
	}, nil
}

type outcomeKind int

const (
	outcomeCompleted outcomeKind = iota
	outcomeFailed
	outcomeAborted
	outcomeHint
)

type outcome struct {
	kind      outcomeKind
	text      string
	fragments int
	reason    string
	err       error
	// admitted is false when the breaker refused the call.
	admitted bool
}

// run streams the reply and records how it ended.
func (o *Orchestrator) run(ctx context.Context, st *stream, sink Sink) (Result, error) {
	defer st.done()

	streamCtx, span := o.tracer.Start(st.ctx, tracer.SpanChatStream,
		tracer.String(tracer.AttrSessionPrefix, st.prefix),
	)
	started := o.now()
	o.metrics.StreamStarted()

	out := o.relay(streamCtx, st, sink, span)
	elapsed := o.now().Sub(started)
	o.metrics.StreamFinished(elapsed.Seconds())
	o.settleBreaker(out, span)

	// The request may be gone by now; the outcome is still recorded.
	recordCtx := context.WithoutCancel(ctx)
	result, err := o.record(recordCtx, st, out, elapsed)
	if err == nil {
		o.metrics.IncrementChatOutcome(result.Kind.String())
	}
	span.SetAttributes(
		tracer.String(tracer.AttrOutcome, result.Kind.String()),
		tracer.Int(tracer.AttrFragments, out.fragments),
	)
	span.End(out.err)
	return result, err
}

// relay pulls frames until the reply completes, fails or is abandoned.
func (o *Orchestrator) relay(ctx context.Context, st *stream, sink Sink, span tracer.Span) outcome {
	if !o.breaker.Allow() {
		span.AddEvent(tracer.EventCircuitOpen)
		return outcome{kind: outcomeFailed, reason: "circuit_open"}
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	fail := func(reason string, err error) outcome {
		if ctx.Err() != nil {
			return outcome{kind: outcomeAborted, admitted: true, err: context.Cause(ctx)}
		}
		if errors.Is(upstreamCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return outcome{kind: outcomeFailed, reason: reason, err: err, admitted: true}
	}

	frames, err := o.source.Open(upstreamCtx, Request{System: SystemPrompt, Turns: st.turns})
	if err != nil {
		return fail("open_failed", err)
	}
	defer frames.Close()

	var (
		reply     strings.Builder
		fragments int
		started   = o.now()
	)
	for {
		frame, err := frames.Next(upstreamCtx)
		if errors.Is(err, io.EOF) {
			if fragments == 0 {
				return fail("empty_reply", err)
			}
			return outcome{kind: outcomeCompleted, text: reply.String(), fragments: fragments, admitted: true}
		}
		if err != nil {
			return fail("read_failed", err)
		}

		switch frame.Kind {
		case FrameContent:
			if frame.Text == "" {
				continue
			}
			if fragments == 0 {
				o.metrics.ObserveFirstFragment(o.now().Sub(started).Seconds())
				span.AddEvent(tracer.EventFirstFragment)
			}
			fragments++
			reply.WriteString(frame.Text)
			if err := sink(frame.Text); err != nil {
				return outcome{kind: outcomeAborted, fragments: fragments, admitted: true, err: err}
			}
		case FrameDone:
			if fragments == 0 {
				return fail("empty_reply", nil)
			}
			return outcome{kind: outcomeCompleted, text: reply.String(), fragments: fragments, admitted: true}
		case FrameError:
			return fail("upstream_error", errors.New(frame.Text))
		case FrameHint:
			if fragments > 0 {
				return fail("malformed_frame", nil)
			}
			return outcome{kind: outcomeHint, text: frame.Text, admitted: true}
		default:
			return fail("malformed_frame", nil)
		}
	}
}

func (o *Orchestrator) settleBreaker(out outcome, span tracer.Span) {
	if !out.admitted {
		return
	}
	switch out.kind {
	case outcomeCompleted, outcomeHint:
		if o.breaker.RecordSuccess() {
			o.metrics.IncrementCircuitTransition("closed")
			o.logger.Info("upstream circuit closed")
		}
	case outcomeFailed:
		if o.breaker.RecordFailure() {
			o.metrics.IncrementCircuitTransition("open")
			span.AddEvent(tracer.EventCircuitOpen)
			o.logger.Warn("upstream circuit opened", "breaker", o.breaker.Name())
		}
	default:
		o.breaker.Release()
	}
}

// record folds the outcome back into the session.
func (o *Orchestrator) record(ctx context.Context, st *stream, out outcome, elapsed time.Duration) (Result, error) {
	switch out.kind {
	case outcomeCompleted:
		return o.commitTurn(ctx, st, out.text, Result{Kind: ResultReply, Text: out.text},
			transparency.EventChatReplyCompleted, transparency.ReplyDetails(out.fragments, elapsed))

	case outcomeFailed:
		o.logger.WarnContext(ctx, "upstream reply failed",
			"session_prefix", st.prefix,
			"reason", out.reason,
			"error", out.err,
		)
		return o.commitTurn(ctx, st, FallbackText, Result{Kind: ResultFallback, Text: FallbackText},
			transparency.EventChatReplyFailed, transparency.FailureDetails(out.reason))

	case outcomeHint:
		return Result{Kind: ResultHint, Text: out.text}, nil

	default:
		o.logger.DebugContext(ctx, "chat reply aborted",
			"session_prefix", st.prefix,
			"fragments", out.fragments,
			"cause", out.err,
		)
		_, err := o.sessions.Update(ctx, st.sessionID, func(sess *session.Session) error {
			o.logEvent(sess, transparency.EventChatReplyAborted, "")
			return nil
		})
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Result{}, err
		}
		return Result{Kind: ResultAborted}, nil
	}
}

// commitTurn records the assistant turn while this stream still owns the
// session's in-flight slot under the same consent grant. A reply that was
// cleared or revoked away is dropped and reported as aborted.
func (o *Orchestrator) commitTurn(ctx context.Context, st *stream, content string, result Result, event transparency.Event, details string) (Result, error) {
	err := o.sessions.Commit(ctx, st.sessionID, st.consent, func(sess *session.Session) error {
		if context.Cause(st.ctx) == errAborted {
			return session.ErrSessionGone
		}
		sess.Turns = append(sess.Turns, session.Turn{Role: session.RoleAssistant, Content: content})
		o.logEvent(sess, event, details)
		return nil
	})
	if errors.Is(err, session.ErrSessionGone) {
		return Result{Kind: ResultAborted}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// logEvent records a chat entry. Details that echo the pending message or any
// user turn are dropped.
func (o *Orchestrator) logEvent(sess *session.Session, event transparency.Event, details string) {
	o.recorder.LogEventRedacting(sess, event, details, userText(sess)...)
}

func userText(sess *session.Session) []string {
	var out []string
	if sess.Pending != nil {
		out = append(out, sess.Pending.Text)
	}
	for _, t := range sess.Turns {
		if t.Role == session.RoleUser {
			out = append(out, t.Content)
		}
	}
	return out
}
