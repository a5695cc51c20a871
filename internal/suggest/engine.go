// Package suggest implements the inline suggestion engine: when to request, show,
// accept, partially accept and dismiss a single-cursor ghost-text completion.
package suggest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// State is the engine's suggestion state.
type State int

// Engine states.
const (
	StateIdle     State = iota // No suggestion and no request in flight
	StateAwaiting              // A request is in flight
	StateShowing               // A suggestion is displayed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting-response"
	case StateShowing:
		return "showing"
	default:
		return "unknown"
	}
}

// Options configures an Engine. Zero values select defaults; a zero Config selects
// domain.NewDefaultConfig().Suggest.
type Options struct {
	Clock    domain.Clock
	Logger   *slog.Logger
	OnAccept func(text string) // Called with the inserted text after a full or partial accept
	NewID    func() string
	Config   domain.SuggestConfig
}

// effect is an editor call deferred until the engine lock is released.
type effect func(domain.Editor)

// Engine owns the debounce timer, the live suggestion and its transitions.
// All editor events funnel through its methods; the state is a single owned variable.
// Fields are ordered to minimize memory padding.
type Engine struct {
	lastFire   time.Time
	client     domain.SuggestionClient
	editor     domain.Editor
	clock      domain.Clock
	timer      domain.Timer
	ctx        context.Context
	logger     *slog.Logger
	current    *domain.InlineSuggestion
	cancel     context.CancelFunc
	onAccept   func(string)
	newID      func() string
	cfg        domain.SuggestConfig
	lastCursor domain.Position
	requestPos domain.Position
	token      uint64 // Bumped by every cancellation; stale responses carry an older value
	timerGen   uint64
	state      State
	applying   int // Editor effects in progress; echoed editor events are ignored meanwhile
	mu         sync.Mutex
	inFlight   bool
	rearm      bool // A debounce elapsed while a request was in flight
	focused    bool
	closed     bool
}

// New creates an engine driving editor and fetching from client.
func New(client domain.SuggestionClient, editor domain.Editor, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = domain.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Config == (domain.SuggestConfig{}) {
		opts.Config = domain.NewDefaultConfig().Suggest
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		client:     client,
		editor:     editor,
		clock:      opts.Clock,
		logger:     opts.Logger.With("category", "suggest"),
		onAccept:   opts.OnAccept,
		newID:      opts.NewID,
		cfg:        opts.Config,
		ctx:        ctx,
		cancel:     cancel,
		lastCursor: editor.CursorPosition(),
		focused:    true,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the live suggestion, if any.
func (e *Engine) Current() (domain.InlineSuggestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return domain.InlineSuggestion{}, false
	}
	return *e.current, true
}

// OnContentChange handles a document edit: the live suggestion is dismissed and the debounce restarts.
func (e *Engine) OnContentChange() {
	e.mu.Lock()
	if e.closed || e.applying > 0 {
		e.mu.Unlock()
		return
	}
	e.lastCursor = e.editor.CursorPosition()
	fx := e.dismissLocked()
	e.scheduleLocked()
	e.mu.Unlock()

	e.run(fx)
}

// OnCursorChange handles a cursor move. Leaving the line, or moving further than the
// movement tolerance on it, dismisses the suggestion immediately.
func (e *Engine) OnCursorChange(pos domain.Position) {
	e.mu.Lock()
	if e.closed || e.applying > 0 || pos == e.lastCursor {
		e.lastCursor = pos
		e.mu.Unlock()
		return
	}
	e.lastCursor = pos

	var fx []effect
	switch {
	case e.current != nil && e.movedAway(e.current.Anchor(), pos):
		fx = e.dismissLocked()
	case e.state == StateAwaiting && e.movedAway(e.requestPos, pos):
		e.invalidateLocked()
	}
	e.scheduleLocked()
	e.mu.Unlock()

	e.run(fx)
}

// OnFocus re-arms the debounce after the editor regains focus.
func (e *Engine) OnFocus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.focused = true
	e.scheduleLocked()
}

// OnBlur dismisses the suggestion and stops the debounce while the editor is unfocused.
func (e *Engine) OnBlur() {
	e.mu.Lock()
	e.focused = false
	e.stopTimerLocked()
	fx := e.dismissLocked()
	e.mu.Unlock()

	e.run(fx)
}

// Trigger forces a request now, bypassing the debounce, the trigger heuristics and the
// minimum interval. It runs the request on the calling goroutine and is a no-op while
// another request is in flight.
func (e *Engine) Trigger() {
	e.mu.Lock()
	if e.closed || e.inFlight {
		e.mu.Unlock()
		return
	}
	e.stopTimerLocked()
	e.mu.Unlock()

	e.request(true)
}

// Dismiss clears the live suggestion and its overlay. Calling it with nothing shown is a no-op.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	fx := e.dismissLocked()
	e.mu.Unlock()

	e.run(fx)
}

// Accept inserts the whole suggestion at its anchor and moves the cursor past it.
// Returns false when nothing was shown or the insertion failed.
func (e *Engine) Accept() bool {
	e.mu.Lock()
	if e.closed || e.current == nil {
		e.mu.Unlock()
		return false
	}
	s := *e.current
	fx := e.dismissLocked()
	e.mu.Unlock()

	if !e.insert(s.Anchor(), s.Text) {
		e.run(fx)
		return false
	}
	if e.onAccept != nil {
		e.onAccept(s.Text)
	}
	e.run(fx)
	return true
}

// AcceptPartial inserts the next whitespace-delimited token of the suggestion.
// The remainder stays live, re-anchored after the inserted token, unless it is blank.
func (e *Engine) AcceptPartial() bool {
	e.mu.Lock()
	if e.closed || e.current == nil {
		e.mu.Unlock()
		return false
	}
	s := *e.current
	token, rest := s.NextToken()
	anchor := s.Anchor()
	end := anchor.Advance(token)

	var fx []effect
	if strings.TrimSpace(rest) == "" {
		fx = e.dismissLocked()
	} else {
		reduced := domain.NewInlineSuggestion(s.ID, rest, s.Confidence, end)
		e.current = &reduced
		fx = []effect{renderEffect(reduced)}
	}
	e.mu.Unlock()

	if !e.insert(anchor, token) {
		e.Dismiss()
		return false
	}
	if e.onAccept != nil {
		e.onAccept(token)
	}
	e.run(fx)
	return true
}

// Close stops the timer, abandons any in-flight request and clears the overlay.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopTimerLocked()
	fx := e.dismissLocked()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.run(fx)
}

// insert splices text at pos and moves the cursor to its end.
func (e *Engine) insert(pos domain.Position, text string) bool {
	end := pos.Advance(text)

	e.mu.Lock()
	e.applying++
	e.mu.Unlock()

	err := e.editor.InsertText(domain.PointRange(pos), text)
	if err == nil {
		e.editor.SetCursorPosition(end)
	}

	e.mu.Lock()
	e.applying--
	if err == nil {
		e.lastCursor = end
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("insert suggestion", "error", err)
		return false
	}
	return true
}

// onDebounce runs when the debounce timer of generation gen elapses.
func (e *Engine) onDebounce(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.timerGen {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	if e.inFlight {
		e.rearm = true
		e.mu.Unlock()
		return
	}
	if !e.lastFire.IsZero() && e.clock.Now().Sub(e.lastFire) < e.cfg.MinInterval() {
		e.mu.Unlock()
		e.logger.Debug("suggestion suppressed by minimum interval")
		return
	}
	e.mu.Unlock()

	e.request(false)
}

// request snapshots the document and asks the backend for a suggestion.
func (e *Engine) request(forced bool) {
	text := e.editor.Text()
	pos := e.editor.CursorPosition()
	path := e.editor.FilePath()
	before, after := domain.SplitLine(text, pos)

	if !forced {
		if _, ok := e.editor.Selection(); ok {
			return
		}
		if !domain.ShouldTrigger(before, after) {
			return
		}
	}

	e.mu.Lock()
	if e.closed || e.inFlight {
		e.mu.Unlock()
		return
	}
	fx := e.dismissLocked()
	token := e.token
	e.inFlight = true
	e.state = StateAwaiting
	e.lastFire = e.clock.Now()
	e.requestPos = pos
	e.mu.Unlock()

	e.run(fx)

	ctx := e.ctx
	if timeout := e.cfg.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := e.client.FetchInlineSuggestion(ctx, domain.SuggestionRequest{
		Code:         text,
		Language:     domain.LanguageForPath(path),
		BeforeCursor: before,
		AfterCursor:  after,
		FileName:     path,
		Position:     pos,
	})

	e.mu.Lock()
	e.inFlight = false
	rearm := e.rearm
	e.rearm = false

	if e.closed || token != e.token {
		if rearm {
			e.scheduleLocked()
		}
		e.mu.Unlock()
		e.logger.Debug("stale suggestion response discarded")
		return
	}

	if err != nil || resp == nil || resp.Text == "" {
		e.state = StateIdle
		if rearm {
			e.scheduleLocked()
		}
		e.mu.Unlock()
		if err != nil {
			e.logger.Debug("suggestion request failed", "error", err)
		}
		return
	}

	s := domain.NewInlineSuggestion(e.newID(), resp.Text, resp.Confidence, pos)
	e.current = &s
	e.state = StateShowing
	e.mu.Unlock()

	e.logger.Debug("suggestion shown", "id", s.ID, "kind", s.Kind, "confidence", s.Confidence)
	e.run([]effect{renderEffect(s)})
}

// movedAway reports whether pos left the line of anchor or drifted past the tolerance on it.
func (e *Engine) movedAway(anchor, pos domain.Position) bool {
	d, sameLine := anchor.Distance(pos)
	return !sameLine || d > e.cfg.MovementTolerance
}

// scheduleLocked restarts the debounce timer.
func (e *Engine) scheduleLocked() {
	if !e.cfg.Enabled || !e.focused || e.closed {
		return
	}
	e.stopTimerLocked()
	gen := e.timerGen
	e.timer = e.clock.AfterFunc(e.cfg.Debounce(), func() { e.onDebounce(gen) })
}

func (e *Engine) stopTimerLocked() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// invalidateLocked makes any in-flight response stale.
func (e *Engine) invalidateLocked() {
	e.token++
	if e.current == nil {
		e.state = StateIdle
	}
}

// dismissLocked clears the live suggestion and returns the overlay cleanup to run.
func (e *Engine) dismissLocked() []effect {
	e.token++
	e.state = StateIdle
	if e.current == nil {
		return nil
	}
	e.current = nil
	return []effect{func(ed domain.Editor) { ed.ClearOverlay() }}
}

// run executes deferred editor effects outside the lock.
func (e *Engine) run(fx []effect) {
	if len(fx) == 0 {
		return
	}
	e.mu.Lock()
	e.applying++
	e.mu.Unlock()

	for _, f := range fx {
		f(e.editor)
	}

	e.mu.Lock()
	e.applying--
	e.mu.Unlock()
}

func renderEffect(s domain.InlineSuggestion) effect {
	return func(ed domain.Editor) { ed.RenderOverlay(s.Text, domain.PointRange(s.Anchor())) }
}
