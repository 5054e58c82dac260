package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed lets every call through and counts outcomes.
	Closed State = iota
	// Open refuses calls until the cool-off elapses.
	Open
	// HalfOpen lets a single trial call through.
	HalfOpen
)

var stateNames = [...]string{Closed: "closed", Open: "open", HalfOpen: "half_open"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) gauge() float64 {
	if s >= 0 && int(s) < len(stateNames) {
		return float64(s)
	}
	return -1
}

// outcomes counts call results since the breaker last closed. Once it holds
// twice the minimum sample it is halved so old results fade out.
type outcomes struct {
	failures  int
	successes int
}

func (o *outcomes) add(success bool) {
	if success {
		o.successes++
	} else {
		o.failures++
	}
}

func (o outcomes) total() int { return o.failures + o.successes }

func (o outcomes) ratio() float64 {
	if o.total() == 0 {
		return 0
	}
	return float64(o.failures) / float64(o.total())
}

func (o *outcomes) decay() {
	o.failures = (o.failures + 1) / 2
	o.successes = (o.successes + 1) / 2
}

// Breaker guards calls to the order service. It opens when the failure ratio
// reaches the threshold over at least minRequests calls, refuses calls for the
// cool-off, then lets one trial call decide between closing and reopening.
//
// A nil *Breaker never opens.
type Breaker struct {
	minRequests  int
	failureRatio float64
	openFor      time.Duration

	mu       sync.Mutex
	state    State
	seen     outcomes
	openedAt time.Time
	trial    bool
	target   string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewBreaker returns a closed breaker. Non-positive arguments fall back to
// 1 request, a 0.5 ratio and a 30s cool-off; ratios above 1 are capped.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	switch {
	case failureRatio <= 0:
		failureRatio = 0.5
	case failureRatio > 1:
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
}

// WithTarget names the guarded dependency in metrics and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishState()
	return b
}

// WithLogger sets the logger used for transitions outside a request.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// Allow reports whether a call may go out now. After the cool-off exactly one
// caller is admitted as the half-open trial; the rest are refused until it reports.
func (b *Breaker) Allow(ctx context.Context) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.openedAt) < b.openFor {
			return false
		}
		b.moveTo(ctx, HalfOpen)
	}
	if b.trial {
		return false
	}
	b.trial = true
	return true
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.moveTo(ctx, Closed)
		} else {
			b.moveTo(ctx, Open)
		}
		return
	}

	b.seen.add(success)
	switch {
	case b.seen.total() < b.minRequests:
	case b.seen.ratio() >= b.failureRatio:
		b.moveTo(ctx, Open)
	case b.seen.total() >= 2*b.minRequests:
		b.seen.decay()
	}
}

// State returns the current state. An open breaker whose cool-off has elapsed
// reports HalfOpen since the next call will be admitted as a trial.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.openFor {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) moveTo(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	b.seen = outcomes{}
	b.trial = false
	if next == Open {
		b.openedAt = b.now()
	}
	b.publishState()
	if prev == next {
		return
	}

	label := b.label()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	}
	if next == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}

	log := &b.logger
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		log = l
	}
	evt := log.Warn()
	if next == Closed {
		evt = log.Info()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Str("target", label).Str("from_state", prev.String()).Str("to_state", next.String()).Msg("breaker_transition")
}

func (b *Breaker) publishState() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.label()).Set(b.state.gauge())
	}
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}
