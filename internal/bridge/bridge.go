package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/notify"
)

// DefaultEchoWindow is how long dimension echoes are suppressed after a
// publish.
const DefaultEchoWindow = 250 * time.Millisecond

// DimensionFunc receives the published row and column counts.
type DimensionFunc func(rows, cols int)

// CounterFunc receives the published derived statistics.
type CounterFunc func(stats grid.Statistics)

// Bridge synchronizes a table with its external representation.
type Bridge struct {
	mu sync.Mutex

	primary Sink
	mirror  Sink

	notifier   *notify.Notifier
	dimensions DimensionFunc
	counters   CounterFunc
	echoWindow time.Duration

	// lastWritten is the exact payload text of the most recent publish
	// or accepted load; inbound text equal to it is an echo.
	lastWritten string

	// lastRows/lastCols are the dimensions most recently published.
	lastRows int
	lastCols int

	// generation counts publishes; pendingGen holds the generation
	// whose dimension-echo window is still open, zero when closed.
	generation uint64
	pendingGen uint64

	timer  *time.Timer
	closed bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPrimary sets the primary sink.
func WithPrimary(s Sink) Option {
	return func(b *Bridge) { b.primary = s }
}

// WithMirror sets the optional mirror sink.
func WithMirror(s Sink) Option {
	return func(b *Bridge) { b.mirror = s }
}

// WithNotifier sets the change notifier raised after each publish.
func WithNotifier(n *notify.Notifier) Option {
	return func(b *Bridge) { b.notifier = n }
}

// WithDimensionSink sets the outbound dimension channel.
func WithDimensionSink(f DimensionFunc) Option {
	return func(b *Bridge) { b.dimensions = f }
}

// WithCounterSink sets the outbound statistics channel.
func WithCounterSink(f CounterFunc) Option {
	return func(b *Bridge) { b.counters = f }
}

// WithEchoWindow overrides the dimension-echo suppression window.
func WithEchoWindow(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.echoWindow = d
		}
	}
}

// New creates a bridge with the given options.
func New(opts ...Option) *Bridge {
	b := &Bridge{echoWindow: DefaultEchoWindow}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish serializes the table, writes identical text to the primary
// and mirror sinks, pushes dimensions and derived counters outward, and
// raises the external change notification. The serialized text is
// remembered so its inbound echo can be ignored, and a generation-
// counted suppression window opens for the dimension channels.
func (b *Bridge) Publish(t *grid.Table) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	if b.primary == nil {
		b.mu.Unlock()
		return ErrNoPrimarySink
	}
	b.mu.Unlock()

	text, err := Serialize(t)
	if err != nil {
		return err
	}

	if err := b.primary.Write(text); err != nil {
		return fmt.Errorf("write %s: %w", b.primary.Name(), err)
	}
	if b.mirror != nil {
		if err := b.mirror.Write(text); err != nil {
			return fmt.Errorf("write %s: %w", b.mirror.Name(), err)
		}
	}

	b.mu.Lock()
	b.lastWritten = text
	b.lastRows = t.Rows()
	b.lastCols = t.Cols()
	b.generation++
	gen := b.generation
	b.pendingGen = gen
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.echoWindow, func() { b.releaseEcho(gen) })
	b.mu.Unlock()

	if b.dimensions != nil {
		b.dimensions(t.Rows(), t.Cols())
	}
	if b.counters != nil {
		b.counters(t.Statistics())
	}
	if b.notifier != nil {
		b.notifier.NotifyTable(notify.KindPublished, "bridge")
	}
	return nil
}

// Load parses inbound payload text into a fresh table.
//
// Text identical to the most recent publish is an echo and returns
// ErrEcho with no state change. Structurally invalid text returns
// ErrMalformedPayload, leaving prior state untouched. On success the
// accepted text becomes the new echo reference and the rebuilt table is
// returned for the caller to swap in atomically.
func (b *Bridge) Load(raw string) (*grid.Table, error) {
	b.mu.Lock()
	if raw != "" && raw == b.lastWritten {
		b.mu.Unlock()
		return nil, ErrEcho
	}
	b.mu.Unlock()

	t, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.lastWritten = raw
	b.lastRows = t.Rows()
	b.lastCols = t.Cols()
	b.mu.Unlock()
	return t, nil
}

// AcceptRows filters an inbound row-count update. The value is clamped
// to the legal range; it is suppressed (apply=false) when it matches
// the last published row count while the echo window is open.
func (b *Bridge) AcceptRows(n int) (rows int, apply bool) {
	return b.acceptDimension(n, func(b *Bridge) int { return b.lastRows })
}

// AcceptCols filters an inbound column-count update, like AcceptRows.
func (b *Bridge) AcceptCols(n int) (cols int, apply bool) {
	return b.acceptDimension(n, func(b *Bridge) int { return b.lastCols })
}

// EchoPending reports whether the dimension-echo window is open.
func (b *Bridge) EchoPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingGen != 0
}

// LastWritten returns the most recent payload text published or
// accepted.
func (b *Bridge) LastWritten() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWritten
}

// Close cancels any pending echo-release timer. Safe to call more than
// once, including while a release is in flight.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.pendingGen = 0
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// releaseEcho closes the suppression window for the given generation.
// A newer publish supersedes older releases, so rapid publish cycles
// keep their own windows.
func (b *Bridge) releaseEcho(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingGen == gen {
		b.pendingGen = 0
	}
}

func (b *Bridge) acceptDimension(n int, last func(*Bridge) int) (int, bool) {
	if n < grid.MinDimension {
		n = grid.MinDimension
	}
	if n > grid.MaxDimension {
		n = grid.MaxDimension
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingGen != 0 && n == last(b) {
		return n, false
	}
	return n, true
}
