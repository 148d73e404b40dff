// Package notify provides change notification for the grid editor.
//
// Components subscribe to receive callbacks when the table's content,
// shape or merge structure changes. Delivery is synchronous, matching
// the editor's single-threaded dispatch model.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind represents the type of change.
type Kind int

const (
	// KindCellChanged indicates a value or checkbox edit.
	KindCellChanged Kind = iota

	// KindTableReplaced indicates the table was wholesale replaced or
	// regenerated.
	KindTableReplaced

	// KindTableResized indicates a row or column was appended.
	KindTableResized

	// KindMergeChanged indicates a merge or unmerge transaction.
	KindMergeChanged

	// KindSelectionChanged indicates the selection set changed.
	KindSelectionChanged

	// KindPublished indicates the table was serialized and pushed to
	// the external sinks.
	KindPublished
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCellChanged:
		return "cell-changed"
	case KindTableReplaced:
		return "table-replaced"
	case KindTableResized:
		return "table-resized"
	case KindMergeChanged:
		return "merge-changed"
	case KindSelectionChanged:
		return "selection-changed"
	case KindPublished:
		return "published"
	default:
		return "unknown"
	}
}

// Change represents a single change event.
type Change struct {
	// ID uniquely identifies this change instance.
	ID string

	// Kind is the type of change.
	Kind Kind

	// Row and Col address the affected cell for cell-level changes;
	// zero for table-level changes.
	Row int
	Col int

	// Source identifies the component that produced the change.
	Source string

	// Timestamp is when the change occurred.
	Timestamp time.Time
}

// Observer is called when a change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	observers map[uint64]Observer
	nextID    uint64
	closed    bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{
		observers: make(map[uint64]Observer),
	}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify delivers a change to every observer. The change's ID and
// timestamp are filled in if unset.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	observers := make([]Observer, 0, len(n.observers))
	for _, obs := range n.observers {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}

	// Observers run outside the lock.
	for _, obs := range observers {
		obs(change)
	}
}

// NotifyCell is a convenience method for cell-level changes.
func (n *Notifier) NotifyCell(kind Kind, row, col int, source string) {
	n.Notify(Change{Kind: kind, Row: row, Col: col, Source: source})
}

// NotifyTable is a convenience method for table-level changes.
func (n *Notifier) NotifyTable(kind Kind, source string) {
	n.Notify(Change{Kind: kind, Source: source})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.observers = make(map[uint64]Observer)
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}
