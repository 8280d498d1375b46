package resource

import (
	"sync"
)

// Table maps handles to values of type T with borrow tracking.
// It is safe for concurrent use.
type Table[T any] struct {
	entries   []entry[T]
	freeList  []Handle
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry[T any] struct {
	value       T
	tag         uint32
	borrowCount uint32
	valid       bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores value under tag and returns its handle.
func (t *Table[T]) Insert(tag uint32, value T) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	e := entry[T]{tag: tag, value: value, valid: true}

	var handle Handle
	if len(t.freeList) > 0 {
		handle = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[handle-1] = e
	} else {
		t.entries = append(t.entries, e)
		handle = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Tag: tag, Value: value})
	return handle, nil
}

// lookup returns the live entry for handle. Caller holds t.mu.
func (t *Table[T]) lookup(handle Handle) (*entry[T], error) {
	if t.closed {
		return nil, ErrClosed
	}
	if handle == 0 || int(handle) > len(t.entries) {
		return nil, ErrNotFound
	}
	e := &t.entries[handle-1]
	if !e.valid {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(handle)
	if err != nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetTagged retrieves a value only if it was inserted under tag.
func (t *Table[T]) GetTagged(handle Handle, tag uint32) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(handle)
	if err != nil || e.tag != tag {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Tag returns the tag a handle was inserted under.
func (t *Table[T]) Tag(handle Handle) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(handle)
	if err != nil {
		return 0, false
	}
	return e.tag, true
}

// Borrow returns the value and increments the handle's borrow count.
// Every successful Borrow must be paired with ReturnBorrow.
func (t *Table[T]) Borrow(handle Handle) (T, error) {
	t.mu.Lock()
	e, err := t.lookup(handle)
	if err != nil {
		t.mu.Unlock()
		var zero T
		return zero, err
	}
	e.borrowCount++
	value, tag := e.value, e.tag
	t.mu.Unlock()

	t.notify(Event{Type: EventBorrowed, Handle: handle, Tag: tag, Value: value})
	return value, nil
}

// ReturnBorrow decrements the handle's borrow count.
func (t *Table[T]) ReturnBorrow(handle Handle) bool {
	t.mu.Lock()
	e, err := t.lookup(handle)
	if err != nil || e.borrowCount == 0 {
		t.mu.Unlock()
		return false
	}
	e.borrowCount--
	value, tag := e.value, e.tag
	t.mu.Unlock()

	t.notify(Event{Type: EventBorrowReturned, Handle: handle, Tag: tag, Value: value})
	return true
}

// Borrows returns the number of outstanding borrows on handle.
func (t *Table[T]) Borrows(handle Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(handle)
	if err != nil {
		return 0
	}
	return int(e.borrowCount)
}

// Remove takes the value out of the table. It fails with ErrBorrowed
// while a borrow is outstanding and with ErrNotFound for stale handles.
func (t *Table[T]) Remove(handle Handle) (T, error) {
	var zero T

	t.mu.Lock()
	e, err := t.lookup(handle)
	if err != nil {
		t.mu.Unlock()
		return zero, err
	}
	if e.borrowCount > 0 {
		t.mu.Unlock()
		return zero, ErrBorrowed
	}

	value, tag := e.value, e.tag
	*e = entry[T]{}
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	t.notify(Event{Type: EventRemoved, Handle: handle, Tag: tag, Value: value})
	return value, nil
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each calls fn for every live handle until fn returns false.
// fn must not call back into the table.
func (t *Table[T]) Each(fn func(Handle, uint32, T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(Handle(i+1), e.tag, e.value) {
				break
			}
		}
	}
}

// Close stops accepting operations and passes every remaining value to
// drain, in handle order. drain may be nil. While any value is borrowed
// Close fails with ErrBorrowed and leaves the table open.
func (t *Table[T]) Close(drain func(Handle, uint32, T)) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	for i := range t.entries {
		if t.entries[i].valid && t.entries[i].borrowCount > 0 {
			t.mu.Unlock()
			return ErrBorrowed
		}
	}
	t.closed = true
	entries := t.entries
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()

	for i, e := range entries {
		if !e.valid {
			continue
		}
		if drain != nil {
			drain(Handle(i+1), e.tag, e.value)
		}
		t.notify(Event{Type: EventRemoved, Handle: Handle(i + 1), Tag: e.tag, Value: e.value})
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
