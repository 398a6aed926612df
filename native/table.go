package native

// TypeID identifies the kind of object behind a handle.
type TypeID uint8

const (
	TypeBitmap TypeID = iota + 1
	TypeCursor
)

func (t TypeID) String() string {
	switch t {
	case TypeBitmap:
		return "bitmap"
	case TypeCursor:
		return "cursor"
	default:
		return "unknown"
	}
}

// EventType identifies a table lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event is a table lifecycle notification.
type Event struct {
	Value  any
	Handle uint32
	Type   EventType
	TypeID TypeID
}

// Observer receives table lifecycle notifications.
type Observer interface {
	OnObjectEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnObjectEvent implements Observer.
func (f ObserverFunc) OnObjectEvent(e Event) { f(e) }

type entry struct {
	value  any
	typeID TypeID
}

// Table maps heap offsets to host-side values.
type Table struct {
	entries   map[uint32]entry
	counts    map[TypeID]int
	observers []Observer
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[uint32]entry),
		counts:  make(map[TypeID]int),
	}
}

// Insert stores value under handle. It fails for handle 0 and for handles
// already in use.
func (t *Table) Insert(handle uint32, typeID TypeID, value any) bool {
	if handle == 0 {
		return false
	}
	if _, ok := t.entries[handle]; ok {
		return false
	}
	t.entries[handle] = entry{value: value, typeID: typeID}
	t.counts[typeID]++

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return true
}

// Get retrieves a value by handle.
func (t *Table) Get(handle uint32) (any, bool) {
	e, ok := t.entries[handle]
	return e.value, ok
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(handle uint32, typeID TypeID) (any, bool) {
	e, ok := t.entries[handle]
	if !ok || e.typeID != typeID {
		return nil, false
	}
	return e.value, true
}

// Remove drops a handle and returns (value, true) if found.
func (t *Table) Remove(handle uint32) (any, bool) {
	e, ok := t.entries[handle]
	if !ok {
		return nil, false
	}
	delete(t.entries, handle)
	t.counts[e.typeID]--

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: e.typeID,
		Value:  e.value,
	})
	return e.value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return len(t.entries)
}

// Count returns the number of live handles of one type.
func (t *Table) Count(typeID TypeID) int {
	return t.counts[typeID]
}

// Each calls fn for every live handle until fn returns false.
func (t *Table) Each(fn func(handle uint32, typeID TypeID, value any) bool) {
	for h, e := range t.entries {
		if !fn(h, e.typeID, e.value) {
			return
		}
	}
}

func (t *Table) notify(e Event) {
	for _, o := range t.observers {
		o.OnObjectEvent(e)
	}
}
