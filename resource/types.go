package resource

import "fmt"

// Resource is an externally identified value the table can manage:
// a GPU texture or shader program, a descriptor, a compiled module.
// ID is the handle assigned by the owning system; Destroy releases it there.
type Resource interface {
	ID() uint32
	Destroy()
}

// Factory constructs the resource registered under name.
type Factory[T Resource] func(name string) (T, error)

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventLoaded EventType = iota
	EventReferenced
	EventReleased
	EventUnloaded
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventReferenced:
		return "referenced"
	case EventReleased:
		return "released"
	case EventUnloaded:
		return "unloaded"
	case EventDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Event represents a resource lifecycle event.
type Event struct {
	Value any
	Name  string
	ID    uint32
	Refs  uint32
	Type  EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
// Func values are not comparable, so Unsubscribe cannot remove them;
// subscribe a pointer type when removal is needed.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend stores the per-ID reference counts behind a Counter.
type Backend interface {
	// AddReference increments the count for id and returns the new count.
	AddReference(id uint32) uint32

	// SubReference decrements the count for id and returns the remaining count.
	// Returns (0, false) if id has no references.
	SubReference(id uint32) (uint32, bool)

	// References returns the current count for id.
	References(id uint32) uint32

	// Close forgets every count.
	Close() error
}

// Info is a snapshot of one live resource.
type Info struct {
	Names   []string
	ID      uint32
	Refs    uint32
	Pending bool
}
