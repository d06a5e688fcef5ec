package telnet

import "sync"

// EventHook is a type for function pointers that are registered to receive events
type EventHook[T any] func(client *Client, data T)

// EventPublisher is a type used to register and fire arbitrary events
type EventPublisher[U any] struct {
	lock sync.Mutex

	registeredHooks []EventHook[U]
}

// NewPublisher creates a new EventPublisher for a particular EventHook. A slice of
// hooks can be passed in- in which case the hooks will be registered to receive events
// from the publisher.  Otherwise, nil can be passed in.
func NewPublisher[U any, T ~func(client *Client, data U)](hooks []T) *EventPublisher[U] {
	var convertedHooks []EventHook[U]

	for _, hook := range hooks {
		convertedHooks = append(convertedHooks, EventHook[U](hook))
	}

	return &EventPublisher[U]{
		registeredHooks: convertedHooks,
	}
}

// Register registers a single EventHook to receive events from this publisher.
func (e *EventPublisher[U]) Register(hook EventHook[U]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.registeredHooks = append(e.registeredHooks, hook)
}

// Clear unregisters every hook. Events fired after Clear returns reach nobody.
func (e *EventPublisher[U]) Clear() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.registeredHooks = nil
}

// Fire calls the event for all EventHook instances registered to this publisher with
// the provided parameters. Hooks are called without the publisher lock held, so a hook
// may register further hooks or clear the publisher.
func (e *EventPublisher[U]) Fire(client *Client, eventData U) {
	e.lock.Lock()
	hooks := e.registeredHooks
	e.lock.Unlock()

	for _, hook := range hooks {
		hook(client, eventData)
	}
}

// LineHandler is an event hook type that receives decoded text from the remote
type LineHandler func(c *Client, text string)

// ClosedHandler is an event hook type called once when the connection closes for any
// reason other than an explicit call to Close. The error describes why.
type ClosedHandler func(c *Client, err error)

// CommandHandler is an event hook type that receives IAC commands
type CommandHandler func(c *Client, cmd Command)

// StringHandler is an event hook type that receives outbound text
type StringHandler func(c *Client, text string)

// ConnectAttemptHandler is an event hook type called after every connection attempt
type ConnectAttemptHandler func(c *Client, attempt ConnectAttempt)

// EventHooks is used to pass in a set of pre-registered event hooks to a Client
// when calling NewClient.  See ClientConfig for more info.
type EventHooks struct {
	Line   []LineHandler
	Closed []ClosedHandler

	InboundCommand  []CommandHandler
	OutboundCommand []CommandHandler
	OutboundText    []StringHandler
	ConnectAttempt  []ConnectAttemptHandler
}
