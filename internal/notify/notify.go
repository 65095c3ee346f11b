package notify

import "github.com/mcoot/rasync/internal/model"

// Notifier receives side effects destined for the presentation layer.
// Implementations must not block.
type Notifier interface {
	Notify(n model.Notification)
}

// Func adapts a function to the Notifier interface
type Func func(n model.Notification)

// Notify calls f(n)
func (f Func) Notify(n model.Notification) {
	f(n)
}

// Nop discards every notification
type Nop struct{}

// Notify does nothing
func (Nop) Notify(model.Notification) {}
