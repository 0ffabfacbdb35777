package services

import (
	"log"

	"github.com/google/uuid"
)

// Notifier is the best-effort notification collaborator. Notify is invoked
// after a mutation commits and is never awaited for correctness; a failing
// notifier must not roll back or block the state transition it announces.
type Notifier interface {
	Notify(event string, payload any)
}

// LogNotifier writes events to the process log. Production wires an email or
// queue backed implementation behind the same interface.
type LogNotifier struct{}

func (LogNotifier) Notify(event string, payload any) {
	log.Printf("[notify] id=%s event=%s payload=%+v", uuid.NewString(), event, payload)
}

// notify guards against a nil notifier so services can be constructed bare in
// tests.
func notify(n Notifier, event string, payload any) {
	if n == nil {
		return
	}
	n.Notify(event, payload)
}
