// Package notify holds the toast notifications shown at the top of the next rendered page.
package notify

import "sync"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Toast is one user-visible notification
type Toast struct {
	Kind    Kind
	Message string
}

// CSSClass maps the toast kind onto the stylesheet's alert classes
func (t Toast) CSSClass() string {
	switch t.Kind {
	case KindSuccess:
		return "toast-success"
	case KindError:
		return "toast-error"
	default:
		return "toast-info"
	}
}

// Queue collects toasts until the next page render drains them
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Notify(kind Kind, message string) {
	if message == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toasts = append(q.toasts, Toast{Kind: kind, Message: message})
}

func (q *Queue) Success(message string) { q.Notify(KindSuccess, message) }
func (q *Queue) Error(message string)   { q.Notify(KindError, message) }
func (q *Queue) Info(message string)    { q.Notify(KindInfo, message) }

// Drain returns the pending toasts in order and empties the queue
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	toasts := q.toasts
	q.toasts = nil
	return toasts
}
