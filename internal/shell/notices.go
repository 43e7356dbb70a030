package shell

import (
	"sync"
	"time"
)

// Notice is a user-visible notification. The rendering layer shows these
// as dismissable toasts; raw errors never reach it.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notices is the in-memory notification queue. It implements the callback
// machine's Notifier contract.
type Notices struct {
	mu      sync.Mutex
	pending []Notice
}

// NewNotices returns an empty queue.
func NewNotices() *Notices {
	return &Notices{}
}

// Success queues a success notification.
func (n *Notices) Success(message string) {
	n.add("success", message)
}

// Error queues an error notification.
func (n *Notices) Error(message string) {
	n.add("error", message)
}

// Drain returns all pending notices and clears the queue (dismissal).
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Peek returns pending notices without dismissing them.
func (n *Notices) Peek() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.pending))
	copy(out, n.pending)
	return out
}

func (n *Notices) add(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, Notice{Level: level, Message: message, Time: time.Now()})
}
