// Package announce carries accessibility announcements from the components that
// change user-facing status to the live region that speaks them.
package announce

import (
	"strings"
	"sync"
	"time"
)

// ClearAfter is how long a live region shows a message before clearing it.
const ClearAfter = time.Second

type Politeness string

const (
	Polite    Politeness = "polite"
	Assertive Politeness = "assertive"
)

type Message struct {
	Text       string     `json:"text"`
	Politeness Politeness `json:"politeness"`
	At         time.Time  `json:"at"`
}

// Announcer is the write side of a channel.
type Announcer interface {
	Announce(text string)
}

// Channel holds at most one pending message. Announcing while a message is
// still unread replaces it, so a reader only ever sees the latest status.
type Channel struct {
	mu  sync.Mutex
	ch  chan Message
	now func() time.Time
}

func NewChannel() *Channel {
	return &Channel{ch: make(chan Message, 1), now: time.Now}
}

// Announce cancels any pending message and queues text. Messages starting with
// "Error:" are assertive.
func (c *Channel) Announce(text string) {
	msg := Message{Text: text, Politeness: Polite, At: c.now()}
	if strings.HasPrefix(text, "Error:") {
		msg.Politeness = Assertive
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.ch:
	default:
	}
	c.ch <- msg
}

func (c *Channel) C() <-chan Message {
	return c.ch
}

// Take returns the pending message without blocking.
func (c *Channel) Take() (Message, bool) {
	select {
	case msg := <-c.ch:
		return msg, true
	default:
		return Message{}, false
	}
}

// Discard is an Announcer that drops everything.
type Discard struct{}

func (Discard) Announce(string) {}
