// Package notify carries transient user-facing notifications ("toasts").
package notify

import (
	"sync"

	"github.com/google/uuid"
)

type Variant string

const (
	Success Variant = "success"
	Error   Variant = "error"
)

// Notice is one dismissible toast.
type Notice struct {
	ID      string  `json:"id"`
	Message string  `json:"m"`
	Variant Variant `json:"v"`
}

// Notifier displays a transient message. Nothing is returned to the caller.
type Notifier interface {
	Notify(message string, variant Variant)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(string, Variant) {}

// Collector gathers the notices raised while serving one request.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *Collector) Notify(message string, variant Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{ID: uuid.NewString(), Message: message, Variant: variant})
}

// Add appends already-built notices, e.g. ones restored from a flash cookie.
func (c *Collector) Add(ns ...Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, ns...)
}

func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// Count returns how many notices of variant were raised.
func (c *Collector) Count(variant Variant) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, x := range c.notices {
		if x.Variant == variant {
			n++
		}
	}
	return n
}
