// Package view implements the behaviour shared by every list page: load the
// records once per visible lifetime, report failures as notifications, and
// run confirm-then-submit actions that refresh the list on success.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"frodoestate/internal/notify"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNotConfirming = errors.New("no action awaiting confirmation")
	ErrBusy          = errors.New("an action is already in progress")
)

// FetchFunc loads the records of a page. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Action is a mutating operation guarded by a confirmation dialog.
type Action struct {
	Name    string
	Title   string // dialog title
	Prompt  string // dialog body
	Success string // notification on success
	Failure string // notification on failure
	Mutate  func(ctx context.Context, targetID string) error
}

// Modal is the confirmation dialog currently open.
type Modal struct {
	Action   string
	TargetID string
	Title    string
	Prompt   string
}

// Controller holds the private view state of one page instance.
type Controller[T any] struct {
	fetch    FetchFunc[T]
	notifier notify.Notifier
	fetchMsg string
	actions  map[string]Action
	observe  func(action string, outcome State)

	mu      sync.Mutex
	records []T
	loading bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	fetches int
	state   State
	modal   *Modal
}

// NewController wires a page. fetchFailure is the error notification raised
// when fetch fails.
func NewController[T any](fetch FetchFunc[T], n notify.Notifier, fetchFailure string, actions ...Action) *Controller[T] {
	if n == nil {
		n = notify.Noop{}
	}
	c := &Controller[T]{
		fetch:    fetch,
		notifier: n,
		fetchMsg: fetchFailure,
		actions:  make(map[string]Action, len(actions)),
	}
	for _, a := range actions {
		c.actions[a.Name] = a
	}
	return c
}

// Observe registers a callback for action outcomes.
func (c *Controller[T]) Observe(fn func(action string, outcome State)) { c.observe = fn }

// Mount starts loading records. Any load still in flight is superseded and
// its result discarded.
func (c *Controller[T]) Mount(parent context.Context) {
	c.start(parent)
}

// Load mounts and waits for the fetch to return. fetch is expected to give up
// once ctx is done, so a deadline on ctx bounds the wait.
func (c *Controller[T]) Load(ctx context.Context) {
	<-c.start(ctx)
}

// Unmount cancels the in-flight load. Its result will never be applied.
func (c *Controller[T]) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

// Wait blocks until the latest load finished or ctx ends.
func (c *Controller[T]) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start launches a fetch. Only unmounting or a newer start discards its
// result; a fetch ending because parent expired counts as a failure.
func (c *Controller[T]) start(parent context.Context) <-chan struct{} {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.loading = true
	c.fetches++
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		recs, err := c.safeFetch(ctx)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.loading = false
		c.cancel = nil
		if err != nil {
			c.records = nil
		} else {
			c.records = recs
		}
		c.mu.Unlock()

		if err != nil {
			c.notifier.Notify(c.fetchMsg, notify.Error)
		}
	}()
	return done
}

func (c *Controller[T]) safeFetch(ctx context.Context) (recs []T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fetch panicked: %v", p)
		}
	}()
	return c.fetch(ctx)
}

func (c *Controller[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.records...)
}

func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Fetches counts loads started over the controller's lifetime.
func (c *Controller[T]) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Modal returns the open dialog, if any.
func (c *Controller[T]) Modal() (Modal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return Modal{}, false
	}
	return *c.modal, true
}

// Open shows the confirmation dialog of action for targetID.
func (c *Controller[T]) Open(action, targetID string) error {
	a, ok := c.actions[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrBusy
	}
	c.modal = &Modal{Action: a.Name, TargetID: targetID, Title: a.Title, Prompt: a.Prompt}
	c.state = Confirming
	return nil
}

// Dismiss closes the dialog without submitting.
func (c *Controller[T]) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return
	}
	c.modal = nil
	c.state = Idle
}

// Confirm submits the open action. On success it raises the success
// notification and reloads the records once; on failure it raises the failure
// notification. The dialog is closed either way and the returned state is the
// terminal one reached before collapsing back to Idle.
func (c *Controller[T]) Confirm(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state != Confirming || c.modal == nil {
		c.mu.Unlock()
		return Idle, ErrNotConfirming
	}
	m := *c.modal
	c.state = Submitting
	c.mu.Unlock()

	a := c.actions[m.Action]
	outcome := Success
	err := a.Mutate(ctx, m.TargetID)
	if err != nil {
		outcome = Failure
		c.notifier.Notify(a.Failure, notify.Error)
	} else {
		c.notifier.Notify(a.Success, notify.Success)
	}

	c.mu.Lock()
	c.modal = nil
	c.state = outcome
	c.mu.Unlock()

	if outcome == Success {
		c.Load(ctx)
	}
	if c.observe != nil {
		c.observe(m.Action, outcome)
	}

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
	return outcome, err
}

// Submit opens and immediately confirms an action. Used where the
// confirmation happened on a previous request.
func (c *Controller[T]) Submit(ctx context.Context, action, targetID string) (State, error) {
	if err := c.Open(action, targetID); err != nil {
		return Idle, err
	}
	return c.Confirm(ctx)
}
