package strategy

import (
	"sync"
	"time"
)

// BackEvent is published when a back action must reach the view layer
// without a direct callback.
type BackEvent struct {
	Tab   string    `json:"tab"`
	Route string    `json:"route"`
	At    time.Time `json:"at"`
}

// Notifier receives back events. Delivery is fire-and-forget.
type Notifier interface {
	NotifyBack(ev BackEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev BackEvent)

func (f NotifierFunc) NotifyBack(ev BackEvent) { f(ev) }

// Observers fans a back event out to any number of subscribers.
type Observers struct {
	mu   sync.Mutex
	next int
	subs map[int]func(BackEvent)
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observers) Subscribe(fn func(BackEvent)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]func(BackEvent))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// NotifyBack calls every subscriber with ev.
func (o *Observers) NotifyBack(ev BackEvent) {
	o.mu.Lock()
	subs := make([]func(BackEvent), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Len returns the number of subscribers.
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// MultiNotifier forwards every event to each of ns.
func MultiNotifier(ns ...Notifier) Notifier {
	return NotifierFunc(func(ev BackEvent) {
		for _, n := range ns {
			if n != nil {
				n.NotifyBack(ev)
			}
		}
	})
}
