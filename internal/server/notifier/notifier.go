// Package notifier fans out view change events to live-reload listeners.
package notifier

import "sync"

// Notifier broadcasts the path of a changed view to every subscriber.
// Each subscriber holds at most one pending change; a newer change replaces
// an unread one.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan string]struct{}
}

// New creates a Notifier with no subscribers.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel receiving changed paths.
// The caller must Unsubscribe when done.
func (n *Notifier) Subscribe() chan string {
	ch := make(chan string, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (n *Notifier) Unsubscribe(ch chan string) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends path to all listeners without blocking.
func (n *Notifier) Broadcast(path string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- path:
			continue
		default:
		}
		// drop the stale change, keep the latest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- path:
		default:
		}
	}
}
