// Package services implements the application operations on top of the
// store, the session registry and the snapshot saver. Every service method
// enforces its own preconditions and returns typed errors; the HTTP layer
// only maps them to status codes.
package services

// Notifier receives a trigger after every successful mutation. The snapshot
// saver implements it; tests substitute a recording fake.
type Notifier interface {
	Notify()
}

// NopNotifier satisfies Notifier where persistence is not wired, e.g. in
// focused tests.
type NopNotifier struct{}

func (NopNotifier) Notify() {}
