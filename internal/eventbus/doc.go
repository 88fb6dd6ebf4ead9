// Package eventbus is the in-process publish/subscribe channel that pushes
// freshly saved entities to every open detail view.
//
//   - bus.go: Event, Handler, Subscription and the Bus interface; name helpers.
//   - memory.go: Memory, the synchronous in-process implementation.
//   - recorder.go: Recorder, a Bus decorator that keeps published events for tests.
//   - metrics.go: Prometheus instrumentation for publishes and subscribers.
//
// Delivery is synchronous on the publishing goroutine and in subscription
// order. A bus is injected into its users; there is no package-level bus.
package eventbus
