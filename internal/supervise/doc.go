// Package supervise finds, stops, and starts the worker process. Termination
// is graceful-then-forced within a bounded wait; detached launches survive
// the parent's exit, which the handoff procedure depends on.
package supervise
