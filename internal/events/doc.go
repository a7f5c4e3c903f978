// Package events decouples services that request background work from the
// queue that executes it. Services emit TaskRequestEvents through an
// EventEmitter; the EnqueueHandler subscriber persists them as queue tasks.
package events
