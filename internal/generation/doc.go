// Package generation provides interfaces and error types for interacting
// with external LLM services. It abstracts question answering and text
// embedding behind the Generator and Embedder interfaces so task handlers
// stay decoupled from any specific provider.
package generation
