// Package llm contains adapters and shared types for invoking large language
// models. It abstracts away provider-specific APIs and normalizes the
// request/response lifecycle for use within the agent runtime.
package llm
