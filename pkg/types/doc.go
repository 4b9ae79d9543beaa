// Package types defines the core interfaces and data structures for llm-fallback.
// It includes the provider contract, per-call generation options, provider
// configuration, and the normalized error taxonomy shared by all adapters.
package types
