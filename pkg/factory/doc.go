// Package factory provides registration and construction for the built-in
// text-generation providers. It includes a type-keyed provider registry,
// configuration validation, and helpers that assemble the default fallback
// chain from loaded or environment-derived configuration.
package factory
