// Package observable decorates command handlers with logging and metrics
// without touching their business logic.
package observable
