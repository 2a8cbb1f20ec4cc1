package eventstore

import "context"

// ConsistencyLevel tells an engine where a read may be served from.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary. It is the default, and the only level
	// command handlers and the start-up replay use.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency lets an engine with a replica serve the read from it.
	EventualConsistency
)

type consistencyLevelKey struct{}

func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey{}, StrongConsistency)
}

func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey{}, EventualConsistency)
}

// GetConsistencyLevel returns the level stored in ctx, or StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	level, ok := ctx.Value(consistencyLevelKey{}).(ConsistencyLevel)
	if !ok {
		return StrongConsistency
	}

	return level
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
