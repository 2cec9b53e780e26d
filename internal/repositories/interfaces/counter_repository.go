package interfaces

import "context"

type CounterRepository interface {
	// Next atomically increments and returns the named sequence.
	Next(ctx context.Context, name string) (int64, error)
}
