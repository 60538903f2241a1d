package application

import "context"

// CommandHandler handles a specific command type and returns its result.
type CommandHandler[C any, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}
