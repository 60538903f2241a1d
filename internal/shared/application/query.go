package application

import "context"

// QueryHandler handles a specific query type.
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
