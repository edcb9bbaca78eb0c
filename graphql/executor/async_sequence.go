package executor

import (
	"github.com/lilianammmatos/incremental-graphql/graphql/executor/internal/future"
)

// AsyncSequence is implemented by field resolver results that produce list elements one at a
// time rather than all at once, e.g. a database cursor. It is only recognized for list-typed
// fields. If a resolver returns one, the request must define an IdleHandler, the same as for
// ResolvePromise.
type AsyncSequence interface {
	// Next returns a channel that will receive exactly one AsyncSequenceItem.
	Next() AsyncSequenceItemPromise
}

// AsyncSequenceItemPromise delivers a single AsyncSequenceItem. See AsyncSequence.
type AsyncSequenceItemPromise chan AsyncSequenceItem

// AsyncSequenceItem is sent on an AsyncSequenceItemPromise. Done is true when the sequence is
// exhausted, in which case Value and Error carry no meaning.
type AsyncSequenceItem struct {
	Value interface{}
	Error error
	Done  bool
}

// pollAsyncSequenceItem returns a future that resolves with the next item produced by seq,
// without blocking the caller.
func pollAsyncSequenceItem(seq AsyncSequence) future.Future[AsyncSequenceItem] {
	p := seq.Next()
	return future.New(func() (future.Result[AsyncSequenceItem], bool) {
		select {
		case item := <-p:
			return future.Result[AsyncSequenceItem]{Value: item}, true
		default:
			return future.Result[AsyncSequenceItem]{}, false
		}
	})
}
