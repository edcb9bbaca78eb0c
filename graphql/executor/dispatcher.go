package executor

import (
	"github.com/lilianammmatos/incremental-graphql/graphql/executor/internal/future"
)

// IncrementalResult is one element of an incremental delivery response: either the initial
// result, a patch delivering deferred or streamed data, or the terminating element.
type IncrementalResult struct {
	// Data holds the patch's value. HasData distinguishes a patch whose data is legitimately nil
	// (a nulled field) from the terminating element, which carries no data at all.
	Data    interface{}
	HasData bool

	Path []interface{}

	Label    string
	HasLabel bool

	Errors []*Error

	// HasNext is true unless this is the last element of the sequence.
	HasNext bool
}

type patchOrDone struct {
	result *IncrementalResult
	done   bool
}

// dispatcher multiplexes the payloads produced by deferred fragments and streamed list tails
// during execution of a single request into a single ordered sequence of patches.
type dispatcher struct {
	pending []future.Future[patchOrDone]
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

// hasPending returns true iff there is still registered work outstanding.
func (d *dispatcher) hasPending() bool {
	return len(d.pending) > 0
}

// add registers a deferred fragment's execution. f is the future producing its completed value;
// errs accumulates field errors raised while producing it.
func (d *dispatcher) add(label string, hasLabel bool, p *path, f future.Future[any], errs *[]*Error) {
	d.pending = append(d.pending, future.MapResult(f, func(r future.Result[any]) future.Result[patchOrDone] {
		patchErrs := *errs
		data := r.Value
		if r.IsErr() {
			patchErrs = append(patchErrs, r.Error.(*Error))
			data = nil
		}
		return future.Result[patchOrDone]{Value: patchOrDone{result: &IncrementalResult{
			Data:     data,
			HasData:  true,
			Path:     p.Slice(),
			Label:    label,
			HasLabel: hasLabel,
			Errors:   patchErrs,
		}}}
	}))
}

// addDone registers a pending entry that resolves immediately to "iteration done", used to signal
// that a streamed tail has nothing further to contribute without delivering a patch of its own.
func (d *dispatcher) addDone() {
	d.pending = append(d.pending, future.Ok(patchOrDone{done: true}))
}

// addRaw registers a pending entry directly, used by the streamed-list and streamed-async-sequence
// tail schedulers in executor.go, which need to reschedule themselves from within their own
// callback.
func (d *dispatcher) addRaw(f future.Future[patchOrDone]) {
	d.pending = append(d.pending, f)
}

func (d *dispatcher) next(idleHandler func()) *IncrementalResult {
	for {
		for i := range d.pending {
			d.pending[i].Poll()
			if d.pending[i].IsReady() {
				result := d.pending[i].Result()
				d.pending = append(d.pending[:i:i], d.pending[i+1:]...)
				if result.IsErr() {
					// Every future registered with the dispatcher embeds its errors in the patch
					// itself; a top-level error here would be a bug.
					return &IncrementalResult{HasNext: len(d.pending) > 0}
				}
				if result.Value.done {
					if len(d.pending) == 0 {
						return &IncrementalResult{HasNext: false}
					}
					return d.next(idleHandler)
				}
				patch := result.Value.result
				patch.HasNext = len(d.pending) > 0
				return patch
			}
		}
		if idleHandler == nil {
			return &IncrementalResult{HasNext: false}
		}
		idleHandler()
	}
}
