package future

import (
	"reflect"
)

// Result holds either a value or an error.
type Result[T any] struct {
	Value T
	Error error
}

// IsOk returns true if the result is not an error.
func (r Result[T]) IsOk() bool {
	return r.Error == nil || reflect.ValueOf(r.Error).IsNil()
}

// IsErr returns true if the result is an error.
func (r Result[T]) IsErr() bool {
	return !r.IsOk()
}

// Future represents a result that will be available at some point in the future. It is very similar
// to Rust's Future trait.
type Future[T any] struct {
	result Result[T]
	poll   func() (Result[T], bool)
}

// New constructs a new future from a poll function. When the future's value is ready, poll should
// return the value and true. Otherwise, poll should return a zero value and false.
func New[T any](poll func() (Result[T], bool)) Future[T] {
	return Future[T]{
		poll: poll,
	}
}

// IsReady returns true if the future's value is ready.
func (f Future[T]) IsReady() bool {
	return f.poll == nil
}

// Result returns the future's result if it is ready.
func (f Future[T]) Result() Result[T] {
	return f.result
}

// Map converts a future's result using a conversion function.
func Map[T any](f Future[T], fn func(Result[T]) Result[T]) Future[T] {
	if f.IsReady() {
		f.result = fn(f.result)
	} else {
		fpoll := f.poll
		f.poll = func() (Result[T], bool) {
			r, ok := fpoll()
			if ok {
				return fn(r), true
			}
			return r, false
		}
	}
	return f
}

// MapOk converts a future's value to a different type using a conversion function. If the future
// resolves to an error, the error is propagated and fn is never called.
func MapOk[T, U any](f Future[T], fn func(T) U) Future[U] {
	if f.IsReady() {
		r := f.result
		var u Result[U]
		u.Error = r.Error
		if r.IsOk() {
			u.Value = fn(r.Value)
		}
		return Future[U]{result: u}
	}
	fpoll := f.poll
	return New(func() (Result[U], bool) {
		r, ok := fpoll()
		if !ok {
			var zero Result[U]
			return zero, false
		}
		var u Result[U]
		u.Error = r.Error
		if r.IsOk() {
			u.Value = fn(r.Value)
		}
		return u, true
	})
}

// MapResult converts a future's result to a different type using a conversion function that sees
// both the Ok and Err cases, unlike MapOk which only runs on success.
func MapResult[T, U any](f Future[T], fn func(Result[T]) Result[U]) Future[U] {
	if f.IsReady() {
		return Future[U]{result: fn(f.result)}
	}
	fpoll := f.poll
	return New(func() (Result[U], bool) {
		r, ok := fpoll()
		if !ok {
			var zero Result[U]
			return zero, false
		}
		return fn(r), true
	})
}

// Then invokes fn when f is resolved and returns a future that resolves when fn's return value is
// resolved.
func Then[T, U any](f Future[T], fn func(Result[T]) Future[U]) Future[U] {
	if f.IsReady() {
		return fn(f.result)
	}
	var then Future[U]
	var hasThen bool
	fpoll := f.poll
	return New(func() (Result[U], bool) {
		if !hasThen {
			if r, ok := fpoll(); ok {
				then = fn(r)
				hasThen = true
			}
		}
		if hasThen {
			then.Poll()
			return then.result, then.IsReady()
		}
		var zero Result[U]
		return zero, false
	})
}

// Poll invokes pollers for the future and its dependencies, allowing futures to transition to
// the ready state.
func (f *Future[T]) Poll() {
	if f.poll != nil {
		var ok bool
		if f.result, ok = f.poll(); ok {
			f.poll = nil
		}
	}
}

// Ok returns a new future that is immediately ready with the given value.
func Ok[T any](v T) Future[T] {
	return Future[T]{
		result: Result[T]{
			Value: v,
		},
	}
}

// Err returns a new future that is immediately ready with the given error.
func Err[T any](err error) Future[T] {
	return Future[T]{
		result: Result[T]{
			Error: err,
		},
	}
}

// Join combines the values from multiple futures into a single future that resolves to a slice of
// their values. If any future errors, the returned future immediately resolves to an error.
func Join[T any](fs ...Future[T]) Future[[]T] {
	results := make([]T, len(fs))

	ok := true

	for i, f := range fs {
		if f.IsReady() {
			if !f.Result().IsOk() {
				return Err[[]T](f.Result().Error)
			}
			results[i] = f.Result().Value
		} else {
			ok = false
		}
	}

	if ok {
		return Ok(results)
	}

	return New(func() (Result[[]T], bool) {
		ok := true

		for i, f := range fs {
			f.Poll()
			if f.IsReady() {
				if !f.Result().IsOk() {
					return Result[[]T]{
						Error: f.Result().Error,
					}, true
				}
				results[i] = f.Result().Value
			} else {
				ok = false
			}
		}

		if ok {
			return Result[[]T]{
				Value: results,
			}, true
		}

		return Result[[]T]{}, false
	})
}

// After returns a single future that resolves after all of the given futures. If any future errors,
// the returned future immediately resolves to an error. This is very similar to Join except that
// the resolved value carries no data (making it more efficient if you don't need the joined values).
func After[T any](fs ...Future[T]) Future[struct{}] {
	ok := true

	for _, f := range fs {
		if f.IsReady() {
			if !f.Result().IsOk() {
				return Err[struct{}](f.Result().Error)
			}
		} else {
			ok = false
		}
	}

	if ok {
		return Ok(struct{}{})
	}

	return New(func() (Result[struct{}], bool) {
		ok := true

		for _, f := range fs {
			f.Poll()
			if f.IsReady() {
				if !f.Result().IsOk() {
					return Result[struct{}]{
						Error: f.Result().Error,
					}, true
				}
			} else {
				ok = false
			}
		}

		if ok {
			return Result[struct{}]{}, true
		}

		return Result[struct{}]{}, false
	})
}
