package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilianammmatos/incremental-graphql/graphql/executor/internal/future"
)

func TestDispatcherHasPending(t *testing.T) {
	d := newDispatcher()
	assert.False(t, d.hasPending())
	d.addDone()
	assert.True(t, d.hasPending())
}

func TestDispatcherDeliversInSettlementOrder(t *testing.T) {
	d := newDispatcher()

	slow := make(chan struct{})
	slowFuture := future.New(func() (future.Result[any], bool) {
		select {
		case <-slow:
			return future.Result[any]{Value: "slow"}, true
		default:
			return future.Result[any]{}, false
		}
	})
	d.add("", false, nil, slowFuture, &[]*Error{})

	fastErrs := []*Error{}
	d.add("fast", true, nil, future.Ok[any]("fast"), &fastErrs)

	var idleCalls int
	idle := func() {
		idleCalls++
		if idleCalls == 1 {
			close(slow)
		}
	}

	first := d.next(idle)
	require.NotNil(t, first)
	assert.Equal(t, "fast", first.Data)
	assert.True(t, first.HasLabel)
	assert.Equal(t, "fast", first.Label)
	assert.True(t, first.HasNext)

	second := d.next(idle)
	require.NotNil(t, second)
	assert.Equal(t, "slow", second.Data)
	assert.False(t, second.HasNext)
	assert.False(t, d.hasPending())
}

func TestDispatcherAddCapturesFieldErrors(t *testing.T) {
	d := newDispatcher()
	localErrs := []*Error{{Message: "boom"}}
	d.add("", false, nil, future.Ok[any](map[string]interface{}{"a": 1}), &localErrs)

	result := d.next(nil)
	require.NotNil(t, result)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "boom", result.Errors[0].Message)
	assert.False(t, result.HasNext)
}

func TestDispatcherAddPropagatesFutureError(t *testing.T) {
	d := newDispatcher()
	localErrs := []*Error{}
	d.add("", false, nil, future.Err[any](&Error{Message: "resolver failed"}), &localErrs)

	result := d.next(nil)
	require.NotNil(t, result)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "resolver failed", result.Errors[0].Message)
	assert.Nil(t, result.Data)
	assert.True(t, result.HasData)
}

func TestDispatcherAddDoneWithNothingElseTerminates(t *testing.T) {
	d := newDispatcher()
	d.addDone()
	result := d.next(nil)
	require.NotNil(t, result)
	assert.False(t, result.HasNext)
	assert.False(t, result.HasData)
}

func TestDispatcherAddDoneSkipsToNextPending(t *testing.T) {
	d := newDispatcher()
	d.addDone()
	localErrs := []*Error{}
	d.add("", false, nil, future.Ok[any]("value"), &localErrs)

	result := d.next(nil)
	require.NotNil(t, result)
	assert.Equal(t, "value", result.Data)
	assert.False(t, result.HasNext)
}

func TestDispatcherAddRaw(t *testing.T) {
	d := newDispatcher()
	d.addRaw(future.Ok(patchOrDone{result: &IncrementalResult{Data: "raw", HasData: true}}))

	result := d.next(nil)
	require.NotNil(t, result)
	assert.Equal(t, "raw", result.Data)
	assert.False(t, result.HasNext)
}

func TestDispatcherNextWithNoIdleHandlerAndNothingReadyTerminates(t *testing.T) {
	d := newDispatcher()
	pending := future.New(func() (future.Result[any], bool) {
		return future.Result[any]{}, false
	})
	d.add("", false, nil, pending, &[]*Error{})

	result := d.next(nil)
	require.NotNil(t, result)
	assert.False(t, result.HasNext)
	assert.False(t, result.HasData)
}
