package executor

import (
	"context"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/lilianammmatos/incremental-graphql/graphql/ast"
	"github.com/lilianammmatos/incremental-graphql/graphql/executor/internal/future"
	"github.com/lilianammmatos/incremental-graphql/graphql/schema"
	"github.com/lilianammmatos/incremental-graphql/graphql/schema/introspection"
	"github.com/lilianammmatos/incremental-graphql/graphql/validator"
)

// ResolveResult represents the result of a field resolver. This type is generally used with
// ResolvePromise to pass around asynchronous results.
type ResolveResult struct {
	Value interface{}
	Error error
}

// ResolvePromise can be used to resolve fields asynchronously. You may return ResolvePromise from
// the field's resolve function. If you do, you must define an IdleHandler for the request. Any time
// request execution is unable to proceed, the idle handler will be invoked. Before the idle handler
// returns, a result must be sent to at least one previously returned ResolvePromise.
type ResolvePromise chan ResolveResult

// Request defines all of the inputs required to execute a GraphQL query.
type Request struct {
	Document       *ast.Document
	Schema         *schema.Schema
	OperationName  string
	VariableValues map[string]interface{}
	InitialValue   interface{}
	IdleHandler    func()

	// Features lists the optional features enabled for this request, e.g. "defer" and "stream".
	Features schema.FeatureSet
}

// ExecuteRequest executes a request, returning its single, complete response. Any data produced by
// @defer or @stream directives is discarded; use ExecuteRequestIncremental to receive it.
func ExecuteRequest(ctx context.Context, r *Request) (*OrderedMap, []*Error) {
	data, errs, _ := ExecuteRequestIncremental(ctx, r)
	return data, errs
}

// IncrementalSequence delivers the patches of an incremental response, one at a time, terminated by
// a result whose HasNext is false. It is returned by ExecuteRequestIncremental whenever a request
// used @defer or @stream; callers that don't care about incremental delivery can ignore it.
type IncrementalSequence struct {
	d           *dispatcher
	idleHandler func()
}

// Next blocks, invoking the request's IdleHandler as needed, until the next patch is ready. Once a
// result with HasNext == false has been returned, Next must not be called again.
func (s *IncrementalSequence) Next() *IncrementalResult {
	return s.d.next(s.idleHandler)
}

// ExecuteRequestIncremental executes a request. If the request's document used @defer or @stream,
// the returned IncrementalSequence delivers the deferred and streamed patches, terminated by a
// result whose HasNext is false; it is nil if the request had nothing left to deliver beyond the
// initial response.
func ExecuteRequestIncremental(ctx context.Context, r *Request) (*OrderedMap, []*Error, *IncrementalSequence) {
	e, err := newExecutor(ctx, r)
	if err != nil {
		return nil, []*Error{err}, nil
	}

	var data *OrderedMap
	var errs []*Error
	if opType := e.Operation.OperationType; opType == nil || opType.Value == "query" {
		data, errs = e.executeQuery(r.InitialValue)
	} else if opType.Value == "mutation" {
		data, errs = e.executeMutation(r.InitialValue)
	} else if opType.Value == "subscription" {
		data, errs = e.executeSubscriptionEvent(r.InitialValue)
	} else {
		panic("unexpected operation type")
	}

	if !e.Dispatcher.hasPending() {
		return data, errs, nil
	}
	return data, errs, &IncrementalSequence{d: e.Dispatcher, idleHandler: r.IdleHandler}
}

// IsSubscription can be used to determine if a request is for a subscription.
func IsSubscription(doc *ast.Document, operationName string) bool {
	operation, err := GetOperation(doc, operationName)
	return err == nil && operation.OperationType != nil && operation.OperationType.Value == "subscription"
}

// Subscribe resolves the root subscription field of a request and returns the result.
func Subscribe(ctx context.Context, r *Request) (interface{}, *Error) {
	if e, err := newExecutor(ctx, r); err != nil {
		return nil, err
	} else if e.Operation.OperationType != nil && e.Operation.OperationType.Value == "subscription" {
		return e.subscribe(r.InitialValue)
	} else {
		return nil, newError(e.Operation, "A subscription operation is required.")
	}
}

type executor struct {
	Context             context.Context
	Schema              *schema.Schema
	FragmentDefinitions map[string]*ast.FragmentDefinition
	VariableValues      map[string]interface{}
	Errors              []*Error
	Operation           *ast.OperationDefinition
	IdleHandler         func()

	// GroupedFieldSetCache is used to cache the results of collectFields.
	GroupedFieldSetCache map[string]*collectFieldsResult

	// Dispatcher multiplexes the payloads produced by deferred fragments and streamed list tails
	// into the request's incremental delivery sequence, if any.
	Dispatcher *dispatcher
}

func newExecutor(ctx context.Context, r *Request) (*executor, *Error) {
	operation, err := GetOperation(r.Document, r.OperationName)
	if err != nil {
		return nil, err
	}
	coercedVariableValues, err := coerceVariableValues(r.Schema, operation, r.VariableValues)
	if err != nil {
		return nil, err
	}

	e := &executor{
		Context:              ctx,
		Schema:               r.Schema,
		FragmentDefinitions:  map[string]*ast.FragmentDefinition{},
		VariableValues:       coercedVariableValues,
		Operation:            operation,
		IdleHandler:          r.IdleHandler,
		GroupedFieldSetCache: map[string]*collectFieldsResult{},
		Dispatcher:           newDispatcher(),
	}
	for _, def := range r.Document.Definitions {
		if def, ok := def.(*ast.FragmentDefinition); ok {
			e.FragmentDefinitions[def.Name.Name] = def
		}
	}
	return e, nil
}

func (e *executor) executeQuery(initialValue interface{}) (*OrderedMap, []*Error) {
	queryType := e.Schema.QueryType()
	if !schema.IsObjectType(queryType) {
		return nil, []*Error{newError(e.Operation, "This schema cannot perform queries.")}
	}
	if data, err := wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, queryType, initialValue, nil, false, false, &e.Errors)); err != nil {
		e.Errors = append(e.Errors, err.(*Error))
		return nil, e.Errors
	} else if data != nil {
		return data, e.Errors
	}
	return nil, nil
}

func (e *executor) executeMutation(initialValue interface{}) (*OrderedMap, []*Error) {
	mutationType := e.Schema.MutationType()
	if !schema.IsObjectType(mutationType) {
		return nil, []*Error{newError(e.Operation, "This schema cannot perform mutations.")}
	}
	if data, err := wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, mutationType, initialValue, nil, true, true, &e.Errors)); err != nil {
		e.Errors = append(e.Errors, err.(*Error))
		return nil, e.Errors
	} else if data != nil {
		return data, e.Errors
	}
	return nil, nil
}

func (e *executor) subscribe(initialValue interface{}) (interface{}, *Error) {
	subscriptionType := e.Schema.SubscriptionType()
	if !schema.IsObjectType(subscriptionType) {
		return nil, newError(e.Operation, "This schema cannot perform subscriptions.")
	}

	result, err := e.collectFields(subscriptionType, e.Operation.SelectionSet.Selections, false)
	if err != nil {
		return nil, err
	}
	groupedFieldSet := result.GroupedFields

	if groupedFieldSet.Len() != 1 {
		return nil, newError(e.Operation.SelectionSet, "Subscriptions must contain exactly one root field selection.")
	}

	item := groupedFieldSet.Items()[0]
	fields := item.Fields
	field := fields[0]
	fieldName := field.Name.Name
	fieldDef := subscriptionType.Fields[fieldName]
	if fieldDef == nil {
		return nil, newError(field, "Undefined root subscription field.")
	}
	argumentValues, err := coerceArgumentValues(field, fieldDef.Arguments, field.Arguments, e.VariableValues)
	if err != nil {
		return nil, err
	}

	resolveValue, resolveErr := fieldDef.Resolve(&schema.FieldContext{
		Context:     e.Context,
		Schema:      e.Schema,
		Object:      initialValue,
		Arguments:   argumentValues,
		IsSubscribe: true,
	})
	if !isNil(resolveErr) {
		return nil, &Error{
			Message: resolveErr.Error(),
			Locations: []Location{{
				Line:   field.Position().Line,
				Column: field.Position().Column,
			}},
			Path:          []interface{}{item.Key},
			originalError: resolveErr,
		}
	}
	return resolveValue, nil
}

func (e *executor) executeSubscriptionEvent(initialValue interface{}) (*OrderedMap, []*Error) {
	subscriptionType := e.Schema.SubscriptionType()
	if !schema.IsObjectType(subscriptionType) {
		return nil, []*Error{newError(e.Operation, "This schema cannot perform subscriptions.")}
	}
	if data, err := wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, subscriptionType, initialValue, nil, false, false, &e.Errors)); err != nil {
		e.Errors = append(e.Errors, err.(*Error))
		return nil, e.Errors
	} else if data != nil {
		return data, e.Errors
	}
	return nil, nil
}

func wait[T any](e *executor, f future.Future[T]) (T, error) {
	var result future.Result[T]
	done := false
	f = future.Map(f, func(r future.Result[T]) future.Result[T] {
		result = r
		done = true
		return r
	})
	f.Poll()
	for !done {
		if e.IdleHandler == nil {
			return result.Value, newError(nil, "No idle handler defined.")
		}
		e.IdleHandler()
		f.Poll()
	}
	return result.Value, result.Error
}

// executeSelections collects selections against objectType, registers any deferred fragments found
// with the dispatcher, and executes the immediate (non-deferred) fields. suppressDefer is true only
// for the root selection set of a mutation, where @defer and @stream are not recognized.
func (e *executor) executeSelections(selections []ast.Selection, objectType *schema.ObjectType, objectValue interface{}, path *path, forceSerial bool, suppressDefer bool, errs *[]*Error) future.Future[*OrderedMap] {
	result, err := e.collectFields(objectType, selections, suppressDefer)
	if err != nil {
		return future.Err[*OrderedMap](err)
	}

	for _, dg := range result.Deferred {
		dg := dg
		localErrs := make([]*Error, 0)
		f := future.MapOk(e.executeGroupedFieldSet(dg.GroupedFields, objectType, objectValue, path, false, &localErrs), func(m *OrderedMap) interface{} {
			return m
		})
		e.Dispatcher.add(dg.Label, dg.HasLabel, path, f, &localErrs)
	}

	return e.executeGroupedFieldSet(result.GroupedFields, objectType, objectValue, path, forceSerial, errs)
}

func (e *executor) executeGroupedFieldSet(groupedFieldSet *GroupedFieldSet, objectType *schema.ObjectType, objectValue interface{}, path *path, forceSerial bool, errs *[]*Error) future.Future[*OrderedMap] {
	resultMap := NewOrderedMapWithLength(groupedFieldSet.Len())

	futures := make([]future.Future[any], 0, groupedFieldSet.Len())

	for i, item := range groupedFieldSet.Items() {
		responseKey := item.Key
		fields := item.Fields
		fieldName := fields[0].Name.Name

		if fieldName == "__typename" {
			resultMap.SetIndexed(i, responseKey, objectType.Name)
			continue
		}

		fieldDef := objectType.Fields[fieldName]
		if fieldDef == nil && objectType == e.Schema.QueryType() {
			fieldDef = introspection.MetaFields[fieldName]
		}

		if fieldDef != nil {
			f := e.catchErrorIfNullable(fieldDef.Type, e.executeField(objectValue, fields, fieldDef, path.WithStringComponent(responseKey), item.Stream, errs), errs)
			if forceSerial {
				responseValue, err := wait(e, f)
				if err != nil {
					return future.Err[*OrderedMap](err)
				}
				resultMap.SetIndexed(i, responseKey, responseValue)
			} else {
				i := i
				responseKey := responseKey
				futures = append(futures, future.MapOk(f, func(responseValue any) any {
					resultMap.SetIndexed(i, responseKey, responseValue)
					return nil
				}))
			}
		}
	}

	return future.MapOk(future.After(futures...), func(struct{}) *OrderedMap {
		return resultMap
	})
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()
}

func newFieldResolveError(fields []*ast.Field, err error, path *path) *Error {
	locations := make([]Location, len(fields))
	for i, field := range fields {
		locations[i].Line = field.Position().Line
		locations[i].Column = field.Position().Column
	}
	return &Error{
		Message:       err.Error(),
		Locations:     locations,
		Path:          path.Slice(),
		originalError: err,
	}
}

func (e *executor) executeField(objectValue interface{}, fields []*ast.Field, fieldDef *schema.FieldDefinition, path *path, stream *StreamDirectiveInfo, errs *[]*Error) future.Future[any] {
	field := fields[0]
	argumentValues, coercionErr := coerceArgumentValues(field, fieldDef.Arguments, field.Arguments, e.VariableValues)
	if coercionErr != nil {
		return future.Err[any](coercionErr)
	}
	if err := e.Context.Err(); err != nil {
		return future.Err[any](newFieldResolveError(fields, err, path))
	}
	resolvedValue, err := fieldDef.Resolve(&schema.FieldContext{
		Context:   e.Context,
		Schema:    e.Schema,
		Object:    objectValue,
		Arguments: argumentValues,
	})
	if !isNil(err) {
		return future.Err[any](newFieldResolveError(fields, err, path))
	}
	if f, ok := resolvedValue.(ResolvePromise); ok {
		return future.Then(future.New(func() (future.Result[any], bool) {
			var result future.Result[any]
			select {
			case r := <-f:
				if !isNil(r.Error) {
					result.Error = r.Error
				} else {
					result.Value = r.Value
				}
				return result, true
			default:
				return result, false
			}
		}), func(r future.Result[any]) future.Future[any] {
			if r.IsOk() {
				return e.completeValue(fieldDef.Type, fields, r.Value, path, stream, errs)
			}
			return future.Err[any](newFieldResolveError(fields, r.Error, path))
		})
	}
	return e.completeValue(fieldDef.Type, fields, resolvedValue, path, stream, errs)
}

func (e *executor) catchErrorIfNullable(t schema.Type, f future.Future[any], errs *[]*Error) future.Future[any] {
	if schema.IsNonNullType(t) {
		return f
	}
	return future.Map(f, func(r future.Result[any]) future.Result[any] {
		if r.IsErr() {
			*errs = append(*errs, r.Error.(*Error))
			r.Error = nil
		}
		return r
	})
}

func (e *executor) completeValue(fieldType schema.Type, fields []*ast.Field, result interface{}, path *path, stream *StreamDirectiveInfo, errs *[]*Error) future.Future[any] {
	if nonNullType, ok := fieldType.(*schema.NonNullType); ok {
		return future.Map(e.completeValue(nonNullType.Type, fields, result, path, stream, errs), func(r future.Result[any]) future.Result[any] {
			if r.IsOk() && r.Value == nil {
				r.Error = newErrorWithPath(fields[0], path, "Null result for non-null field.")
			}
			return r
		})
	}

	if seq, ok := result.(AsyncSequence); ok {
		listType, ok := fieldType.(*schema.ListType)
		if !ok {
			return future.Err[any](newErrorWithPath(fields[0], path, "Unexpected result: async sequence for non-list field."))
		}
		return e.completeAsyncSequence(listType.Type, fields, seq, path, stream, errs)
	}

	if isNil(result) {
		return future.Ok[any](nil)
	}

	switch fieldType := fieldType.(type) {
	case *schema.ListType:
		return e.completeList(fieldType.Type, fields, result, path, stream, errs)
	case *schema.ScalarType:
		coerced, err := fieldType.CoerceResult(result)
		if err != nil {
			return future.Err[any](newErrorWithPath(fields[0], path, "Unexpected result: %v", err))
		}
		return future.Ok(coerced)
	case *schema.EnumType:
		coerced, err := fieldType.CoerceResult(result)
		if err != nil {
			return future.Err[any](newErrorWithPath(fields[0], path, "Unexpected result: %v", err))
		}
		return future.Ok[any](coerced)
	case *schema.ObjectType, *schema.InterfaceType, *schema.UnionType:
		var objectType *schema.ObjectType
		switch fieldType := fieldType.(type) {
		case *schema.ObjectType:
			objectType = fieldType
		case *schema.InterfaceType:
			for _, t := range e.Schema.InterfaceImplementations(fieldType.Name) {
				if t.IsTypeOf(result) {
					objectType = t
					break
				}
			}
		case *schema.UnionType:
			for _, t := range fieldType.MemberTypes {
				if t.IsTypeOf(result) {
					objectType = t
					break
				}
			}
		}
		if objectType == nil {
			return future.Err[any](newErrorWithPath(fields[0], path, "Unable to determine object type."))
		}
		return future.MapOk(e.executeSelections(mergeSelectionSets(fields), objectType, result, path, false, false, errs), func(m *OrderedMap) interface{} {
			return m
		})
	}
	panic(fmt.Sprintf("unexpected field type: %T", fieldType))
}

// completeList completes an ordinary (non-async-sequence) list result. If stream is non-nil, only
// the first stream.InitialCount elements are completed inline; the remainder is registered with the
// dispatcher as a sequence of patches, one per element.
func (e *executor) completeList(innerType schema.Type, fields []*ast.Field, result interface{}, path *path, stream *StreamDirectiveInfo, errs *[]*Error) future.Future[any] {
	resultValue := reflect.ValueOf(result)
	if resultValue.Kind() != reflect.Slice {
		return future.Err[any](newErrorWithPath(fields[0], path, "Result is not a list."))
	}

	n := resultValue.Len()
	initialCount := n
	if stream != nil {
		initialCount = stream.InitialCount
		if initialCount < 0 {
			initialCount = 0
		}
		if initialCount > n {
			initialCount = n
		}
	}

	completedResult := make([]future.Future[any], initialCount)
	for i := 0; i < initialCount; i++ {
		completedResult[i] = e.catchErrorIfNullable(innerType, e.completeValue(innerType, fields, resultValue.Index(i).Interface(), path.WithIntComponent(i), nil, errs), errs)
	}

	if stream != nil && initialCount < n {
		e.streamListTail(innerType, fields, resultValue, initialCount, path, stream)
	}

	return future.MapOk(future.Join(completedResult...), func(l []interface{}) interface{} {
		return l
	})
}

// streamListTail registers the remaining elements of a streamed list, starting at startIndex, with
// the dispatcher, one patch per element, in order, followed by a done marker. Elements whose
// completion has already settled are registered one after another in a loop; when an element's
// completion is still pending, the steps after it are scheduled from inside the callback handling
// it, so that no more than one pending element is outstanding at a time.
func (e *executor) streamListTail(innerType schema.Type, fields []*ast.Field, resultValue reflect.Value, startIndex int, path *path, stream *StreamDirectiveInfo) {
	n := resultValue.Len()
	var step func(index int)
	step = func(index int) {
		for ; index < n; index++ {
			index := index
			elementPath := path.WithIntComponent(index)
			localErrs := make([]*Error, 0)
			f := e.catchErrorIfNullable(innerType, e.completeValue(innerType, fields, resultValue.Index(index).Interface(), elementPath, nil, &localErrs), &localErrs)
			ready := f.IsReady()
			e.Dispatcher.addRaw(future.MapResult(f, func(r future.Result[any]) future.Result[patchOrDone] {
				patchErrs := localErrs
				data := r.Value
				if r.IsErr() {
					patchErrs = append(patchErrs, r.Error.(*Error))
					data = nil
				}
				if !ready {
					step(index + 1)
				}
				return future.Result[patchOrDone]{Value: patchOrDone{result: &IncrementalResult{
					Data:     data,
					HasData:  true,
					Path:     elementPath.Slice(),
					Label:    stream.Label,
					HasLabel: stream.HasLabel,
					Errors:   patchErrs,
				}}}
			}))
			if !ready {
				return
			}
		}
		e.Dispatcher.addDone()
	}
	step(startIndex)
}

// completeAsyncSequence completes a field result that produces its elements one at a time. If
// stream is nil, the sequence is fully drained and returned as an ordinary completed list.
// Otherwise, the first stream.InitialCount elements are awaited inline and the remainder is
// registered with the dispatcher.
func (e *executor) completeAsyncSequence(innerType schema.Type, fields []*ast.Field, seq AsyncSequence, path *path, stream *StreamDirectiveInfo, errs *[]*Error) future.Future[any] {
	if stream == nil {
		return e.drainAsyncSequence(innerType, fields, seq, path, errs)
	}

	initial := make([]future.Future[any], 0, stream.InitialCount)
	index := 0
	for index < stream.InitialCount {
		item, err := e.nextAsyncSequenceItem(seq)
		if err != nil {
			return future.Err[any](err)
		}
		if item.Done {
			break
		}
		elementPath := path.WithIntComponent(index)
		if item.Error != nil {
			*errs = append(*errs, newErrorWithPath(fields[0], elementPath, "%v", item.Error))
			initial = append(initial, future.Ok[any](nil))
		} else {
			initial = append(initial, e.catchErrorIfNullable(innerType, e.completeValue(innerType, fields, item.Value, elementPath, nil, errs), errs))
		}
		index++
	}

	e.streamAsyncSequenceTail(innerType, fields, seq, index, path, stream)

	return future.MapOk(future.Join(initial...), func(l []interface{}) interface{} {
		return l
	})
}

func (e *executor) drainAsyncSequence(innerType schema.Type, fields []*ast.Field, seq AsyncSequence, path *path, errs *[]*Error) future.Future[any] {
	var elements []future.Future[any]
	index := 0
	for {
		item, err := e.nextAsyncSequenceItem(seq)
		if err != nil {
			return future.Err[any](err)
		}
		if item.Done {
			break
		}
		elementPath := path.WithIntComponent(index)
		if item.Error != nil {
			*errs = append(*errs, newErrorWithPath(fields[0], elementPath, "%v", item.Error))
			elements = append(elements, future.Ok[any](nil))
		} else {
			elements = append(elements, e.catchErrorIfNullable(innerType, e.completeValue(innerType, fields, item.Value, elementPath, nil, errs), errs))
		}
		index++
	}
	return future.MapOk(future.Join(elements...), func(l []interface{}) interface{} {
		return l
	})
}

// streamAsyncSequenceTail registers the remainder of a streamed async sequence with the dispatcher,
// pulling one element at a time and rescheduling itself from within the callback handling the
// current element, the same way streamListTail does for ordinary slices. A failing element stops
// iteration, matching the contract that stream iteration errors halt the sequence.
func (e *executor) streamAsyncSequenceTail(innerType schema.Type, fields []*ast.Field, seq AsyncSequence, startIndex int, path *path, stream *StreamDirectiveInfo) {
	var step func(index int)
	step = func(index int) {
		elementPath := path.WithIntComponent(index)
		e.Dispatcher.addRaw(future.MapResult(pollAsyncSequenceItem(seq), func(r future.Result[AsyncSequenceItem]) future.Result[patchOrDone] {
			if r.IsErr() || r.Value.Done {
				return future.Result[patchOrDone]{Value: patchOrDone{done: true}}
			}

			item := r.Value
			localErrs := make([]*Error, 0)
			var data interface{}
			if item.Error != nil {
				localErrs = append(localErrs, newErrorWithPath(fields[0], elementPath, "%v", item.Error))
			} else {
				value, err := wait(e, e.catchErrorIfNullable(innerType, e.completeValue(innerType, fields, item.Value, elementPath, nil, &localErrs), &localErrs))
				if err != nil {
					localErrs = append(localErrs, err.(*Error))
				} else {
					data = value
				}
			}

			if item.Error == nil {
				step(index + 1)
			} else {
				e.Dispatcher.addDone()
			}

			return future.Result[patchOrDone]{Value: patchOrDone{result: &IncrementalResult{
				Data:     data,
				HasData:  true,
				Path:     elementPath.Slice(),
				Label:    stream.Label,
				HasLabel: stream.HasLabel,
				Errors:   localErrs,
			}}}
		}))
	}
	step(startIndex)
}

// nextAsyncSequenceItem blocks, invoking the request's IdleHandler as needed, until the sequence's
// next item (or its exhaustion) is available.
func (e *executor) nextAsyncSequenceItem(seq AsyncSequence) (AsyncSequenceItem, *Error) {
	item, err := wait(e, pollAsyncSequenceItem(seq))
	if err != nil {
		return AsyncSequenceItem{}, err.(*Error)
	}
	return item, nil
}

func mergeSelectionSets(fields []*ast.Field) []ast.Selection {
	var selectionSet []ast.Selection
	for _, field := range fields {
		if field.SelectionSet == nil {
			continue
		}
		selectionSet = append(selectionSet, field.SelectionSet.Selections...)
	}
	return selectionSet
}

// deferredGroup is a set of fields collected from behind a @defer(if: true) fragment. It is
// executed independently of its enclosing selection set and registered with the dispatcher rather
// than being folded into the immediate result.
type deferredGroup struct {
	Label         string
	HasLabel      bool
	GroupedFields *GroupedFieldSet
}

type collectFieldsResult struct {
	GroupedFields *GroupedFieldSet
	Deferred      []deferredGroup
}

func (e *executor) collectFields(objectType *schema.ObjectType, selections []ast.Selection, suppressDefer bool) (*collectFieldsResult, *Error) {
	// collectFields can be called many times with the same inputs throughout a query's execution,
	// so we memoize the return value. suppressDefer only ever differs across calls for the root
	// selection set of a mutation, which is never revisited, so it is left out of the cache key.

	cacheKeyBytes := make([]byte, len(objectType.Name)+16*len(selections))
	copy(cacheKeyBytes, objectType.Name)
	for i, sel := range selections {
		pos := sel.Position()
		binary.LittleEndian.PutUint64(cacheKeyBytes[len(objectType.Name)+i*16:], uint64(pos.Line))
		binary.LittleEndian.PutUint64(cacheKeyBytes[len(objectType.Name)+i*16+8:], uint64(pos.Column))
	}
	cacheKey := string(cacheKeyBytes)

	if hit, ok := e.GroupedFieldSetCache[cacheKey]; ok {
		return hit, nil
	}

	groupedFieldSet := NewGroupedFieldSetWithCapacity(len(selections))
	var deferred []deferredGroup
	if err := e.collectFieldsImpl(objectType, selections, nil, groupedFieldSet, suppressDefer, false, &deferred); err != nil {
		return nil, err
	}
	result := &collectFieldsResult{GroupedFields: groupedFieldSet, Deferred: deferred}
	e.GroupedFieldSetCache[cacheKey] = result
	return result, nil
}

// incrementalDirectiveInfo inspects a selection's own directives for @defer or @stream, returning
// whether the directive applies (its "if" argument, defaulting to true, was satisfied) along with
// its coerced label and, for @stream, initial count.
func (e *executor) incrementalDirectiveInfo(directives []*ast.Directive, kind schema.IncrementalDeliveryKind) (applies bool, label string, hasLabel bool, initialCount int) {
	for _, directive := range directives {
		def := e.Schema.Directives()[directive.Name.Name]
		if def == nil || def.IncrementalDeliveryKind != kind {
			continue
		}
		arguments, err := coerceArgumentValues(directive, def.Arguments, directive.Arguments, e.VariableValues)
		if err != nil {
			continue
		}
		ifValue := true
		if v, ok := arguments["if"].(bool); ok {
			ifValue = v
		}
		if !ifValue {
			continue
		}
		applies = true
		if v, ok := arguments["label"].(string); ok {
			label, hasLabel = v, true
		}
		if v, ok := arguments["initialCount"].(int); ok {
			initialCount = v
		}
		return
	}
	return false, "", false, 0
}

func (e *executor) collectFieldsImpl(objectType *schema.ObjectType, selections []ast.Selection, visitedFragments map[string]struct{}, groupedFields *GroupedFieldSet, suppressDefer bool, inDeferredContext bool, deferred *[]deferredGroup) *Error {
	if visitedFragments == nil {
		visitedFragments = map[string]struct{}{}
	}
	for _, selection := range selections {
		skip := false
		for _, directive := range selection.SelectionDirectives() {
			if def := e.Schema.Directives()[directive.Name.Name]; def != nil && def.FieldCollectionFilter != nil {
				if arguments, err := coerceArgumentValues(directive, def.Arguments, directive.Arguments, e.VariableValues); err == nil && !def.FieldCollectionFilter(arguments) {
					skip = true
				}
			}
		}
		if skip {
			continue
		}

		switch selection := selection.(type) {
		case *ast.Field:
			responseKey := selection.Name.Name
			if selection.Alias != nil {
				responseKey = selection.Alias.Name
			}

			var stream *StreamDirectiveInfo
			if !suppressDefer {
				if applies, label, hasLabel, initialCount := e.incrementalDirectiveInfo(selection.Directives, schema.StreamIncrementalDelivery); applies {
					stream = &StreamDirectiveInfo{Label: label, HasLabel: hasLabel, InitialCount: initialCount}
				}
			}

			// The defer label itself is carried on the deferredGroup this field's GroupedFieldSet
			// ends up in, not per field; here we only need to know whether this selection was
			// reached through a deferred fragment at all.
			if err := groupedFields.Append(responseKey, selection, inDeferredContext, "", false, stream); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			fragmentSpreadName := selection.FragmentName.Name
			if _, ok := visitedFragments[fragmentSpreadName]; ok {
				continue
			}
			visitedFragments[fragmentSpreadName] = struct{}{}

			fragment := e.FragmentDefinitions[fragmentSpreadName]
			if fragment == nil {
				continue
			}

			fragmentType := schemaType(fragment.TypeCondition, e.Schema)
			if fragmentType == nil || !doesFragmentTypeApply(objectType, fragmentType) {
				continue
			}

			if err := e.collectMaybeDeferredFragment(objectType, selection.Directives, fragment.SelectionSet.Selections, suppressDefer, inDeferredContext, groupedFields, deferred); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if selection.TypeCondition != nil {
				fragmentType := schemaType(selection.TypeCondition, e.Schema)
				if fragmentType == nil || !doesFragmentTypeApply(objectType, fragmentType) {
					continue
				}
			}

			if err := e.collectMaybeDeferredFragment(objectType, selection.Directives, selection.SelectionSet.Selections, suppressDefer, inDeferredContext, groupedFields, deferred); err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("unexpected selection type: %T", selection))
		}
	}
	return nil
}

// collectMaybeDeferredFragment collects the selections of a fragment spread or inline fragment. If
// the fragment carries @defer(if: true), is not already nested inside another deferred fragment,
// and defer handling isn't suppressed (the root selection set of a mutation), its fields are
// collected into their own GroupedFieldSet and registered in deferred instead of being folded into
// groupedFields.
func (e *executor) collectMaybeDeferredFragment(objectType *schema.ObjectType, directives []*ast.Directive, selections []ast.Selection, suppressDefer bool, inDeferredContext bool, groupedFields *GroupedFieldSet, deferred *[]deferredGroup) *Error {
	if !suppressDefer && !inDeferredContext {
		if applies, label, hasLabel, _ := e.incrementalDirectiveInfo(directives, schema.DeferIncrementalDelivery); applies {
			deferredFieldSet := NewGroupedFieldSetWithCapacity(len(selections))
			if err := e.collectFieldsImpl(objectType, selections, nil, deferredFieldSet, suppressDefer, true, deferred); err != nil {
				return err
			}
			*deferred = append(*deferred, deferredGroup{Label: label, HasLabel: hasLabel, GroupedFields: deferredFieldSet})
			return nil
		}
	}

	return e.collectFieldsImpl(objectType, selections, nil, groupedFields, suppressDefer, inDeferredContext, deferred)
}

func doesFragmentTypeApply(objectType *schema.ObjectType, fragmentType schema.Type) bool {
	switch fragmentType := fragmentType.(type) {
	case *schema.ObjectType:
		return objectType.IsSameType(fragmentType)
	case *schema.InterfaceType:
		for _, impl := range objectType.ImplementedInterfaces {
			if impl.IsSameType(fragmentType) {
				return true
			}
		}
		return false
	case *schema.UnionType:
		for _, member := range fragmentType.MemberTypes {
			if member.IsSameType(objectType) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("unexpected fragment type: %T", fragmentType))
}

// GetOperation returns the operation selected by the given name. If operationName is "" and the
// document contains only one operation, it is returned. Otherwise the document must contain exactly
// one operation with the given name.
func GetOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, *Error) {
	var ret *ast.OperationDefinition
	for _, def := range doc.Definitions {
		if def, ok := def.(*ast.OperationDefinition); ok {
			if operationName == "" || (def.Name != nil && def.Name.Name == operationName) {
				if ret != nil {
					return nil, newError(def, "Multiple matching operations.")
				}
				ret = def
			}
		}
	}
	if ret == nil {
		return nil, newError(nil, "No matching operations.")
	}
	return ret, nil
}

func namedType(s *schema.Schema, name string) schema.NamedType {
	if ret := s.NamedTypes()[name]; ret != nil {
		return ret
	}
	return introspection.NamedTypes[name]
}

func schemaType(t ast.Type, s *schema.Schema) schema.Type {
	switch t := t.(type) {
	case *ast.ListType:
		if inner := schemaType(t.Type, s); inner != nil {
			return schema.NewListType(inner)
		}
	case *ast.NonNullType:
		if inner := schemaType(t.Type, s); inner != nil {
			return schema.NewNonNullType(inner)
		}
	case *ast.NamedType:
		return namedType(s, t.Name.Name)
	default:
		panic(fmt.Sprintf("unexpected ast type: %T", t))
	}
	return nil
}

func coerceVariableValues(s *schema.Schema, operation *ast.OperationDefinition, variableValues map[string]interface{}) (map[string]interface{}, *Error) {
	ret, err := validator.CoerceVariableValues(s, operation, variableValues)
	return ret, newErrorWithValidatorError(err)
}

func coerceArgumentValues(node ast.Node, argumentDefinitions map[string]*schema.InputValueDefinition, arguments []*ast.Argument, variableValues map[string]interface{}) (map[string]interface{}, *Error) {
	ret, err := validator.CoerceArgumentValues(node, argumentDefinitions, arguments, variableValues)
	return ret, newErrorWithValidatorError(err)
}
