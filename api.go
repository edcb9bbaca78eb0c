package apifu

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lilianammmatos/incremental-graphql/graphql"
	"github.com/lilianammmatos/incremental-graphql/graphql/executor"
)

type API struct {
	schema *graphql.Schema
	config *Config
	logger logrus.FieldLogger
}

func NewAPI(cfg *Config) (*API, error) {
	schema, err := cfg.graphqlSchema()
	if err != nil {
		return nil, errors.Wrap(err, "error building graphql schema")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{
		config: cfg,
		schema: schema,
		logger: logger,
	}, nil
}

type apiContextKeyType int

var apiContextKey apiContextKeyType

func ctxAPI(ctx context.Context) *API {
	return ctx.Value(apiContextKey).(*API)
}

type asyncResolution struct {
	Result executor.ResolveResult
	Dest   executor.ResolvePromise
}

type apiRequest struct {
	asyncResolutions chan asyncResolution
}

// IdleHandler is invoked by the executor whenever there is no more synchronous work
// left to do but async resolvers (see Async) are still outstanding. It blocks for at least one
// resolution, then drains any others that have also become ready, handing every one of them back
// to the resolver field that's waiting on it.
func (r *apiRequest) IdleHandler() {
	resolution := <-r.asyncResolutions
	resolution.Dest <- resolution.Result
	for {
		select {
		case resolution := <-r.asyncResolutions:
			resolution.Dest <- resolution.Result
		default:
			return
		}
	}
}

type apiRequestContextKeyType int

var apiRequestContextKey apiRequestContextKeyType

func ctxAPIRequest(ctx context.Context) *apiRequest {
	return ctx.Value(apiRequestContextKey).(*apiRequest)
}

// Async causes the given resolver to be executed within a new goroutine. It will be executed
// concurrently with other asynchronous resolvers if possible, with the executor waiting for
// completion via the request's IdleHandler.
func Async(resolve func(ctx graphql.FieldContext) (interface{}, error)) func(ctx graphql.FieldContext) (interface{}, error) {
	return func(ctx graphql.FieldContext) (interface{}, error) {
		apiRequest := ctxAPIRequest(ctx.Context)
		if apiRequest.asyncResolutions == nil {
			apiRequest.asyncResolutions = make(chan asyncResolution)
		}
		ch := make(executor.ResolvePromise, 1)
		go func() {
			v, err := resolve(ctx)
			apiRequest.asyncResolutions <- asyncResolution{
				Result: executor.ResolveResult{
					Value: v,
					Error: err,
				},
				Dest: ch,
			}
		}()
		return ch, nil
	}
}

// execute runs a validated request, deferring to config.Execute if given.
func (api *API) execute(req *graphql.Request) (*graphql.Response, *graphql.IncrementalSequence) {
	if api.config.Execute != nil {
		return api.config.Execute(req)
	}
	return graphql.ExecuteIncremental(req)
}

func (api *API) writeChunk(w http.ResponseWriter, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		api.logger.WithError(err).Error("error marshaling graphql response chunk")
		return
	}
	w.Write(body)
	w.Write([]byte("\n"))
}

// ServeGraphQL executes a GraphQL request received over HTTP. If the request's document uses
// @defer or @stream, the initial response is followed by a stream of newline-delimited JSON
// patches, one per line, with the final patch's "hasNext" set to false.
func (api *API) ServeGraphQL(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), apiContextKey, api)
	apiRequest := &apiRequest{}
	ctx = context.WithValue(ctx, apiRequestContextKey, apiRequest)
	r = r.WithContext(ctx)

	req, code, err := graphql.NewRequestFromHTTP(r)
	if err != nil {
		http.Error(w, err.Error(), code)
		return
	}
	req.Schema = api.schema
	req.IdleHandler = apiRequest.IdleHandler
	if api.config.Features != nil {
		req.Features = api.config.Features(ctx)
	}

	defer func() {
		if p := recover(); p != nil {
			api.logger.WithField("panic", p).Error("recovered from panic while executing graphql request")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}()

	resp, seq := api.execute(req)

	if seq == nil {
		body, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	api.writeChunk(w, resp)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		patch := seq.Next()
		api.writeChunk(w, patch)
		if flusher != nil {
			flusher.Flush()
		}
		if !patch.HasNext {
			return
		}
	}
}
