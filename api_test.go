package apifu

import (
	"bufio"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilianammmatos/incremental-graphql/graphql"
)

func executeGraphQL(t *testing.T, api *API, query string) *http.Response {
	w := httptest.NewRecorder()
	r, err := http.NewRequest("POST", "", strings.NewReader(query))
	r.Header.Set("Content-Type", "application/graphql")
	require.NoError(t, err)
	api.ServeGraphQL(w, r)
	return w.Result()
}

func TestServeGraphQL(t *testing.T) {
	var testCfg Config

	testCfg.AddQueryField("greeting", &graphql.FieldDefinition{
		Type: graphql.StringType,
		Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
			return "hello", nil
		},
	})

	api, err := NewAPI(&testCfg)
	require.NoError(t, err)

	resp := executeGraphQL(t, api, `{greeting}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"greeting":"hello"}}`, string(body))
}

func TestServeGraphQLAsyncField(t *testing.T) {
	var testCfg Config

	testCfg.AddQueryField("asyncGreeting", &graphql.FieldDefinition{
		Type: graphql.StringType,
		Resolve: Async(func(ctx graphql.FieldContext) (interface{}, error) {
			return "hello async", nil
		}),
	})

	api, err := NewAPI(&testCfg)
	require.NoError(t, err)

	resp := executeGraphQL(t, api, `{asyncGreeting}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"asyncGreeting":"hello async"}}`, string(body))
}

func TestServeGraphQLIncrementalStream(t *testing.T) {
	var testCfg Config
	testCfg.Features = func(ctx context.Context) graphql.FeatureSet {
		return graphql.NewFeatureSet(graphql.DeferFeature)
	}

	testCfg.AddQueryField("fast", &graphql.FieldDefinition{
		Type: graphql.StringType,
		Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
			return "fast", nil
		},
	})
	testCfg.AddQueryField("slow", &graphql.FieldDefinition{
		Type: graphql.StringType,
		Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
			return "slow", nil
		},
	})

	api, err := NewAPI(&testCfg)
	require.NoError(t, err)

	resp := executeGraphQL(t, api, `{
		fast
		... @defer {
			slow
		}
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	require.NotEmpty(t, lines)

	var initial struct {
		Data struct {
			Fast string `json:"fast"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initial))
	assert.Equal(t, "fast", initial.Data.Fast)

	var last struct {
		HasNext bool `json:"hasNext"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.False(t, last.HasNext)
}
