package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientUpsert(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"upsertedCount":2}`))
	}))
	defer srv.Close()

	client := NewClient(Config{IndexHost: srv.URL, APIKey: "secret", Namespace: "docs"})
	err := client.Upsert(context.Background(), []Entry{
		{ID: "f1:0", Vector: []float32{1, 2}, Metadata: map[string]interface{}{"chunk_index": 0}},
		{ID: "f1:1", Vector: []float32{3, 4}, Metadata: map[string]interface{}{"chunk_index": 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "docs", gotBody["namespace"])
	vectors := gotBody["vectors"].([]interface{})
	require.Len(t, vectors, 2)
	first := vectors[0].(map[string]interface{})
	assert.Equal(t, "f1:0", first["id"])
}

func TestClientUpsertEmptyIsNoop(t *testing.T) {
	client := NewClient(Config{IndexHost: "http://unused"})
	assert.NoError(t, client.Upsert(context.Background(), nil))
}

func TestClientQuery(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"matches":[
			{"id":"f1:0","score":0.92,"metadata":{"chunk_id":11,"db_file_id":1}},
			{"id":"f1:3","score":0.87,"metadata":{"chunk_id":14,"db_file_id":1}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{IndexHost: srv.URL, Namespace: "docs"})
	filter := map[string]interface{}{"user_id": map[string]interface{}{"$eq": 7}}
	matches, err := client.Query(context.Background(), []float32{0.5, 0.5}, 5, filter)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "f1:0", matches[0].ID)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)

	assert.Equal(t, true, gotBody["includeMetadata"])
	assert.Equal(t, float64(5), gotBody["topK"])
	assert.NotNil(t, gotBody["filter"])
}

func TestClientDeleteByFileID(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{IndexHost: srv.URL, Namespace: "docs"})
	require.NoError(t, client.DeleteByFileID(context.Background(), 42))

	filter := gotBody["filter"].(map[string]interface{})
	eq := filter["db_file_id"].(map[string]interface{})
	assert.Equal(t, float64(42), eq["$eq"])
}

func TestClientQueryUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"index unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{IndexHost: srv.URL})
	_, err := client.Query(context.Background(), []float32{1}, 3, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
