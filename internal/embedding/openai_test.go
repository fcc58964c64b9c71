package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, dims int, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		var req openAIEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data  []item `json:"data"`
			Model string `json:"model"`
		}{Model: req.Model}
		// Answer in reverse order to exercise index mapping.
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dims)
			vec[0] = float32(i)
			resp.Data = append(resp.Data, item{Embedding: vec, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_EmbedBatch(t *testing.T) {
	srv := embeddingServer(t, 4, http.StatusOK)
	c, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "test-key", Dimensions: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v[0] != float32(i) {
			t.Errorf("embedding %d out of place: %v", i, v)
		}
	}
	if c.Model() != DefaultModel {
		t.Errorf("default model: got %s", c.Model())
	}
}

func TestOpenAIClient_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, 3, http.StatusOK)
	c, _ := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key", Dimensions: 4})
	if _, err := c.Embed(context.Background(), "a"); err == nil {
		t.Error("expected dimension error")
	}
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := embeddingServer(t, 4, http.StatusTooManyRequests)
	c, _ := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key", Dimensions: 4})
	_, err := c.Embed(context.Background(), "a")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected APIError 429, got %v", err)
	}
	if !IsTransient(err) {
		t.Error("429 should be transient")
	}
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIConfig{}); err == nil {
		t.Error("expected error without api key")
	}
}
