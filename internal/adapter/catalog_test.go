package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3.1:8b","digest":"42182419e9508c30c4b1fe55015f06b65f4ca4b9e28a744be55008d21998a093","size":4920753328,"modified_at":"2025-01-02T03:04:05Z"},{"name":"tiny","digest":"abc","size":900}]}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(OllamaOptions{Host: server.URL, Client: server.Client()})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Name != "llama3.1:8b" || models[0].ID != "42182419e950" || models[0].Size != 4920753328 {
		t.Fatalf("unexpected first model: %+v", models[0])
	}
	if models[1].ID != "abc" {
		t.Fatalf("expected short digest kept, got %q", models[1].ID)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestClientPingOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewClient(OllamaOptions{Host: server.URL, Client: server.Client()})
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
	if _, err := NewClient(OllamaOptions{Client: failingDoer{}}).ListModels(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		512:        "512 B",
		1500:       "1.5 KB",
		4920753328: "4.9 GB",
	}
	for size, want := range cases {
		if got := FormatSize(size); got != want {
			t.Fatalf("FormatSize(%d) = %q, want %q", size, got, want)
		}
	}
}
