package comfy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/akimenko/graphflow/internal/domain"
)

func TestClient_SubmitPrompt(t *testing.T) {
	var got struct {
		Prompt   domain.PromptGraph `json:"prompt"`
		ClientID string             `json:"client_id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/prompt" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"prompt_id": "p-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	prompt := domain.PromptGraph{
		"1": {ClassType: "Loader", Inputs: map[string]any{"path": "a.png"}},
	}

	id, err := c.SubmitPrompt(context.Background(), prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "p-123" {
		t.Errorf("expected prompt id p-123, got %s", id)
	}
	if got.ClientID == "" {
		t.Error("client_id must be sent")
	}
	if got.Prompt["1"] == nil || got.Prompt["1"].ClassType != "Loader" {
		t.Errorf("prompt not transmitted: %+v", got.Prompt)
	}
}

func TestClient_SubmitPromptRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.SubmitPrompt(context.Background(), domain.PromptGraph{})
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("expected ErrSubmitFailed, got %v", err)
	}
}

func TestClient_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/p-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"p-123": map[string]any{
				"outputs": map[string]any{
					"9": map[string]any{
						"images": []map[string]any{
							{"filename": "out.png", "subfolder": "", "type": "output"},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	outputs, err := c.History(context.Background(), "p-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodeOut, ok := outputs["9"]
	if !ok {
		t.Fatal("expected outputs for node 9")
	}
	file, ok := nodeOut.FirstFile()
	if !ok || file.Filename != "out.png" {
		t.Errorf("unexpected file: %+v", file)
	}
}

func TestClient_HistoryMissingPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.History(context.Background(), "ghost")
	if !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("expected ErrHistoryNotFound, got %v", err)
	}
}

func TestClient_WebSocketURL(t *testing.T) {
	c := NewClient("http://backend:8188", nil)
	want := "ws://backend:8188/ws?clientId=" + defaultClientID
	if got := c.WebSocketURL(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDetectOutputNodes(t *testing.T) {
	prompt := domain.PromptGraph{
		"1": {ClassType: "Loader", Inputs: map[string]any{"path": "a.png"}},
		"2": {ClassType: "SaveImage", Inputs: map[string]any{"filename_prefix": "out"}},
		"3": {ClassType: "PreviewImage", Inputs: map[string]any{
			"filename_prefix": "tmp",
			"save_output":     false,
		}},
		"4": {ClassType: "SaveVideo", Inputs: map[string]any{
			"filename_prefix": "vid",
			"save_output":     true,
		}},
	}

	got := DetectOutputNodes(prompt)
	sort.Strings(got)

	want := []string{"2", "4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNodeOutput_FirstFilePrefersVideo(t *testing.T) {
	out := NodeOutput{
		Images: []FileInfo{{Filename: "img.png"}},
		Gifs:   []FileInfo{{Filename: "vid.mp4"}},
	}
	file, ok := out.FirstFile()
	if !ok || file.Filename != "vid.mp4" {
		t.Errorf("video output must win, got %+v", file)
	}

	empty := NodeOutput{}
	if _, ok := empty.FirstFile(); ok {
		t.Error("empty output must report no file")
	}
}
