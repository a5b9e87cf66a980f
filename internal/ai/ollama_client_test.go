package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestOllamaGenerateMapsOptions(t *testing.T) {
	var got ollamaChatRequest
	srv := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "Company  Year\nAcme  2022"},
			"prompt_eval_count": 12,
			"eval_count":        8,
			"done":              true,
		})
	})

	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	resp, err := c.Generate(context.Background(), UserPrompt("llama3.1:8b-instruct", "Generate ESG data", 256, 0.1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text, _ := Text(resp); !strings.HasPrefix(text, "Company") {
		t.Fatalf("text = %q", text)
	}
	if resp.Usage.TotalTokens != 20 || !strings.HasPrefix(resp.RequestID, "ollama_") {
		t.Fatalf("unexpected usage/request id: %+v", resp)
	}
	if got.Stream || got.Model != "llama3.1:8b-instruct" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Options["num_predict"] != float64(256) || got.Options["temperature"] != 0.1 {
		t.Fatalf("unexpected options: %v", got.Options)
	}
}

func TestOllamaErrorsAreTyped(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusNotFound, func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"error": "model \"nope\" not found, try pulling it first"})
			})
			c := NewOllamaClient(srv.URL, 2*time.Second, 1, time.Millisecond, time.Millisecond)
			_, err := c.Generate(context.Background(), UserPrompt("nope", "hi", 0, 0))
			if !tt.check(err) {
				t.Fatalf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestOllamaUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	host := "http://" + ln.Addr().String()
	_ = ln.Close()

	c := NewOllamaClient(host, time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), UserPrompt("llama3.1", "hi", 0, 0))
	var unr *UnreachableError
	if !errors.As(err, &unr) || unr.Host != host {
		t.Fatalf("expected UnreachableError for %s, got %v", host, err)
	}
	if !IsCollaboratorError(err) {
		t.Fatal("unreachable runtime should count as a collaborator error")
	}
}

func TestOllamaRejectsIncompleteRequests(t *testing.T) {
	c := NewOllamaClient("", time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.1"}); err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected empty messages error, got %v", err)
	}
	err := c.GenerateStream(context.Background(), GenerateRequest{Messages: []Message{{Role: "user", Content: "hi"}}}, func(string) {})
	if err == nil || err.Error() != "model cannot be empty" {
		t.Fatalf("expected empty model error, got %v", err)
	}
}

func TestOllamaStreamNDJSON(t *testing.T) {
	srv := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			http.Error(w, "expected stream", http.StatusBadRequest)
			return
		}
		for _, chunk := range []string{"Company  Year\\n", "", "Acme  2022"} {
			fmt.Fprintf(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"%s\"},\"done\":false}\n", chunk)
		}
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true}\n")
	})
	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	var chunks []string
	err := c.GenerateStream(context.Background(), UserPrompt("llama3.1", "hi", 0, 0), func(d string) { chunks = append(chunks, d) })
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if strings.Join(chunks, "") != "Company  Year\nAcme  2022" || len(chunks) != 2 {
		t.Fatalf("chunks = %q", chunks)
	}
}
