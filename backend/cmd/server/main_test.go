package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"ok", http.StatusOK},
		{"closed", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeJSONStatus(rec, tt.code, map[string]string{"status": tt.name})

			res := rec.Result()
			if res.StatusCode != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, res.StatusCode)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatalf("Invalid body: %v", err)
			}
			if body["status"] != tt.name {
				t.Errorf("Unexpected body %v", body)
			}
		})
	}
}
