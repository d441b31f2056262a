package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("order-service", &buf)

	log.Error("order_failed", "could not save order", "req-1", errors.New("boom"), map[string]interface{}{
		"order_id": "BC202601010001",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}

	checks := map[string]string{
		"service":    "order-service",
		"action":     "order_failed",
		"request_id": "req-1",
		"msg":        "could not save order",
		"level":      "ERROR",
	}
	for key, want := range checks {
		if got, _ := entry[key].(string); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	errGroup, ok := entry["error"].(map[string]interface{})
	if !ok || errGroup["msg"] != "boom" {
		t.Errorf("error group = %v, want msg boom", entry["error"])
	}
	details, ok := entry["details"].(map[string]interface{})
	if !ok || details["order_id"] != "BC202601010001" {
		t.Errorf("details = %v", entry["details"])
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == "" || a == b {
		t.Fatalf("request ids not unique: %q %q", a, b)
	}
}
