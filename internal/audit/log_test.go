package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"esp.org/internal/obs"
	"esp.org/internal/session"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	flags := logger.Flags()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() {
		logger.SetOutput(original)
		logger.SetFlags(flags)
	})
	return &buf
}

func TestLogEvent(t *testing.T) {
	buf := captureLog(t)

	sess := session.New("tok", session.User{ID: "42", Role: session.RoleChef})
	ctx := WithRequestID(context.Background(), "req-123")
	ctx = session.ContextWithSession(ctx, sess)

	if err := LogEvent(ctx, EventApprove, map[string]any{"id": 7}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "besoin.approve" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "42" || entry["role"] != "chef" || entry["session_id"] != sess.ID {
		t.Fatalf("session fields missing: %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["id"] != float64(7) {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventWithoutSession(t *testing.T) {
	buf := captureLog(t)

	if err := LogEvent(context.Background(), EventLogout, nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if _, ok := entry["user_id"]; ok {
		t.Fatalf("unexpected user id: %v", entry)
	}
	if _, ok := entry["fields"].(map[string]any); !ok {
		t.Fatalf("fields should be an empty object: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event")
	}
}

func TestRecordWarnsOnFailure(t *testing.T) {
	buf := captureLog(t)

	Record(context.Background(), EventHandoff, map[string]any{"bad": make(chan int)})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "audit_failed" {
		t.Fatalf("expected audit_failed warning, got %v", entry)
	}
	if entry["event"] != EventHandoff {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if msg, _ := entry["error"].(string); msg == "" {
		t.Fatalf("error not reported: %v", entry)
	}
}

func TestRecordWritesEvent(t *testing.T) {
	buf := captureLog(t)

	Record(context.Background(), EventHandoff, map[string]any{"role": "chef"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != EventHandoff {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
