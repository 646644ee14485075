// Package audit records who changed which request, one JSON line per event.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"esp.org/internal/obs"
	"esp.org/internal/session"
)

// Event names.
const (
	EventCreate  = "besoin.create"
	EventUpdate  = "besoin.update"
	EventDelete  = "besoin.delete"
	EventApprove = "besoin.approve"
	EventReject  = "besoin.reject"
	EventHandoff = "session.handoff"
	EventLogout  = "session.logout"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with the request id and the
// session user found in ctx.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if sess, ok := session.FromContext(ctx); ok {
		entry["session_id"] = sess.ID
		entry["role"] = string(sess.Role())
		if sess.User.ID != "" {
			entry["user_id"] = sess.User.ID
		}
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	entry["fields"] = copyFields

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// Record is LogEvent for callers that cannot act on the error: a failed
// write is reported as an audit_failed warning instead.
func Record(ctx context.Context, event string, fields map[string]any) {
	if err := LogEvent(ctx, event, fields); err != nil {
		obs.Log(obs.LevelWarn, "audit_failed", map[string]any{"event": event, "error": err})
	}
}
