package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.SessionsLive.Set(3)
	m.MessagesTotal.Add(5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "lobby_sessions_live 3") {
		t.Errorf("metrics output missing lobby_sessions_live: %s", body)
	}
	if !strings.Contains(body, "lobby_messages_total 5") {
		t.Errorf("metrics output missing lobby_messages_total: %s", body)
	}
}
