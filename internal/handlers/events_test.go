package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jenyyy4/gigflow/db"
	"github.com/jenyyy4/gigflow/internal/handlers"
	"github.com/jenyyy4/gigflow/internal/notify"
)

func TestEventsHandlerStreams(t *testing.T) {
	hub := notify.NewHub()
	handler := handlers.NewHandler(&MockStorage{}, hub)
	handler.Hub = hub

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req = authRequest(req, &db.User{ID: 1})
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.EventsHandler(w, req)
	}()

	// ждём регистрации подписчика, затем публикуем и закрываем запрос
	time.Sleep(50 * time.Millisecond)
	hub.Publish(notify.Event{Recipient: 1, Kind: notify.KindHired, Payload: map[string]string{"message": "hi"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(body, ": connected"))
	require.Contains(t, body, "event: hired")
	require.Contains(t, body, `"message":"hi"`)
}

func TestEventsHandlerWithoutHub(t *testing.T) {
	handler := handlers.NewHandler(&MockStorage{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = authRequest(req, &db.User{ID: 1})
	w := httptest.NewRecorder()

	handler.EventsHandler(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
