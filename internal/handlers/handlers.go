package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jenyyy4/gigflow/internal/notify"
)

// Handler оборачивает Storage и Publisher уведомлений
type Handler struct {
	Store  StorageInterface
	Events notify.Publisher
	Hub    *notify.Hub // для SSE-потока, в тестах может быть пустым
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, events notify.Publisher) *Handler {
	return &Handler{Store: store, Events: events}
}

// HealthHandler отвечает для проверки сервера
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "GigFlow API is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// fail отвечает конвертом {success:false, message}
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// publish рассылает события после успешной записи; доставка best-effort
func (h *Handler) publish(events []notify.Event) {
	if h.Events == nil {
		return
	}
	for _, e := range events {
		h.Events.Publish(e)
	}
}
