package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/jenyyy4/gigflow/db"
	"github.com/jenyyy4/gigflow/internal/notify"
)

// GetGigsHandler возвращает список заказов с фильтрами search и status
func (h *Handler) GetGigsHandler(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	// "" и "all" означают без фильтра, неизвестное значение трактуем как open
	status := r.URL.Query().Get("status")
	switch status {
	case "open", "assigned":
	case "", "all":
		status = ""
	default:
		status = "open"
	}

	gigs, err := h.Store.GetGigs(r.Context(), search, status)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get gigs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(gigs),
		"gigs":    gigs,
	})
}

// GetGigHandler возвращает один заказ по id
func (h *Handler) GetGigHandler(w http.ResponseWriter, r *http.Request) {
	gigID, err := strconv.Atoi(chi.URLParam(r, "gigId"))
	if err != nil || gigID <= 0 {
		fail(w, http.StatusBadRequest, "Invalid gigId")
		return
	}

	gig, err := h.Store.GetGigDetails(r.Context(), gigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Gig not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"gig":     gig,
	})
}

// GetMyGigsHandler возвращает заказы текущего пользователя
func (h *Handler) GetMyGigsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	gigs, err := h.Store.GetUserGigs(r.Context(), user.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get user gigs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(gigs),
		"gigs":    gigs,
	})
}

// CreateGigHandler обрабатывает POST /api/gigs запрос
func (h *Handler) CreateGigHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var gig db.Gig
	if err := json.Unmarshal(body, &gig); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := validateGigRequest(&gig); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	// Статус всегда open при создании, владелец — автор запроса
	gig.OwnerID = user.ID

	if err := h.Store.CreateGig(r.Context(), &gig); err != nil {
		fail(w, http.StatusInternalServerError, "Failed to create gig")
		return
	}

	created, err := h.Store.GetGigDetails(r.Context(), gig.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	h.publish(notify.GigPosted(created))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"gig":     created,
	})
}

// validateGigRequest проверяет обязательность и границы полей заказа.
// Лимиты считаем в символах, не в байтах
func validateGigRequest(g *db.Gig) error {
	if strings.TrimSpace(g.Title) == "" || utf8.RuneCountInString(g.Title) > 100 {
		return errors.New("title is required and max length 100")
	}
	if g.Description == "" || utf8.RuneCountInString(g.Description) > 2000 {
		return errors.New("description is required and max length 2000")
	}
	if g.Budget < 1 {
		return errors.New("budget must be at least 1")
	}
	return nil
}

// UpdateGigHandler редактирует заказ; только владелец и только пока open
func (h *Handler) UpdateGigHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	gigID, err := strconv.Atoi(chi.URLParam(r, "gigId"))
	if err != nil || gigID <= 0 {
		fail(w, http.StatusBadRequest, "Invalid gigId")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Budget      *int    `json:"budget"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	gig, err := h.Store.GetGig(r.Context(), gigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Gig not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	if gig.OwnerID != user.ID {
		fail(w, http.StatusForbidden, "Not authorized to update this gig")
		return
	}
	if gig.Status != "open" {
		fail(w, http.StatusBadRequest, "Cannot update an assigned gig")
		return
	}

	if input.Title != nil {
		gig.Title = *input.Title
	}
	if input.Description != nil {
		gig.Description = *input.Description
	}
	if input.Budget != nil {
		gig.Budget = *input.Budget
	}
	if err := validateGigRequest(gig); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.UpdateGig(r.Context(), gig); err != nil {
		fail(w, http.StatusInternalServerError, "Failed to update gig")
		return
	}

	updated, err := h.Store.GetGigDetails(r.Context(), gig.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"gig":     updated,
	})
}

// DeleteGigHandler удаляет заказ владельца вместе с предложениями
func (h *Handler) DeleteGigHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	gigID, err := strconv.Atoi(chi.URLParam(r, "gigId"))
	if err != nil || gigID <= 0 {
		fail(w, http.StatusBadRequest, "Invalid gigId")
		return
	}

	gig, err := h.Store.GetGig(r.Context(), gigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Gig not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	if gig.OwnerID != user.ID {
		fail(w, http.StatusForbidden, "Not authorized to delete this gig")
		return
	}

	if err := h.Store.DeleteGig(r.Context(), gig.ID); err != nil {
		fail(w, http.StatusInternalServerError, "Failed to delete gig")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Gig deleted successfully",
	})
}
