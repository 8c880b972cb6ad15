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

// CreateBidHandler обрабатывает POST /api/bids запрос.
// Порядок проверок фиксированный: заказ существует, заказ открыт,
// не свой заказ, валидация полей, нет повторного предложения.
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		GigID   int    `json:"gigId"`
		Message string `json:"message"`
		Price   int    `json:"price"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	gig, err := h.Store.GetGig(r.Context(), input.GigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Gig not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	if gig.Status != "open" {
		fail(w, http.StatusBadRequest, "This gig is no longer accepting bids")
		return
	}
	if gig.OwnerID == user.ID {
		fail(w, http.StatusBadRequest, "You cannot bid on your own gig")
		return
	}

	if err := validateBidRequest(input.Message, input.Price); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	// Предварительная проверка даёт понятную ошибку без записи, но гонку
	// двух одновременных запросов закрывает только уникальный индекс
	exists, err := h.Store.HasBid(r.Context(), gig.ID, user.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to create bid")
		return
	}
	if exists {
		fail(w, http.StatusConflict, "You have already submitted a bid for this gig")
		return
	}

	bid := &db.Bid{
		GigID:        gig.ID,
		FreelancerID: user.ID,
		Message:      input.Message,
		Price:        input.Price,
	}
	if err := h.Store.CreateBid(r.Context(), bid); err != nil {
		if errors.Is(err, db.ErrDuplicateBid) {
			fail(w, http.StatusConflict, "You have already submitted a bid for this gig")
			return
		}
		if errors.Is(err, db.ErrGigClosed) {
			// Заказ забрали между проверкой статуса выше и вставкой
			fail(w, http.StatusBadRequest, "This gig is no longer accepting bids")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to create bid")
		return
	}

	created, err := h.Store.GetBidDetails(r.Context(), bid.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get bid")
		return
	}

	h.publish(notify.BidSubmitted(created, gig))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"bid":     created,
	})
}

func validateBidRequest(message string, price int) error {
	// Лимиты считаем в символах, не в байтах
	if strings.TrimSpace(message) == "" || utf8.RuneCountInString(message) > 1000 {
		return errors.New("message is required and max length 1000")
	}
	if price < 1 {
		return errors.New("price must be at least 1")
	}
	return nil
}

// GetBidsForGigHandler возвращает предложения заказа; только для владельца
func (h *Handler) GetBidsForGigHandler(w http.ResponseWriter, r *http.Request) {
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
		fail(w, http.StatusForbidden, "Only the gig owner can view bids")
		return
	}

	bids, err := h.Store.GetBidsForGig(r.Context(), gig.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get bids for gig")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(bids),
		"bids":    bids,
	})
}

// GetMyBidsHandler возвращает предложения текущего пользователя с контекстом заказов
func (h *Handler) GetMyBidsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	bids, err := h.Store.GetUserBids(r.Context(), user.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get user bids")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(bids),
		"bids":    bids,
	})
}

// HireBidHandler обрабатывает PATCH /api/bids/{bidId}/hire запрос.
// Проверки до записи: предложение есть, заказ есть, вызывающий — владелец,
// предложение в статусе pending. Сама запись — одна транзакция в Storage,
// её условный UPDATE закрывает гонку двух одновременных наймов.
func (h *Handler) HireBidHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	bidID, err := strconv.Atoi(chi.URLParam(r, "bidId"))
	if err != nil || bidID <= 0 {
		fail(w, http.StatusBadRequest, "Invalid bidId")
		return
	}

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Bid not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get bid")
		return
	}

	gig, err := h.Store.GetGig(r.Context(), bid.GigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fail(w, http.StatusNotFound, "Gig not found")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}

	if gig.OwnerID != user.ID {
		fail(w, http.StatusForbidden, "Only the gig owner can hire freelancers")
		return
	}
	if bid.Status != "pending" {
		fail(w, http.StatusBadRequest, "This bid is no longer pending")
		return
	}

	if err := h.Store.HireBid(r.Context(), gig.ID, bid.ID, bid.FreelancerID); err != nil {
		if errors.Is(err, db.ErrGigAssigned) {
			fail(w, http.StatusConflict, "This gig has already been assigned to another freelancer. Please refresh the page.")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to hire freelancer")
		return
	}

	// Состояние зафиксировано, дальше только чтение и уведомления
	updatedBid, err := h.Store.GetBidDetails(r.Context(), bid.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get bid")
		return
	}
	updatedGig, err := h.Store.GetGigDetails(r.Context(), gig.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to get gig")
		return
	}
	allBids, err := h.Store.GetBidsForGig(r.Context(), gig.ID)
	if err != nil {
		allBids = nil // проигравшие без уведомления, найм уже состоялся
	}

	h.publish(notify.FreelancerHired(updatedBid, updatedGig, allBids))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Freelancer hired successfully",
		"bid":     updatedBid,
		"gig":     updatedGig,
	})
}
