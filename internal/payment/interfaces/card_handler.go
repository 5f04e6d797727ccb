package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jmroczek/PayVault/internal/payment/application"
	"github.com/jmroczek/PayVault/internal/payment/domain"
	paymentErrors "github.com/jmroczek/PayVault/internal/payment/errors"
)

type CardServiceInterface interface {
	BeginSetup(ctx context.Context, email string) (*application.SetupIntentResult, error)
	ConfirmCard(ctx context.Context, email, methodRef string) (*domain.SavedCard, error)
	ListCards(ctx context.Context, email string) ([]domain.SavedCard, error)
	RemoveCard(ctx context.Context, email, cardID string) error
	Reconcile(ctx context.Context, email string) (*domain.ReconciliationReport, error)
}

type CardHandler struct {
	service      CardServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewCardHandler(
	service CardServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *CardHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CardHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *CardHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case paymentErrors.IsInvalidInput(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case paymentErrors.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, err.Error())
	case paymentErrors.IsConflict(err):
		h.respondError(w, http.StatusConflict, err.Error())
	case paymentErrors.IsUpstreamFailure(err):
		h.respondError(w, http.StatusBadGateway, fallback)
	default:
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *CardHandler) HandleCreateSetupIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		h.respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	result, err := h.service.BeginSetup(r.Context(), req.Email)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create setup intent")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"clientSecret": result.ClientSecret,
		"customerId":   result.CustomerID,
	})
}

func (h *CardHandler) HandleListSavedCards(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	cards, err := h.service.ListCards(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, err, "Failed to fetch saved cards")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"savedCards": cards,
	})
}

func (h *CardHandler) HandleSaveCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		PaymentMethodID string `json:"paymentMethodId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.PaymentMethodID == "" {
		h.respondError(w, http.StatusBadRequest, "Email and payment method ID are required")
		return
	}

	savedCard, err := h.service.ConfirmCard(r.Context(), req.Email, req.PaymentMethodID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to save card")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"savedCard": savedCard,
	})
}

func (h *CardHandler) HandleDeleteSavedCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("cardId")
	email := r.URL.Query().Get("email")
	if cardID == "" || email == "" {
		h.respondError(w, http.StatusBadRequest, "Card ID and email are required")
		return
	}

	if err := h.service.RemoveCard(r.Context(), email, cardID); err != nil {
		h.respondServiceError(w, err, "Failed to delete card")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *CardHandler) HandleReconciliation(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	report, err := h.service.Reconcile(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, err, "Failed to reconcile saved cards")
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}
