package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/atm/internal/atm"
	"github.com/ruralpay/atm/internal/config"
	mW "github.com/ruralpay/atm/internal/middleware"
	"github.com/ruralpay/atm/internal/models"
	"github.com/ruralpay/atm/internal/services"
)

type ATMHandler struct {
	service   *services.ATMService
	validator *services.ValidationHelper
}

func NewATMHandler(service *services.ATMService, cfg *config.ATMConfig) *ATMHandler {
	return &ATMHandler{
		service:   service,
		validator: services.NewValidationHelper(cfg.MinPINLength, cfg.MaxPINLength),
	}
}

// Routes mounts the terminal API. Everything under /atm needs a session token.
func (h *ATMHandler) Routes(tokens mW.TokenParser) chi.Router {
	r := chi.NewRouter()

	r.Post("/sessions", h.StartSession)
	r.Post("/sessions/{sessionId}/login", h.Login)

	r.Route("/atm", func(r chi.Router) {
		r.Use(mW.SessionAuth(tokens))

		r.Get("/balance", h.Balance)
		r.Post("/withdraw", h.Withdraw)
		r.Post("/deposit", h.Deposit)
		r.Post("/pin", h.ChangePIN)
		r.Get("/receipt", h.Receipt)
		r.Get("/history", h.History)
		r.Post("/logout", h.Logout)
	})

	return r
}

// StartSession opens a terminal session for an inserted card
// @Summary Start session
// @Tags Session
// @Produce json
// @Success 201 {object} models.SessionResponse
// @Router /sessions [post]
func (h *ATMHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	services.SendJSONResponse(w, h.service.StartSession(), http.StatusCreated)
}

// Login verifies the card PIN
// @Summary Enter PIN
// @Description Three consecutive wrong PINs retain the card
// @Tags Session
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body models.LoginRequest true "Card and PIN"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 423 {object} services.ErrorResponse
// @Router /sessions/{sessionId}/login [post]
func (h *ATMHandler) Login(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.LoginRequest
	if err := services.DecodeJSON(w, r, &req); err != nil {
		log.Printf("[ATM] Login - Decode error: %v", err)
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	resp, err := h.service.Login(sessionID, req.CardID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	if resp.Status == atm.AuthRejected.String() {
		services.SendJSONResponse(w, services.ErrorResponse{
			Error:             "Incorrect PIN",
			RemainingAttempts: resp.RemainingAttempts,
		}, http.StatusUnauthorized)
		return
	}

	services.SendJSONResponse(w, resp, http.StatusOK)
}

// Balance returns the account balance
// @Summary Balance inquiry
// @Tags ATM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.BalanceResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /atm/balance [get]
func (h *ATMHandler) Balance(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, atm.Inquiry())
}

// Withdraw dispenses cash
// @Summary Withdraw cash
// @Tags ATM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=number} true "Amount"
// @Success 200 {object} models.BalanceResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /atm/withdraw [post]
func (h *ATMHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}
	h.execute(w, r, atm.Withdrawal(*req.Amount))
}

// Deposit accepts cash
// @Summary Deposit cash
// @Tags ATM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=number} true "Amount"
// @Success 200 {object} models.BalanceResponse
// @Failure 400 {object} services.ErrorResponse
// @Router /atm/deposit [post]
func (h *ATMHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}
	h.execute(w, r, atm.Deposit(*req.Amount))
}

// ChangePIN replaces the card PIN
// @Summary Change PIN
// @Tags ATM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PINChangeRequest true "Old, new and confirmed PIN"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /atm/pin [post]
func (h *ATMHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	claims, ok := mW.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.PINChangeRequest
	if err := services.DecodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if _, err := h.service.Execute(r.Context(), claims.SessionID, atm.PINChange(req.OldPIN, req.NewPIN, req.ConfirmPIN)); err != nil {
		writeError(w, err)
		return
	}

	services.SendJSONResponse(w, map[string]string{"message": "PIN changed"}, http.StatusOK)
}

// Receipt prints the last transaction
// @Summary Print receipt
// @Tags ATM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Receipt
// @Failure 404 {object} services.ErrorResponse
// @Router /atm/receipt [get]
func (h *ATMHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	claims, ok := mW.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	receipt, err := h.service.Receipt(claims.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	services.SendJSONResponse(w, receipt, http.StatusOK)
}

// History lists the journal entries of the session
// @Summary Session journal
// @Tags ATM
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.JournalEntry
// @Router /atm/history [get]
func (h *ATMHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := mW.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	entries, err := h.service.History(r.Context(), claims.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}

	services.SendJSONResponse(w, entries, http.StatusOK)
}

// Logout ends the session and ejects the card
// @Summary Logout
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /atm/logout [post]
func (h *ATMHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := mW.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	if err := h.service.Logout(r.Context(), claims.SessionID, claims); err != nil {
		writeError(w, err)
		return
	}

	services.SendJSONResponse(w, map[string]string{"message": "Logout successful"}, http.StatusOK)
}

func (h *ATMHandler) decodeAmount(w http.ResponseWriter, r *http.Request) (*models.AmountRequest, bool) {
	var req models.AmountRequest
	if err := services.DecodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return nil, false
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return nil, false
	}

	if err := services.CheckAmountPrecision(*req.Amount); err != nil {
		services.SendErrorResponse(w, "Amount cannot have more than two decimal places", http.StatusBadRequest, nil)
		return nil, false
	}

	return &req, true
}

func (h *ATMHandler) execute(w http.ResponseWriter, r *http.Request, req atm.Request) {
	claims, ok := mW.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	resp, err := h.service.Execute(r.Context(), claims.SessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	services.SendJSONResponse(w, resp, http.StatusOK)
}

// writeError maps service and core errors onto HTTP responses
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, atm.ErrInvalidAmount):
		services.SendErrorResponse(w, "Amount must be greater than zero", http.StatusBadRequest, nil)
	case errors.Is(err, atm.ErrPINMismatch):
		services.SendErrorResponse(w, "New PIN and confirmation do not match", http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrInvalidPINFormat):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, atm.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Insufficient funds", http.StatusConflict, nil)
	case errors.Is(err, atm.ErrIncorrectOldPIN):
		services.SendErrorResponse(w, "Incorrect PIN", http.StatusForbidden, nil)
	case errors.Is(err, atm.ErrCardRetained):
		services.SendErrorResponse(w, "Card retained. Please contact your bank", http.StatusLocked, nil)
	case errors.Is(err, atm.ErrNotAuthenticated):
		services.SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
	case errors.Is(err, atm.ErrUnknownCard):
		services.SendErrorResponse(w, "Card not recognised", http.StatusUnauthorized, nil)
	case errors.Is(err, atm.ErrCardMismatch), errors.Is(err, atm.ErrAlreadyAuthenticated):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, atm.ErrSessionClosed):
		services.SendErrorResponse(w, "Session closed", http.StatusGone, nil)
	case errors.Is(err, services.ErrSessionNotFound):
		services.SendErrorResponse(w, "Session not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrNoReceipt):
		services.SendErrorResponse(w, "No receipt available", http.StatusNotFound, nil)
	default:
		log.Printf("[ATM] Unexpected error: %v", err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
