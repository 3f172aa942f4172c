package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hnqc/group-verify/pkg/verification"
)

// Handler exposes the issue and redeem operations over HTTP
type Handler struct {
	service *verification.Service
}

// NewHandler creates a new verification API handler
func NewHandler(service *verification.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Routes mounts the verification endpoints on the given router
func Routes(r chi.Router, h *Handler) {
	r.Post("/issue", h.IssueCode)
	r.Post("/redeem", h.RedeemCode)
}

// IssueCode handles POST /issue
func (h *Handler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode issue request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	_, err := h.service.RequestCode(r.Context(), req.Email)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to send verification code"

		switch {
		case errors.Is(err, verification.ErrInvalidEmail):
			status = http.StatusBadRequest
			message = "Invalid email address"
		case errors.Is(err, verification.ErrTooManyRequests):
			status = http.StatusTooManyRequests
			message = "Too many verification codes requested. Please try again later"
		default:
			// storage or delivery failure: detail stays in the logs
			slog.Error("Failed to issue verification code", "err", err)
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, IssueResponse{
		Message: "Verification code sent",
	})
}

// RedeemCode handles POST /redeem. Any redemption that cannot succeed gets
// the same message and status; the response never says which check failed.
func (h *Handler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode redeem request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	err := h.service.Redeem(r.Context(), req.Email, req.Code)
	if err != nil {
		status := http.StatusBadRequest
		message := "Verification code is invalid or expired"

		switch {
		case errors.Is(err, verification.ErrMissingField):
			message = "Email and code are required"
		case errors.Is(err, verification.ErrInvalidOrExpired):
			// keep the generic message
		default:
			slog.Error("Failed to redeem verification code", "err", err)
			status = http.StatusInternalServerError
			message = "An error occurred while verifying the code"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RedeemResponse{
		Message: "Verification successful",
	})
}
