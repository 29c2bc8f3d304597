package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/echo-ledger/internal/api/middleware"
	"github.com/FACorreiaa/echo-ledger/internal/domain/categorization"
)

// CategorizationHandler serves suggestions and learns from assignments.
type CategorizationHandler struct {
	svc    *categorization.Service
	logger *slog.Logger
}

// NewCategorizationHandler creates a new categorization handler
func NewCategorizationHandler(svc *categorization.Service, logger *slog.Logger) *CategorizationHandler {
	return &CategorizationHandler{svc: svc, logger: logger}
}

type suggestRequest struct {
	Description string `json:"description"`
}

type learnRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Suggest handles POST /v1/suggest. An empty category in the response means
// no suggestion, which is a normal answer.
func (h *CategorizationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "description is required")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.svc.Suggest(req.Description))
}

// Learn handles POST /v1/learn and answers 204.
func (h *CategorizationHandler) Learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Category) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "description and category are required")
		return
	}

	code, err := h.svc.Learn(req.Description, req.Category)
	if err != nil {
		if errors.Is(err, categorization.ErrUnknownCategory) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to learn category", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to learn category")
		return
	}

	h.logger.Info("category assigned", "category", code)
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /v1/categories.
func (h *CategorizationHandler) Categories(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()
	if reg == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"categories": []categorization.Category{}})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"categories": reg.Categories,
		"accounts":   reg.Accounts,
	})
}
