package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
	"github.com/tanpawarit/ai-sales-assistant/agent/tool"
)

type interactionRequest struct {
	CustomerName string `json:"customer_name"`
	Utterance    string `json:"utterance"`
}

type turnRequest struct {
	Utterance string `json:"utterance"`
}

type closeRequest struct {
	Outcome string `json:"outcome"`
}

func (h *Handler) RunInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.interactions.RunInteraction(r.Context(), req.CustomerName, req.Utterance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.catalog.ListCustomers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// CustomerHistory lists every recorded interaction of a customer, oldest first.
func (h *Handler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.customer(r.Context(), nameParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := h.catalog.History(r.Context(), rec.CustomerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": rec, "history": history})
}

func (h *Handler) customer(ctx context.Context, name string) (contractx.CustomerRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: customer name is required", contractx.ErrValidation)
	}
	rec, found, err := h.catalog.FindLatestByName(ctx, name)
	if err != nil {
		return contractx.CustomerRecord{}, err
	}
	if !found {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: customer %q", contractx.ErrNotFound, name)
	}
	return rec, nil
}

// ListProducts prices the catalog for ?customer= when given.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var labels contractx.Labels
	if name := strings.TrimSpace(r.URL.Query().Get("customer")); name != "" {
		rec, err := h.customer(r.Context(), name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		labels = rec.Labels
	}

	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": tool.QuoteProducts(products, labels, statex.DefaultCurrentDiscount, statex.DefaultMaxDiscount),
	})
}

func (h *Handler) StartNegotiation(w http.ResponseWriter, r *http.Request) {
	res, err := h.negotiations.StartNegotiation(r.Context(), nameParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *Handler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.negotiations.SubmitNegotiationTurn(r.Context(), nameParam(r), req.Utterance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CloseNegotiation(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.negotiations.CloseNegotiation(r.Context(), nameParam(r), req.Outcome)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.negotiations.Session(r.Context(), nameParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", contractx.ErrValidation, err)
	}
	return nil
}

func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
