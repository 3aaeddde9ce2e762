package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

type Reconciler interface {
	Reconcile(ctx context.Context, filter transaction.Filter) (*reconcile.Result, error)
}

type Handler struct {
	svc   Reconciler
	owner string
}

func NewHandler(svc Reconciler, owner string) *Handler {
	return &Handler{svc: svc, owner: owner}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.reconcile)
}

// reconcileRequest selects the transactions to delete. from and to are
// calendar days; to is exclusive. Both or neither must be given.
type reconcileRequest struct {
	AccountIDs []int64 `json:"account_ids"`
	From       string  `json:"from"`
	To         string  `json:"to"`
}

type reconcileResponse struct {
	Matched   int `json:"matched"`
	Deleted   int `json:"deleted"`
	Remaining int `json:"remaining,omitempty"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	filter := transaction.Filter{Owner: h.owner, AccountIDs: req.AccountIDs}

	if req.From != "" || req.To != "" {
		rng, err := parseRange(req.From, req.To)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		filter.Range = rng
	}

	res, err := h.svc.Reconcile(r.Context(), filter)
	if err != nil {
		var partial *transaction.PartialReconciliationError

		switch {
		case errors.As(err, &partial):
			matched := 0
			if res != nil {
				matched = res.Matched
			}

			writeJSON(w, http.StatusInternalServerError, reconcileResponse{
				Matched:   matched,
				Deleted:   max(matched-partial.Remaining, 0),
				Remaining: partial.Remaining,
			})
		case errors.Is(err, transaction.ErrInvalidRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("reconcile failed", "owner", h.owner, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusOK, reconcileResponse{Matched: res.Matched, Deleted: res.Matched})
}

var errHalfRange = errors.New("from and to must be given together")

func parseRange(from, to string) (*transaction.DateRange, error) {
	if from == "" || to == "" {
		return nil, errHalfRange
	}

	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return nil, errors.New("invalid from date, expected YYYY-MM-DD")
	}

	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return nil, errors.New("invalid to date, expected YYYY-MM-DD")
	}

	return &transaction.DateRange{From: f, To: t}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
