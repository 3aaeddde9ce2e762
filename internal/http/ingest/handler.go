package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

const maxUploadSize = 10 << 20

type Importer interface {
	Import(ctx context.Context, r io.Reader, target importer.Target) (*importer.Report, error)
}

type Handler struct {
	svc Importer
}

func NewHandler(svc Importer) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.ingest)
}

type rejectedRow struct {
	Line  int    `json:"line"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type ingestResponse struct {
	Profile        string        `json:"profile"`
	Attempted      int           `json:"attempted"`
	Inserted       int           `json:"inserted"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	Malformed      int           `json:"malformed"`
	CategoryFailed int           `json:"category_failed"`
	Rejected       []rejectedRow `json:"rejected,omitempty"`
}

type formatResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "account_id field is required", http.StatusBadRequest)
		return
	}

	bankID, err := strconv.ParseInt(r.FormValue("bank_id"), 10, 64)
	if err != nil || bankID <= 0 {
		http.Error(w, "bank_id field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := r.FormValue("format")
	if format == "" {
		format = importer.FormatAuto
	}

	report, err := h.svc.Import(r.Context(), file, importer.Target{
		Format:    format,
		AccountID: accountID,
		BankID:    bankID,
	})
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrAccountNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		case errors.Is(err, transaction.ErrAccountBankMismatch):
			http.Error(w, "account belongs to a different bank", http.StatusConflict)
		case errors.Is(err, importer.ErrUnknownFormat), errors.Is(err, importer.ErrNoProfile):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("ingest failed", "account_id", accountID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(report)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Formats lists the export layouts the parser understands.
func (h *Handler) Formats(w http.ResponseWriter, _ *http.Request) {
	profiles := importer.Profiles()

	resp := make([]formatResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = formatResponse{Name: p.Name, Description: p.Description}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toResponse(report *importer.Report) ingestResponse {
	sum := report.Summary

	resp := ingestResponse{
		Profile:        report.Profile,
		Attempted:      sum.Attempted,
		Inserted:       sum.Inserted,
		Skipped:        sum.Skipped,
		Failed:         sum.Failed,
		Malformed:      sum.Malformed,
		CategoryFailed: sum.CategoryFailed,
	}

	for _, rej := range report.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedRow{Line: rej.Line, Field: rej.Field, Value: rej.Value})
	}

	return resp
}
