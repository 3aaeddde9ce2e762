package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpreconcile "github.com/MrJamesThe3rd/txsync/internal/http/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

type fakeReconciler func(ctx context.Context, filter transaction.Filter) (*reconcile.Result, error)

func (f fakeReconciler) Reconcile(ctx context.Context, filter transaction.Filter) (*reconcile.Result, error) {
	return f(ctx, filter)
}

func post(h *httpreconcile.Handler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Routes(r)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Reconcile(t *testing.T) {
	var got transaction.Filter

	h := httpreconcile.NewHandler(fakeReconciler(func(_ context.Context, filter transaction.Filter) (*reconcile.Result, error) {
		got = filter
		return &reconcile.Result{Matched: 4, DeleteBatches: 1}, nil
	}), "U1")

	rec := post(h, `{"account_ids":[42],"from":"2024-03-01","to":"2024-04-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, transaction.Filter{
		Owner:      "U1",
		AccountIDs: []int64{42},
		Range: &transaction.DateRange{
			From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}, got)
	assert.JSONEq(t, `{"matched":4,"deleted":4}`, rec.Body.String())
}

func TestHandler_ReconcileWholeOwner(t *testing.T) {
	var got transaction.Filter

	h := httpreconcile.NewHandler(fakeReconciler(func(_ context.Context, filter transaction.Filter) (*reconcile.Result, error) {
		got = filter
		return &reconcile.Result{}, nil
	}), "U1")

	rec := post(h, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transaction.Filter{Owner: "U1"}, got)
}

func TestHandler_ReconcilePartial(t *testing.T) {
	h := httpreconcile.NewHandler(fakeReconciler(func(context.Context, transaction.Filter) (*reconcile.Result, error) {
		return &reconcile.Result{Matched: 10}, &transaction.PartialReconciliationError{Remaining: 3}
	}), "U1")

	rec := post(h, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]int{"matched": 10, "deleted": 7, "remaining": 3}, resp)
}

func TestHandler_ReconcileErrors(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}

	tests := []testCase{
		{name: "BadJSON", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "HalfRange", body: `{"from":"2024-03-01"}`, wantStatus: http.StatusBadRequest},
		{name: "BadDate", body: `{"from":"01/03/2024","to":"2024-04-01"}`, wantStatus: http.StatusBadRequest},
		{name: "InvalidRange", body: `{"from":"2024-04-01","to":"2024-03-01"}`, svcErr: transaction.ErrInvalidRange, wantStatus: http.StatusBadRequest},
		{name: "StoreDown", body: `{}`, svcErr: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpreconcile.NewHandler(fakeReconciler(func(context.Context, transaction.Filter) (*reconcile.Result, error) {
				return nil, tt.svcErr
			}), "U1")

			rec := post(h, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
