package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

type fakeActions struct {
	tokenID uint64
	terms   domain.SaleTerms
	limit   int
	err     error
}

func (f *fakeActions) ListForSale(_ context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error) {
	f.tokenID, f.terms = tokenID, terms
	return domain.ActionResult{Action: domain.ActionListSale, TokenID: tokenID}, f.err
}

func (f *fakeActions) ListForAuction(_ context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error) {
	f.tokenID, f.terms = tokenID, terms
	return domain.ActionResult{Action: domain.ActionListAuction, TokenID: tokenID}, f.err
}

func (f *fakeActions) Evolve(_ context.Context, tokenID uint64) (domain.ActionResult, error) {
	f.tokenID = tokenID
	return domain.ActionResult{Action: domain.ActionEvolve, TokenID: tokenID}, f.err
}

func (f *fakeActions) Feed(_ context.Context, tokenID uint64) (domain.ActionResult, error) {
	f.tokenID = tokenID
	return domain.ActionResult{Action: domain.ActionFeed, TokenID: tokenID}, f.err
}

func (f *fakeActions) Resolve(_ context.Context, tokenID uint64) (domain.ActionResult, error) {
	f.tokenID = tokenID
	return domain.ActionResult{Action: domain.ActionUnlist, TokenID: tokenID}, f.err
}

func (f *fakeActions) History(_ context.Context, limit int) ([]domain.ActionRecord, error) {
	f.limit = limit
	return nil, f.err
}

func newActionHandler(fake *fakeActions) *ActionHandler {
	return NewActionHandler(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postWithID(body, id string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/assets/"+id+"/list", strings.NewReader(body))
	r.SetPathValue("id", id)
	return r
}

func TestListForSaleParsesBody(t *testing.T) {
	fake := &fakeActions{}
	h := newActionHandler(fake)

	w := httptest.NewRecorder()
	h.ListForSale(w, postWithID(`{"price":"2.5","duration":"6 hours"}`, "7"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(7), fake.tokenID)
	assert.Equal(t, "2.5", fake.terms.Price())
	assert.Equal(t, int64(21600), fake.terms.DurationSeconds())
}

func TestListForSaleRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"bad token id", "seven", `{"price":"1","duration":"1 day"}`, http.StatusBadRequest},
		{"malformed body", "7", `{`, http.StatusBadRequest},
		{"invalid price", "7", `{"price":"1.123456","duration":"1 day"}`, http.StatusBadRequest},
		{"unknown duration", "7", `{"price":"1","duration":"2 weeks"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeActions{}
			h := newActionHandler(fake)

			w := httptest.NewRecorder()
			h.ListForSale(w, postWithID(tt.body, tt.id))

			assert.Equal(t, tt.want, w.Code)
			assert.Zero(t, fake.tokenID, "service must not be called on bad input")
		})
	}
}

func TestActionErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotConnected, http.StatusServiceUnavailable},
		{domain.ErrActionInFlight, http.StatusConflict},
		{domain.ErrNotResolvable, http.StatusConflict},
		{domain.ErrRelayRejected, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newActionHandler(&fakeActions{err: tt.err})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/assets/7/resolve", nil)
			r.SetPathValue("id", "7")
			h.Resolve(w, r)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestListActionsLimit(t *testing.T) {
	fake := &fakeActions{}
	h := newActionHandler(fake)

	w := httptest.NewRecorder()
	h.ListActions(w, httptest.NewRequest(http.MethodGet, "/api/actions?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, fake.limit)

	// Empty journal serializes as an empty array, not null.
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, `[]`, string(body["actions"]))

	h.ListActions(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/actions?limit=9999", nil))
	assert.Equal(t, 500, fake.limit, "limit is capped")

	h.ListActions(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/actions", nil))
	assert.Equal(t, 50, fake.limit, "limit defaults")
}
