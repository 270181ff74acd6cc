package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/money"
	"github.com/atlantisbot/atlantis-ledger/internal/platform"
	"github.com/atlantisbot/atlantis-ledger/internal/rewards"
	"github.com/atlantisbot/atlantis-ledger/internal/store"
	"github.com/atlantisbot/atlantis-ledger/internal/store/orders"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ord, err := orders.Open(filepath.Join(t.TempDir(), "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ord.Close() })

	settings := &rewards.Settings{
		Rate:          2000,
		Hold:          24 * time.Hour,
		RedeemEnabled: true,
		OrderPrefix:   "REDEEM",
		Catalog: &domain.Catalog{Services: []domain.Service{
			{ID: "vip", Name: "VIP role", Cost: 1500},
		}},
	}
	svc := rewards.NewService(st, ord, platform.NoopGateway{}, settings,
		money.NewFormatter("vi", "đ"), logger)

	return NewServer(svc, testToken, logger), st
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "health needs no auth")
}

func TestServer_RequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/communities/g1/balances/u1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/communities/g1/balances/u1", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/communities/g1/balances/u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_GetBalance(t *testing.T) {
	srv, st := newTestServer(t)

	_, err := st.Credit("g1", "u1", 2000)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/communities/g1/balances/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(2000), data["money"])
	assert.Equal(t, float64(1), data["invites"])
}

func TestServer_GetTop(t *testing.T) {
	srv, st := newTestServer(t)

	for _, seed := range []struct {
		user   string
		amount int64
	}{{"u1", 500}, {"u2", 900}, {"u3", 100}} {
		_, err := st.Credit("g1", seed.user, seed.amount)
		require.NoError(t, err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/communities/g1/balances?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "u2", data[0].(map[string]any)["user_id"])

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/communities/g1/balances?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_JoinEvent(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/join",
		`{"user_id": "joiner"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	p, err := st.GetPending("g1", "joiner")
	require.NoError(t, err)
	assert.False(t, p.Attributed(), "noop gateway sees no invites")

	// Missing user_id fails validation.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/join", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body fails validation, not 500.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/join", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_LeaveEvent(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/join",
		`{"user_id": "joiner"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/leave",
		`{"user_id": "joiner"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := st.GetPending("g1", "joiner")
	assert.ErrorIs(t, err, store.ErrPendingNotFound)
}

func TestServer_Redeem(t *testing.T) {
	srv, st := newTestServer(t)

	_, err := st.Credit("g1", "u1", 2000)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/redeem",
		`{"user_id": "u1", "service_id": "vip"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	orderNo := data["order_no"].(string)
	assert.Contains(t, orderNo, "REDEEM-")

	// Second redeem: only 500 left against a 1500 service.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/redeem",
		`{"user_id": "u1", "service_id": "vip"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, "INSUFFICIENT_FUNDS", envelope["code"])

	// Unknown service maps to 404.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/redeem",
		`{"user_id": "u1", "service_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Fulfillment round trip.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/orders/"+orderNo+"/fulfill", "")
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["data"].(map[string]any)["changed"])

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/orders/"+orderNo+"/fulfill", "")
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["data"].(map[string]any)["changed"])

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/orders/REDEEM-000000/fulfill", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Catalog(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	services := envelope["data"].(map[string]any)["services"].([]any)
	assert.Len(t, services, 1)
}

func TestServer_Bills(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/bills",
		`{"customer_id": "u1", "product": "Spotify Premium", "price": "30.000đ"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	billID := envelope["data"].(map[string]any)["id"].(string)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/bills/"+billID+"/fulfill", "")
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["data"].(map[string]any)["changed"])

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/communities/g1/bills", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// bill_url, when present, must be a URL.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/bills",
		`{"customer_id": "u1", "product": "x", "price": "1", "bill_url": "not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RateLimitByCommunity(t *testing.T) {
	srv, _ := newTestServer(t)

	var limited bool
	for i := 0; i < 30; i++ {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g1/events/join",
			`{"user_id": "burst"}`)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "a burst past the bucket must get throttled")

	// Another community has its own bucket.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/communities/g2/events/join",
		`{"user_id": "ok"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
