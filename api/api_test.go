package api_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/api"
	"github.com/paw-chain/settlement/testutil/apptest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	hostAddr      = apptest.Addr("host")
	depositorAddr = apptest.Addr("depositor")
	strangerAddr  = apptest.Addr("stranger")
)

type testServer struct {
	*api.Server
	app *apptest.TestApp
}

// setupTestServer creates a gateway over a funded test chain
func setupTestServer(t *testing.T, mutate ...func(*api.Config)) *testServer {
	t.Helper()
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr, strangerAddr})

	config := api.DefaultConfig()
	config.JWTSecret = testSecret
	config.CORSOrigins = []string{"http://localhost:3000"}
	config.RateLimitRPS = 1000
	config.RateLimitBurst = 1000
	for _, m := range mutate {
		m(config)
	}

	server, err := api.NewServer(ta.SettlementApp, log.NewNopLogger(), config)
	require.NoError(t, err)
	return &testServer{Server: server, app: ta}
}

func (s *testServer) token(t *testing.T, addr sdk.AccAddress) string {
	t.Helper()
	token, _, err := s.Auth().IssueToken(addr)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, as sdk.AccAddress, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(bz)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, as))
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

type txResult struct {
	Height int64           `json:"height"`
	Result json.RawMessage `json:"result"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func proofHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func (s *testServer) registerHost(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/hosts", hostAddr, map[string]interface{}{
		"metadata":         "gpu=a100",
		"endpoint":         "https://host.example/v1",
		"model_ids":        []string{"llama-3-8b"},
		"min_price_native": "227273",
		"min_price_stable": "2000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func sessionTerms(deposit string) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{
			"host":                 hostAddr.String(),
			"model_id":             "llama-3-8b",
			"denom":                "uusdc",
			"deposit":              deposit,
			"price_per_unit":       "2000",
			"max_duration_seconds": 3600,
			"proof_interval":       100,
		},
	}
}

func (s *testServer) openSession(t *testing.T) uint64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", depositorAddr, sessionTerms("1000000"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[txResult](t, w)
	var created struct {
		SessionID uint64 `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &created))
	require.NotZero(t, created.SessionID)
	return created.SessionID
}

func TestStatusAndParams(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[api.StatusResponse](t, w)
	assert.Equal(t, "settlement-test", status.ChainID)
	assert.Equal(t, int64(1), status.Height)

	w = s.do(t, http.MethodGet, "/api/v1/params", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	params := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(30), params["dispute_window_seconds"])
}

func TestAuthentication(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, _, err := api.NewAuthService([]byte("another-secret-another-secret-xx"), time.Hour).IssueToken(hostAddr)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/me", hostAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, hostAddr.String(), decode[map[string]string](t, w)["address"])
}

func TestAuthServiceExpiry(t *testing.T) {
	auth := api.NewAuthService([]byte(testSecret), -time.Minute)
	token, expiresAt, err := auth.IssueToken(hostAddr)
	require.NoError(t, err)
	require.True(t, expiresAt.Before(time.Now()))
	_, err = auth.ValidateToken(token)
	require.Error(t, err)

	auth = api.NewAuthService([]byte(testSecret), time.Hour)
	token, _, err = auth.IssueToken(hostAddr)
	require.NoError(t, err)
	addr, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, hostAddr, addr)

	_, _, err = auth.IssueToken(nil)
	require.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestServer(t)
	s.registerHost(t)

	w := s.do(t, http.MethodGet, "/api/v1/hosts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Total uint64 `json:"total"`
	}](t, w)
	assert.Equal(t, uint64(1), page.Total)

	w = s.do(t, http.MethodGet, "/api/v1/models/llama-3-8b/hosts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	id := s.openSession(t)
	path := func(suffix string) string {
		return "/api/v1/sessions/" + uintString(id) + suffix
	}

	w = s.do(t, http.MethodPost, path("/proofs"), hostAddr, map[string]interface{}{
		"units_claimed": 300,
		"proof_hash":    proofHash("p1"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path("/proofs"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)

	w = s.do(t, http.MethodGet, path("/estimate?as=host"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(300), decode[map[string]interface{}](t, w)["billable_units"])

	// The host may not complete inside the dispute window.
	w = s.do(t, http.MethodPost, path("/complete"), hostAddr, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	s.app.Clock.Advance(31 * time.Second)
	w = s.do(t, http.MethodPost, path("/complete"), hostAddr, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var settled struct {
		Settlement struct {
			Payment    string `json:"payment"`
			HostPayout string `json:"host_payout"`
		} `json:"settlement"`
	}
	require.NoError(t, json.Unmarshal(decode[txResult](t, w).Result, &settled))
	assert.Equal(t, "600000", settled.Settlement.Payment)

	w = s.do(t, http.MethodGet, path(""), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode[map[string]interface{}](t, w)["status"])

	w = s.do(t, http.MethodGet, "/api/v1/hosts/"+hostAddr.String()+"/earnings", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/hosts/me/withdraw", hostAddr, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/accounts/"+depositorAddr.String()+"/sessions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/audit?from=1&limit=100", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode[struct {
		Records []map[string]interface{} `json:"records"`
		NextSeq uint64                   `json:"next_seq"`
	}](t, w)
	assert.NotEmpty(t, audit.Records)
	assert.Equal(t, uint64(len(audit.Records)+1), audit.NextSeq)

	require.NoError(t, s.app.CheckInvariants(context.Background()))
}

func TestErrorCategories(t *testing.T) {
	s := setupTestServer(t)
	s.registerHost(t)
	id := s.openSession(t)
	path := "/api/v1/sessions/" + uintString(id)

	tests := []struct {
		name     string
		method   string
		path     string
		as       sdk.AccAddress
		body     interface{}
		status   int
		category string
	}{
		{"missing session", http.MethodGet, "/api/v1/sessions/99", nil, nil, http.StatusNotFound, "state"},
		{"malformed session id", http.MethodGet, "/api/v1/sessions/abc", nil, nil, http.StatusBadRequest, ""},
		{"unknown host", http.MethodGet, "/api/v1/hosts/" + strangerAddr.String(), nil, nil, http.StatusNotFound, "state"},
		{"stranger completes", http.MethodPost, path + "/complete", strangerAddr, nil, http.StatusForbidden, "authorization"},
		{"stranger proves", http.MethodPost, path + "/proofs", strangerAddr,
			map[string]interface{}{"units_claimed": 200, "proof_hash": proofHash("x")}, http.StatusForbidden, "authorization"},
		{"bad proof hash", http.MethodPost, path + "/proofs", hostAddr,
			map[string]interface{}{"units_claimed": 200, "proof_hash": "zz"}, http.StatusBadRequest, "validation"},
		{"register twice", http.MethodPost, "/api/v1/hosts", hostAddr, map[string]interface{}{
			"metadata":         "gpu=a100", "endpoint": "https://host.example/v1", "model_ids": []string{"llama-3-8b"},
			"min_price_native": "227273", "min_price_stable": "2000",
		}, http.StatusConflict, "state"},
		{"deposit beyond balance", http.MethodPost, "/api/v1/sessions", depositorAddr,
			sessionTerms("500000000"), http.StatusUnprocessableEntity, "economic"},
		{"deposit beyond amount limit", http.MethodPost, "/api/v1/sessions", depositorAddr,
			sessionTerms("1" + strings.Repeat("0", 75)), http.StatusBadRequest, "validation"},
		{"timeout too early", http.MethodPost, path + "/timeout", strangerAddr, nil, http.StatusConflict, "state"},
		{"non authority slash", http.MethodPost, "/api/v1/admin/hosts/" + hostAddr.String() + "/slash", strangerAddr,
			map[string]interface{}{"amount": "10", "evidence_ref": "bafy-evidence", "reason": "cheating"}, http.StatusForbidden, "authorization"},
		{"non authority model approval", http.MethodPost, "/api/v1/admin/models", strangerAddr,
			map[string]interface{}{"id": "qwen-7b"}, http.StatusForbidden, ""},
		{"malformed body", http.MethodPut, "/api/v1/me/delegates/" + strangerAddr.String(), depositorAddr,
			map[string]interface{}{}, http.StatusBadRequest, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, tc.method, tc.path, tc.as, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			resp := decode[api.ErrorResponse](t, w)
			assert.Equal(t, tc.category, resp.Category)
			assert.NotEmpty(t, resp.RequestID)
		})
	}

	t.Run("replayed proof", func(t *testing.T) {
		body := map[string]interface{}{"units_claimed": 200, "proof_hash": proofHash("once")}
		w := s.do(t, http.MethodPost, path+"/proofs", hostAddr, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		height := s.app.LastHeight()

		w = s.do(t, http.MethodPost, path+"/proofs", hostAddr, body)
		require.Equal(t, http.StatusConflict, w.Code)
		resp := decode[api.ErrorResponse](t, w)
		assert.Equal(t, "replay", resp.Category)
		assert.Equal(t, "REPLAY", resp.Code)
		assert.Equal(t, height, s.app.LastHeight())
	})
}

func TestDelegatedSession(t *testing.T) {
	s := setupTestServer(t)
	s.registerHost(t)

	w := s.do(t, http.MethodPost, "/api/v1/sessions/for-payer", strangerAddr, map[string]interface{}{
		"payer": depositorAddr.String(),
		"terms": sessionTerms("1000000")["terms"],
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	authorized := true
	w = s.do(t, http.MethodPut, "/api/v1/me/delegates/"+strangerAddr.String(), depositorAddr, api.DelegateRequest{Authorized: &authorized})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/accounts/"+depositorAddr.String()+"/delegates/"+strangerAddr.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[api.DelegationResponse](t, w).Authorized)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/for-payer", strangerAddr, map[string]interface{}{
		"payer": depositorAddr.String(),
		"terms": sessionTerms("1000000")["terms"],
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestModelAdministration(t *testing.T) {
	s := setupTestServer(t)
	authority, err := sdk.AccAddressFromBech32(s.app.Authority())
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/admin/models", authority, api.ApproveModelRequest{ID: "qwen-7b", Name: "Qwen 7B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/admin/models", authority, api.ApproveModelRequest{ID: "qwen-7b"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/models/qwen-7b", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.app.Authority(), decode[map[string]interface{}](t, w)["approved_by"])

	w = s.do(t, http.MethodDelete, "/api/v1/admin/models/qwen-7b", authority, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/models/qwen-7b", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/models", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), len(apptest.DefaultModels))
}

func TestFaucetDisabled(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/faucet", nil, api.FaucetRequest{Address: strangerAddr.String()})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/faucet", nil, api.FaucetRequest{Address: "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, func(c *api.Config) {
		c.RateLimitRPS = 1
		c.RateLimitBurst = 1
	})

	w := s.do(t, http.MethodGet, "/api/v1/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/status", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMiddlewareHeaders(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(api.RequestIDHeader, "6f1c2f6e-4f0e-4c53-9a53-1d8f3c1c2b7a")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "6f1c2f6e-4f0e-4c53-9a53-1d8f3c1c2b7a", w.Header().Get(api.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(api.RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(api.RequestIDHeader))
}

func TestConfigValidate(t *testing.T) {
	cfg := api.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.ListenAddress = "nope"
	require.Error(t, cfg.Validate())

	cfg = api.DefaultConfig()
	cfg.JWTSecret = "short"
	require.Error(t, cfg.Validate())

	cfg = api.DefaultConfig()
	cfg.MaxPageSize = 0
	require.Error(t, cfg.Validate())
}
