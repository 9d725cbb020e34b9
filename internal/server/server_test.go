package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/corpus"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/prover"
)

func newTestServer(t *testing.T) (*Server, *horn.Horn) {
	t.Helper()
	h := horn.New(horn.Options{Prover: prover.Options{MaxDepth: 8}})
	t.Cleanup(func() { h.Close() })
	require.NoError(t, h.ImportKB(context.Background(), "criminal", corpus.Criminal()))
	return New(h, config.Default().Server, zaptest.NewLogger(t)), h
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProveStoredKB(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/prove", `{"kb":"criminal","statement":"criminal(Who)"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp proofResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Provable)
	assert.Equal(t, "criminal(west)", resp.Answer)
	assert.Equal(t, "west", resp.Bindings["who"])
	assert.NotEmpty(t, resp.ID)

	rec = do(t, s, http.MethodPost, "/v1/prove",
		`{"kb":"criminal","statement":{"predicate":"criminal","args":[{"Val":"east"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Provable)
	assert.Equal(t, internalerr.ErrProofNotFound.Error(), resp.Reason)
}

func TestProveInlineRules(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"rules":"parent(tom, bob). parent(bob, ann). grand(X, Z) :- parent(X, Y), parent(Y, Z).","statement":"grand(tom, Who)"}`

	rec := do(t, s, http.MethodPost, "/v1/prove", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp proofResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Provable)
	assert.Equal(t, "ann", resp.Bindings["who"])
}

func TestProveNullRulesUsesStoredKB(t *testing.T) {
	s, h := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/prove", `{"kb":"criminal","rules":null,"statement":"criminal(west)"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp proofResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Provable, rec.Body.String())
	assert.Equal(t, "criminal", resp.KB)

	history, err := h.History(context.Background(), "criminal", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Provable)
}

func TestProveErrors(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing statement", `{"kb":"criminal"}`, http.StatusBadRequest},
		{"null statement", `{"kb":"criminal","statement":null}`, http.StatusBadRequest},
		{"bad statement", `{"kb":"criminal","statement":"criminal("}`, http.StatusBadRequest},
		{"unknown kb", `{"kb":"nope","statement":"p(a)"}`, http.StatusNotFound},
		{"no kb", `{"statement":"p(a)"}`, http.StatusBadRequest},
		{"negative depth", `{"kb":"criminal","statement":"p(a)","max_depth":-1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/prove", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("rules: %w", internalerr.ErrParse), http.StatusBadRequest},
		{internalerr.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("kb x: %w", internalerr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: horn.db: locked", internalerr.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, statusFor(tc.err), "%v", tc.err)
	}
}

func TestKBEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/kbs/arith", "leq(zero, three).\nleq(X, add(X, zero)).\n", "Content-Type", "text/plain")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/v1/kbs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []kbInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "arith", list[0].Name)
	assert.Equal(t, 2, list[0].Rules)

	rec = do(t, s, http.MethodGet, "/v1/kbs/arith?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leq(X, add(X, zero)).")

	rec = do(t, s, http.MethodGet, "/v1/kbs/arith?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/v1/kbs/arith", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/v1/kbs/arith", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutKBFromFixture(t *testing.T) {
	s, _ := newTestServer(t)
	data, err := os.ReadFile("../../testdata/kb/criminal.yaml")
	require.NoError(t, err)

	rec := do(t, s, http.MethodPut, "/v1/kbs/west", string(data), "Content-Type", "application/yaml")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/v1/kbs/broken", "p(a", "Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProofHistory(t *testing.T) {
	s, _ := newTestServer(t)
	for _, stmt := range []string{"criminal(west)", "criminal(east)", "weapon(m1)"} {
		rec := do(t, s, http.MethodPost, "/v1/prove", `{"kb":"criminal","statement":"`+stmt+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/v1/proofs?kb=criminal&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var proofs []proofResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proofs))
	require.Len(t, proofs, 2)
	assert.Equal(t, "weapon(m1)", proofs[0].Statement)
	assert.Equal(t, "criminal(east)", proofs[1].Statement)

	rec = do(t, s, http.MethodGet, "/v1/proofs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
