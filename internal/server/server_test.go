package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return New(Options{})
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestHealthReportsOK(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestVersionReportsSemver(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "version")
}

func TestCapabilitiesListsFeatures(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/capabilities", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qasm2")
}

func TestCompileSuccess(t *testing.T) {
	s := newTestServer()
	body := `{"source": "fn main() -> int { let q0: qubit = |0>; H(q0); let c0 = measure(q0); return 0; }"}`
	w := doRequest(s, http.MethodPost, "/compile", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Qasm, "OPENQASM 2.0;")
	assert.Equal(t, 1, resp.Stats.Gates)
}

func TestCompileInvalidSourceReturns422(t *testing.T) {
	s := newTestServer()
	body := `{"source": "fn main( { ###"}`
	w := doRequest(s, http.MethodPost, "/compile", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCompileMalformedJSONReturns400(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodPost, "/compile", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobSubmitAndPoll(t *testing.T) {
	s := newTestServer()
	body := `{"source": "fn main() -> int { let q0: qubit = |0>; H(q0); let c0 = measure(q0); return 0; }"}`
	w := doRequest(s, http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusAccepted, w.Code)

	var submitted struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.ID)

	require.Eventually(t, func() bool {
		poll := doRequest(s, http.MethodGet, "/jobs/"+submitted.ID, "")
		var status struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(poll.Body.Bytes(), &status)
		return status.Status == "succeeded"
	}, time.Second, 5*time.Millisecond)
}

func TestJobGetUnknownReturns404(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/jobs/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
