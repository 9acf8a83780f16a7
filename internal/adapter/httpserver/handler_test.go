package httpserver

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/magicaleks/freq-server/internal/domain"
	"github.com/magicaleks/freq-server/internal/infra/frequency"
	"github.com/magicaleks/freq-server/internal/infra/ratelimit"
	"github.com/magicaleks/freq-server/internal/usecase/dispatch"
	"github.com/magicaleks/freq-server/internal/usecase/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basePath = "/freq_server"

	// javaDefaultAccept is what HttpURLConnection sends when the caller sets no Accept header.
	javaDefaultAccept = "text/html, image/gif, image/jpeg, *; q=.2, */*; q=.2"
	acceptJSON        = "application/json"
)

func newTestRouter(t *testing.T, limiter *ratelimit.Store) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := lifecycle.NewGate(frequency.NewPool([]int{10, 11, 12}), logger)
	api := NewAPI(dispatch.NewDispatcher(gate, logger), gate, logger)
	return NewRouter(api, Options{BasePath: basePath, Limiter: limiter}, logger)
}

func do(t *testing.T, router http.Handler, method, op, body, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, basePath+"/"+op, strings.NewReader(body))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeXML(t *testing.T, rec *httptest.ResponseRecorder) domain.Response {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	var resp domain.Response
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) domain.Response {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// legacyCall posts the way the JAXB client does: HttpURLConnection's default
// Accept header, XML envelope expected back.
func legacyCall(t *testing.T, router http.Handler, op, body string) domain.Response {
	t.Helper()
	return decodeXML(t, do(t, router, http.MethodPost, op, body, javaDefaultAccept))
}

func assertNormalResponse(t *testing.T, resp domain.Response) {
	t.Helper()
	assert.Equal(t, domain.ResponseOK, resp.State)
	assert.Empty(t, resp.Error)
	assert.Nil(t, resp.Result)
}

func assertResultResponse(t *testing.T, resp domain.Response) int {
	t.Helper()
	assert.Equal(t, domain.ResponseOK, resp.State)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Result)
	return resp.Result.FrequencyAllocated
}

func assertErrorResponse(t *testing.T, resp domain.Response, want domain.ErrorType) {
	t.Helper()
	assert.Equal(t, domain.ResponseError, resp.State)
	require.Len(t, resp.Error, 1)
	assert.Equal(t, want, resp.Error[0].ErrorType)
	assert.Nil(t, resp.Result)
}

func TestAPI_XMLByDefault(t *testing.T) {
	for _, accept := range []string{"", javaDefaultAccept, "*/*", "text/html", "application/xml", "text/xml"} {
		t.Run("accept="+accept, func(t *testing.T) {
			router := newTestRouter(t, nil)
			resp := decodeXML(t, do(t, router, http.MethodPost, "StartServer", "", accept))
			assertNormalResponse(t, resp)
		})
	}
}

func TestAPI_LegacyStartStop(t *testing.T) {
	router := newTestRouter(t, nil)

	assertNormalResponse(t, legacyCall(t, router, "StartServer", ""))
	assertNormalResponse(t, legacyCall(t, router, "StopServer", ""))
}

func TestAPI_LegacyStartStartStopStop(t *testing.T) {
	router := newTestRouter(t, nil)

	assertNormalResponse(t, legacyCall(t, router, "StartServer", ""))
	assertErrorResponse(t, legacyCall(t, router, "StartServer", ""), domain.ErrorAlreadyStarted)
	assertNormalResponse(t, legacyCall(t, router, "StopServer", ""))
	assertErrorResponse(t, legacyCall(t, router, "StopServer", ""), domain.ErrorNotRunning)
}

func TestAPI_LegacyStartAllocateDeallocateStop(t *testing.T) {
	router := newTestRouter(t, nil)

	assertNormalResponse(t, legacyCall(t, router, "StartServer", ""))
	f := assertResultResponse(t, legacyCall(t, router, "AllocateFrequency", ""))
	assertNormalResponse(t, legacyCall(t, router, "DeallocateFrequency", strconv.Itoa(f)))
	assertNormalResponse(t, legacyCall(t, router, "StopServer", ""))
}

func TestAPI_LegacyBadDeallocateStop(t *testing.T) {
	router := newTestRouter(t, nil)

	assertErrorResponse(t, legacyCall(t, router, "DeallocateFrequency", "2"), domain.ErrorNotRunning)
	assertNormalResponse(t, legacyCall(t, router, "StartServer", ""))
	assertErrorResponse(t, legacyCall(t, router, "DeallocateFrequency", "two"), domain.ErrorWrongRequest)
	f := assertResultResponse(t, legacyCall(t, router, "AllocateFrequency", ""))
	assertErrorResponse(t, legacyCall(t, router, "DeallocateFrequency", "2"), domain.ErrorNotAllocated)
	assertNormalResponse(t, legacyCall(t, router, "DeallocateFrequency", strconv.Itoa(f)))
	assertErrorResponse(t, legacyCall(t, router, "DeallocateFrequency", strconv.Itoa(f)), domain.ErrorNotAllocated)
	assertNormalResponse(t, legacyCall(t, router, "StopServer", ""))
}

func TestAPI_XMLShape(t *testing.T) {
	router := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "StartServer", "", "")

	rec := do(t, router, http.MethodPost, "AllocateFrequency", "", "")
	body := rec.Body.String()
	assert.Contains(t, body, "<freqServerResponse>")
	assert.Contains(t, body, "<state>OK</state>")
	assert.Contains(t, body, "<result><frequencyAllocated>10</frequencyAllocated></result>")
	assert.NotContains(t, body, "<error>")

	rec = do(t, router, http.MethodPost, "StartServer", "", "")
	assert.Contains(t, rec.Body.String(), "<error><errorType>ALREADY_STARTED</errorType></error>")
	assert.NotContains(t, rec.Body.String(), "<result>")
}

func TestAPI_JSONWhenRequested(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "StartServer", "", acceptJSON)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"state":"OK","error":[]}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "AllocateFrequency", "", acceptJSON)
	assert.JSONEq(t, `{"state":"OK","error":[],"result":{"frequencyAllocated":10}}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "StartServer", "", "application/json, */*")
	assert.JSONEq(t, `{"state":"ERROR","error":[{"errorType":"ALREADY_STARTED"}]}`, rec.Body.String())
}

func TestAPI_DomainErrorsAreHTTP200(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := decodeJSON(t, do(t, router, http.MethodPost, "StopServer", "", acceptJSON))
	assert.Equal(t, domain.ErrorNotRunning, resp.ErrorType())

	resp = decodeJSON(t, do(t, router, http.MethodPost, "DeallocateFrequency", "two", acceptJSON))
	assert.Equal(t, domain.ErrorNotRunning, resp.ErrorType())

	decodeJSON(t, do(t, router, http.MethodPost, "StartServer", "", acceptJSON))
	resp = decodeJSON(t, do(t, router, http.MethodPost, "DeallocateFrequency", "two", acceptJSON))
	assert.Equal(t, domain.ErrorWrongRequest, resp.ErrorType())
	resp = decodeJSON(t, do(t, router, http.MethodPost, "DeallocateFrequency", "2", acceptJSON))
	assert.Equal(t, domain.ErrorNotAllocated, resp.ErrorType())
}

func TestAPI_GetForParameterlessOperations(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := decodeXML(t, do(t, router, http.MethodGet, "StartServer", "", ""))
	assert.True(t, resp.IsOK())

	rec := do(t, router, http.MethodGet, "DeallocateFrequency", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_UnknownOperation(t *testing.T) {
	router := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "RebootServer", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "startserver", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "Status", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "RebootServer", "", "").Code)
}

func TestAPI_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "StartServer", "", "")

	rec := do(t, router, http.MethodPost, "DeallocateFrequency", strings.Repeat("1", maxBodyBytes+1), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAPI_Status(t *testing.T) {
	router := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "StartServer", "", "")
	do(t, router, http.MethodPost, "AllocateFrequency", "", "")

	rec := do(t, router, http.MethodGet, "Status", "", acceptJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.StateRunning, snap.State)
	assert.Equal(t, []int{10}, snap.Allocated)
	assert.Equal(t, 3, snap.Capacity)
	assert.Equal(t, 2, snap.Available)
}

func TestAPI_StatusXML(t *testing.T) {
	router := newTestRouter(t, nil)
	do(t, router, http.MethodPost, "StartServer", "", "")
	do(t, router, http.MethodPost, "AllocateFrequency", "", "")

	rec := do(t, router, http.MethodGet, "Status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<freqServerStatus>"), rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<allocated><frequency>10</frequency></allocated>")

	var snap domain.Snapshot
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.StateRunning, snap.State)
	assert.Equal(t, []int{10}, snap.Allocated)
}

func TestAPI_Ping(t *testing.T) {
	router := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestAPI_RequestID(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, http.MethodPost, "StartServer", "", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodPost, basePath+"/StopServer", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestAPI_RateLimit(t *testing.T) {
	router := newTestRouter(t, ratelimit.NewStore(0.01, 1))

	rec := do(t, router, http.MethodPost, "StartServer", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "StopServer", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAPI_RateLimitIgnoresForwardedFor(t *testing.T) {
	router := newTestRouter(t, ratelimit.NewStore(0.01, 1))

	post := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, basePath+"/StartServer", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("10.0.0.2"))
}
