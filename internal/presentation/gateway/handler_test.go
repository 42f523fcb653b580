package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

// fakeCaller records the dispatched command and payload and replies with a
// canned result or error.
type fakeCaller struct {
	cmd     string
	payload json.RawMessage
	result  any
	err     error
	calls   int
}

func (f *fakeCaller) Call(ctx context.Context, cmd string, payload any, out any) error {
	f.calls++
	f.cmd = cmd
	if raw, ok := payload.(json.RawMessage); ok {
		f.payload = raw
	} else if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		f.payload = b
	}
	if f.err != nil {
		return f.err
	}
	if out != nil && f.result != nil {
		b, err := json.Marshal(f.result)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, out)
	}
	return nil
}

func (f *fakeCaller) Notify(cmd string, payload any) {}

func newTestHandler(t *testing.T, clients map[string]rpc.Caller) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(rpc.NewStaticRegistry(clients), nil, logger.NewNop())

	router := gin.New()
	router.NoRoute(h.Dispatch)
	return h, router
}

func TestDispatchGetWithID(t *testing.T) {
	item := &fakeCaller{result: map[string]any{"id": 42, "title": "bike"}}
	_, router := newTestHandler(t, map[string]rpc.Caller{"item": item})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/item/get-item/42", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "getItem", item.cmd)
	assert.JSONEq(t, `{"id":"42"}`, string(item.payload))
	assert.JSONEq(t, `{"id":42,"title":"bike"}`, w.Body.String())
}

func TestDispatchPostForwardsBody(t *testing.T) {
	userSvc := &fakeCaller{result: map[string]any{"id": 1}}
	_, router := newTestHandler(t, map[string]rpc.Caller{"user": userSvc})

	body := `{"email":"a@b.cz","password":"secret123","name":"Anna"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/user/create-user", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "createUser", userSvc.cmd)
	assert.JSONEq(t, body, string(userSvc.payload))
}

func TestDispatchEmptyBodyFailsBeforeCall(t *testing.T) {
	userSvc := &fakeCaller{}
	_, router := newTestHandler(t, map[string]rpc.Caller{"user": userSvc})

	for _, body := range []string{"", "{}", "  {}  "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/user/create-user", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, userSvc.calls, "empty bodies must never reach a client")
}

func TestDispatchUnknownService(t *testing.T) {
	_, router := newTestHandler(t, map[string]rpc.Caller{"user": &fakeCaller{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nosuch/get-thing/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchShortPath(t *testing.T) {
	_, router := newTestHandler(t, map[string]rpc.Caller{"user": &fakeCaller{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchMapsTaxonomyCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.NotFound("box not found"), http.StatusNotFound},
		{apperr.Conflict("box cannot be opened"), http.StatusConflict},
		{apperr.BadRequest("invalid id"), http.StatusBadRequest},
		{apperr.Unauthorized("incorrect code"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		boxSvc := &fakeCaller{err: tt.err}
		_, router := newTestHandler(t, map[string]rpc.Caller{"box": boxSvc})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/box/get-box/7", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, tt.status, w.Code, "error %v", tt.err)

		var resp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, apperr.CodeOf(tt.err), resp.Error.Code)
	}
}

func TestCheckTokenMissingCredential(t *testing.T) {
	auth := &fakeCaller{result: true}
	h, _ := newTestHandler(t, map[string]rpc.Caller{"auth": auth})

	router := gin.New()
	router.GET("/check-token", h.CheckToken)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check-token", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", strings.TrimSpace(w.Body.String()))
	assert.Zero(t, auth.calls)
}

func TestCheckTokenForwardsBearer(t *testing.T) {
	auth := &fakeCaller{result: true}
	h, _ := newTestHandler(t, map[string]rpc.Caller{"auth": auth})

	router := gin.New()
	router.GET("/check-token", h.CheckToken)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check-token", nil)
	req.Header.Set("Authorization", "Bearer some.jwt.token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, "checkToken", auth.cmd)
	assert.JSONEq(t, `{"token":"some.jwt.token"}`, string(auth.payload))
}

func TestCheckTokenSwallowsDownstreamFailure(t *testing.T) {
	auth := &fakeCaller{err: apperr.Internal(assert.AnError)}
	h, _ := newTestHandler(t, map[string]rpc.Caller{"auth": auth})

	router := gin.New()
	router.GET("/check-token", h.CheckToken)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check-token", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "some.jwt.token"})
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", strings.TrimSpace(w.Body.String()))
}
