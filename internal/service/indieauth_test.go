package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/config"
)

type stubDoer struct {
	status   int
	body     string
	err      error
	requests []*http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     http.Header{"Content-Type": {"application/json"}},
	}, nil
}

func newTestAuthorizer(environment string, doer httpDoer) *Authorizer {
	auth := NewAuthorizer(&config.AppConfig{
		Environment:           environment,
		IndieAuthMe:           "https://example.com/",
		IndieAuthTokenURL:     "https://tokens.example.net/token",
		IndieAuthBypassSecret: "let-me-in",
	})
	auth.SetHTTPClient(doer)
	return auth
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/micropub", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthorizeMissingToken(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK}
	result := newTestAuthorizer(config.EnvironmentProduction, doer).Authorize(context.Background(), bearerRequest(""))

	assert.False(t, result.Authorized)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	assert.Empty(t, doer.requests, "token endpoint must not be called")
}

func TestAuthorizeBypassOnlyOutsideProduction(t *testing.T) {
	doer := &stubDoer{status: http.StatusUnauthorized}

	staging := newTestAuthorizer(config.EnvironmentStaging, doer).Authorize(context.Background(), bearerRequest("let-me-in"))
	assert.True(t, staging.Authorized)
	assert.Equal(t, "https://example.com/", staging.Token.Me)
	assert.Empty(t, doer.requests)

	production := newTestAuthorizer(config.EnvironmentProduction, doer).Authorize(context.Background(), bearerRequest("let-me-in"))
	assert.False(t, production.Authorized)
	assert.Equal(t, http.StatusUnauthorized, production.Status)
	assert.Len(t, doer.requests, 1)
}

func TestAuthorizeTokenEndpointOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		doer       *stubDoer
		authorized bool
		status     int
		code       string
	}{
		{"success", &stubDoer{status: http.StatusOK, body: `{"me":"https://example.com","scope":"create update"}`}, true, 0, ""},
		{"endpoint rejects", &stubDoer{status: http.StatusBadRequest, body: `{"error":"invalid"}`}, false, http.StatusUnauthorized, MicropubUnauthorized},
		{"transport error", &stubDoer{err: errors.New("dial tcp: refused")}, false, http.StatusUnauthorized, MicropubUnauthorized},
		{"other identity", &stubDoer{status: http.StatusOK, body: `{"me":"https://intruder.example/","scope":"create"}`}, false, http.StatusForbidden, MicropubForbidden},
		{"missing scope", &stubDoer{status: http.StatusOK, body: `{"me":"https://example.com/","scope":"update media"}`}, false, http.StatusForbidden, MicropubInsufficientScope},
		{"scope substring", &stubDoer{status: http.StatusOK, body: `{"me":"https://example.com/","scope":"created"}`}, false, http.StatusForbidden, MicropubInsufficientScope},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := newTestAuthorizer(config.EnvironmentProduction, tc.doer).Authorize(context.Background(), bearerRequest("abc"))
			assert.Equal(t, tc.authorized, result.Authorized)
			assert.Equal(t, tc.status, result.Status)
			assert.Equal(t, tc.code, result.Code)
		})
	}
}

func TestAuthorizeForwardsTokenHeaders(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{"me":"https://example.com/","scope":"create"}`}
	result := newTestAuthorizer(config.EnvironmentProduction, doer).Authorize(context.Background(), bearerRequest("abc"))
	require.True(t, result.Authorized)

	require.Len(t, doer.requests, 1)
	sent := doer.requests[0]
	assert.Equal(t, "https://tokens.example.net/token", sent.URL.String())
	assert.Equal(t, "Bearer abc", sent.Header.Get("Authorization"))
	assert.Equal(t, "application/json", sent.Header.Get("Accept"))
}

func TestBearerTokenFromFormField(t *testing.T) {
	form := url.Values{"access_token": {"form-token"}, "content": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/micropub", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "form-token", BearerToken(req))

	jsonReq := httptest.NewRequest(http.MethodPost, "/micropub", strings.NewReader(`{"access_token":"nope"}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	assert.Empty(t, BearerToken(jsonReq))
}

func TestAuthorizeIgnoresNonBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/micropub", nil)
	req.Header.Set("Authorization", "Basic x")
	assert.Empty(t, BearerToken(req))

	doer := &stubDoer{status: http.StatusOK}
	result := newTestAuthorizer(config.EnvironmentProduction, doer).Authorize(context.Background(), req)
	assert.False(t, result.Authorized)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	assert.Empty(t, doer.requests)
}
