package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/weblog/internal/config"
	"github.com/weblog/internal/logger"
)

// Micropub error codes.
const (
	MicropubUnauthorized      = "unauthorized"
	MicropubForbidden         = "forbidden"
	MicropubInsufficientScope = "insufficient_scope"
	MicropubInvalidRequest    = "invalid_request"
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenInfo 是令牌校验端点返回的身份与权限。
type TokenInfo struct {
	Me       string `json:"me"`
	Scope    string `json:"scope"`
	ClientID string `json:"client_id,omitempty"`
	IssuedBy string `json:"issued_by,omitempty"`
}

// HasScope reports whether the space separated scope list contains name.
func (t TokenInfo) HasScope(name string) bool {
	for _, scope := range strings.Fields(t.Scope) {
		if scope == name {
			return true
		}
	}
	return false
}

// AuthResult is the outcome of authorizing a Micropub request.
type AuthResult struct {
	Authorized bool
	Status     int
	Code       string
	Reason     string
	Token      *TokenInfo
}

func denied(status int, code, reason string) AuthResult {
	return AuthResult{Status: status, Code: code, Reason: reason}
}

// Authorizer checks bearer tokens against an IndieAuth token endpoint.
type Authorizer struct {
	client      httpDoer
	tokenURL    string
	me          string
	bypass      string
	allowBypass bool
}

// NewAuthorizer creates an Authorizer from the application config.
func NewAuthorizer(cfg *config.AppConfig) *Authorizer {
	return &Authorizer{
		client:      &http.Client{Timeout: 15 * time.Second},
		tokenURL:    cfg.IndieAuthTokenURL,
		me:          cfg.IndieAuthMe,
		bypass:      cfg.IndieAuthBypassSecret,
		allowBypass: !cfg.IsProduction(),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (a *Authorizer) SetHTTPClient(client httpDoer) {
	if client == nil {
		a.client = &http.Client{Timeout: 15 * time.Second}
		return
	}
	a.client = client
}

// BearerToken extracts the token from the Authorization header, falling back
// to the access_token field of form and multipart bodies.
func BearerToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return ""
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return ""
		}
	default:
		return ""
	}
	return strings.TrimSpace(r.PostFormValue("access_token"))
}

// Authorize validates the request's token. The result is never an error: every
// failure is described by Status, Code and Reason.
func (a *Authorizer) Authorize(ctx context.Context, r *http.Request) AuthResult {
	token := BearerToken(r)
	if token == "" {
		logger.Log.Info("micropub permission denied: no auth token")
		return denied(http.StatusUnauthorized, MicropubUnauthorized, "no access token")
	}

	if a.allowBypass && a.bypass != "" && token == a.bypass {
		logger.Log.Debug("micropub authorized with bypass secret")
		return AuthResult{Authorized: true, Token: &TokenInfo{Me: a.me, Scope: "create media"}}
	}

	info, status, err := a.introspect(ctx, token)
	if err != nil {
		logger.ErrorWithFields("micropub token endpoint failed", logger.Fields{"error": err.Error(), "status": status})
		return denied(http.StatusUnauthorized, MicropubUnauthorized, "token could not be verified")
	}

	if normalizeMe(info.Me) != normalizeMe(a.me) {
		logger.InfoWithFields("micropub permission denied", logger.Fields{"me": info.Me})
		return denied(http.StatusForbidden, MicropubForbidden, "token belongs to another identity")
	}
	if !info.HasScope("create") {
		logger.InfoWithFields("micropub permission denied, lacking create scope", logger.Fields{"scope": info.Scope})
		return denied(http.StatusForbidden, MicropubInsufficientScope, "create scope is required")
	}

	logger.InfoWithFields("micropub authorized", logger.Fields{"me": info.Me})
	return AuthResult{Authorized: true, Token: info}
}

func (a *Authorizer) introspect(ctx context.Context, token string) (*TokenInfo, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.tokenURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var info TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode token response: %w", err)
	}
	return &info, resp.StatusCode, nil
}

func normalizeMe(me string) string {
	return strings.TrimRight(strings.TrimSpace(me), "/")
}
