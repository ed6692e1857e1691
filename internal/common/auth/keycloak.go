package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"approved-premises-workers/internal/common/errors"
	commonhttp "approved-premises-workers/internal/common/http"
)

// KeycloakClient introspects bearer tokens presented to the assessment API.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *commonhttp.Client
}

// TokenInfo holds the fields of the introspection response the API relies on.
type TokenInfo struct {
	Active            bool     `json:"active"`
	Scope             string   `json:"scope,omitempty"`
	ClientID          string   `json:"client_id,omitempty"`
	Username          string   `json:"username,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	TokenType         string   `json:"token_type,omitempty"`
	Exp               int64    `json:"exp,omitempty"`
	Iat               int64    `json:"iat,omitempty"`
	Sub               string   `json:"sub,omitempty"`
	Aud               []string `json:"aud,omitempty"`
	Iss               string   `json:"iss,omitempty"`
	AuthSource        string   `json:"auth_source,omitempty"`
}

// DeliusUsername is the username the user record is keyed by, upper-cased as
// Delius stores it.
func (t *TokenInfo) DeliusUsername() string {
	name := t.PreferredUsername
	if name == "" {
		name = t.Username
	}
	return strings.ToUpper(name)
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   commonhttp.NewClient(10*time.Second, "approved-premises-workers"),
	}
}

// ValidateToken checks that an access token is active.
func (k *KeycloakClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	if token == "" {
		return nil, errors.NewTokenInvalidError("no bearer token supplied")
	}

	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	resp, err := k.httpClient.PostForm(ctx, introspectURL, data)
	if err != nil {
		return nil, errors.NewIdentityUnavailableError(fmt.Errorf("send introspection request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		stdErr := errors.NewIdentityUnavailableError(fmt.Errorf("introspection returned %d: %s", resp.StatusCode, string(body)))
		stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return nil, stdErr
	}

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.NewIdentityUnavailableError(fmt.Errorf("decode introspection response: %w", err))
	}

	if !tokenInfo.Active {
		return nil, errors.NewTokenInvalidError("the access token is expired, revoked or malformed")
	}

	return &tokenInfo, nil
}

func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
