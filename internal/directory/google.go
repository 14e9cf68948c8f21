package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const userInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// IdentityResolver exchanges an external provider token for the account email
// it belongs to. The auth core then maps that email to a local user.
type IdentityResolver interface {
	ResolveEmail(ctx context.Context, accessToken string) (string, error)
}

// GoogleResolver resolves identities through the Google userinfo endpoint.
type GoogleResolver struct {
	client   *http.Client
	endpoint string
}

func NewGoogleResolver() *GoogleResolver {
	return &GoogleResolver{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: userInfoEndpoint,
	}
}

// NewGoogleResolverWithEndpoint is used by tests to point at a stub server.
func NewGoogleResolverWithEndpoint(client *http.Client, endpoint string) *GoogleResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleResolver{client: client, endpoint: endpoint}
}

func (g *GoogleResolver) ResolveEmail(ctx context.Context, accessToken string) (string, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", errors.New("access token is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode user info: %w", err)
	}
	if strings.TrimSpace(info.Email) == "" {
		return "", errors.New("user info has no email")
	}
	return strings.ToLower(strings.TrimSpace(info.Email)), nil
}
