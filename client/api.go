package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meetsync/domain"
	"meetsync/protocol"
)

// APIClient talks to the static CRUD surface. The session uses it for
// the Live snapshot; the terminal client also registers and creates
// meetings through it.
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	userID string
	token  string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithCredentials sets the bearer pair sent as "userId##secret".
func (c *APIClient) WithCredentials(userID, token string) *APIClient {
	c.userID = userID
	c.token = token
	return c
}

type Credentials struct {
	UserID     string
	Token      string
	Expiration time.Time
}

// Register creates an anonymous account and adopts its credentials.
func (c *APIClient) Register(ctx context.Context) (Credentials, error) {
	var resp struct {
		ID    string `json:"id"`
		Token struct {
			Token      string `json:"token"`
			Expiration int64  `json:"expiration"`
		} `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, &resp); err != nil {
		return Credentials{}, err
	}

	c.userID = resp.ID
	c.token = resp.Token.Token
	return Credentials{
		UserID:     resp.ID,
		Token:      resp.Token.Token,
		Expiration: time.UnixMilli(resp.Token.Expiration).UTC(),
	}, nil
}

func (c *APIClient) CreateMeeting(ctx context.Context) (domain.Meeting, error) {
	var resp protocol.Meeting
	if err := c.do(ctx, http.MethodPost, "/api/meetings", nil, &resp); err != nil {
		return domain.Meeting{}, err
	}
	return resp.ToDomain(), nil
}

func (c *APIClient) GetMeeting(ctx context.Context, meetingID string) (domain.Meeting, error) {
	var resp protocol.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/meetings/"+meetingID, nil, &resp); err != nil {
		return domain.Meeting{}, err
	}
	return resp.ToDomain(), nil
}

func (c *APIClient) UpdateProfile(ctx context.Context, name, email string) (domain.User, error) {
	body := map[string]string{"name": name, "email": email}
	var resp struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/users/me", body, &resp); err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: domain.UserID(resp.ID), Name: resp.Name, Email: resp.Email}, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, dest any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set("Authorization", c.userID+"##"+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
