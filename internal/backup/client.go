package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"nutrition-planner/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenAudience = "nutrition-planner-backup"
	tokenTTL      = 5 * time.Minute
	maxBackupSize = 32 << 20
)

// ErrRemoteNotFound is returned by Pull when the endpoint has no backup for the user.
var ErrRemoteNotFound = errors.New("no remote backup")

// Client talks to the cloud backup endpoint.
type Client interface {
	Push(ctx context.Context, userID string, data []byte) error
	Pull(ctx context.Context, userID string) ([]byte, error)
}

// httpClient is the concrete implementation of the backup Client.
type httpClient struct {
	httpClient *http.Client
	baseURL    string
	secret     []byte
}

// NewClient creates a backup client, or returns nil when no endpoint is configured.
func NewClient(cfg *config.Config) Client {
	if cfg.BackupURL == "" {
		return nil
	}
	return &httpClient{
		httpClient: &http.Client{Timeout: cfg.BackupTimeout},
		baseURL:    cfg.BackupURL,
		secret:     []byte(cfg.BackupSecret),
	}
}

func (c *httpClient) backupURL(userID string) string {
	return fmt.Sprintf("%s/backups/%s", c.baseURL, url.PathEscape(userID))
}

// Push uploads a snapshot, replacing the remote copy.
func (c *httpClient) Push(ctx context.Context, userID string, data []byte) error {
	token, err := CreateToken(c.secret, userID)
	if err != nil {
		return fmt.Errorf("failed to create backup token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.backupURL(userID), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backup api error: status %d, body: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

// Pull downloads the remote snapshot.
func (c *httpClient) Pull(ctx context.Context, userID string) ([]byte, error) {
	token, err := CreateToken(c.secret, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backupURL(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrRemoteNotFound
	default:
		return nil, fmt.Errorf("backup api error: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBackupSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// CreateToken generates a short-lived JWT scoped to one user's backups.
func CreateToken(secret []byte, userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	return token.SignedString(secret)
}

// VerifyToken checks a token created by CreateToken and returns its user.
func VerifyToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}, jwt.WithAudience(tokenAudience), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid backup token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid backup token")
	}
	return claims.Subject, nil
}
