// Package checkin issues short-lived codes that resolve to an event, so a
// kiosk can show a scannable link without exposing the owner's session.
package checkin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotConfigured = errors.New("redis_not_configured")
	ErrCodeNotFound  = errors.New("checkin code not found or expired")
)

type Code struct {
	Code      string    `json:"code"`
	EventID   string    `json:"eventId"`
	ScanURL   string    `json:"scanUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Codes struct {
	redis   *redis.Client
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// New returns a code issuer. A nil client yields ErrNotConfigured on use.
func New(client *redis.Client, ttl time.Duration, baseURL string) *Codes {
	return &Codes{
		redis:   client,
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *Codes) Enabled() bool {
	return c != nil && c.redis != nil
}

func (c *Codes) Issue(ctx context.Context, eventID string) (Code, error) {
	if !c.Enabled() {
		return Code{}, ErrNotConfigured
	}
	code, err := randomCode()
	if err != nil {
		return Code{}, err
	}
	if err := c.redis.Set(ctx, codeKey(code), eventID, c.ttl).Err(); err != nil {
		return Code{}, fmt.Errorf("failed to store checkin code: %w", err)
	}
	return Code{
		Code:      code,
		EventID:   eventID,
		ScanURL:   c.scanURL(eventID, code),
		ExpiresAt: c.now().Add(c.ttl),
	}, nil
}

// Resolve returns the event id behind code. Codes stay valid until they
// expire so a whole room can scan the same one.
func (c *Codes) Resolve(ctx context.Context, code string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrCodeNotFound
	}
	eventID, err := c.redis.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load checkin code: %w", err)
	}
	return eventID, nil
}

func (c *Codes) scanURL(eventID, code string) string {
	return fmt.Sprintf("%s/scan/%s?code=%s", c.baseURL, url.PathEscape(eventID), url.QueryEscape(code))
}

func randomCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeKey(code string) string {
	return fmt.Sprintf("checkin_code:%s", code)
}
