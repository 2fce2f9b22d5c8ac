// Package tokens issues and verifies time-limited password reset tokens
// and encodes user ids for reset links.
//
// A token has the shape "<ts>-<hash>": ts is the issue time in base 36
// seconds since 2001-01-01 UTC, hash is the first 20 hex digits of an
// HMAC-SHA256 over the user's id, password hash, last login, ts and email.
// Any change to the password or a new login invalidates earlier tokens.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

const (
	keySalt    = "crm.tokens.PasswordResetTokenGenerator"
	hashDigits = 20

	// DefaultTimeout is how long a token stays valid when none is configured.
	DefaultTimeout = 72 * time.Hour
)

var epoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator makes and checks password reset tokens.
type Generator struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time
}

// NewGenerator returns a Generator keyed with secret. A non-positive
// timeout falls back to DefaultTimeout.
func NewGenerator(secret string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	key := sha256.Sum256([]byte(keySalt + secret))
	return &Generator{
		key:     key[:],
		timeout: timeout,
		now:     time.Now,
	}
}

// MakeToken returns a reset token for user valid from now.
func (g *Generator) MakeToken(user *models.User) string {
	return g.makeToken(user, g.seconds(g.now()))
}

// CheckToken reports whether token was issued for user by this generator
// and has not expired.
func (g *Generator) CheckToken(user *models.User, token string) bool {
	if user == nil || token == "" {
		return false
	}
	ts36, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(ts36, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	if !hmac.Equal([]byte(g.makeToken(user, ts)), []byte(token)) {
		return false
	}
	return g.seconds(g.now())-ts <= int64(g.timeout/time.Second)
}

func (g *Generator) makeToken(user *models.User, ts int64) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(hashValue(user, ts)))
	sum := hex.EncodeToString(mac.Sum(nil))
	return strconv.FormatInt(ts, 36) + "-" + sum[:hashDigits]
}

func (g *Generator) seconds(t time.Time) int64 {
	return int64(t.Sub(epoch) / time.Second)
}

func hashValue(user *models.User, ts int64) string {
	login := ""
	if user.LastLogin != nil {
		login = user.LastLogin.UTC().Truncate(time.Second).Format(time.RFC3339)
	}
	return fmt.Sprintf("%s%s%s%d%s", user.ID, user.PasswordHash, login, ts, user.Email)
}

// EncodeUID encodes id as unpadded base64url for use in reset links.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeUID reverses EncodeUID. Trailing padding is tolerated.
func DecodeUID(uidb64 string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uidb64, "="))
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode uid: %w", err)
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse uid: %w", err)
	}
	return id, nil
}
