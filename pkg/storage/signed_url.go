package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedToken = errors.New("storage: malformed download token")
	ErrBadSignature   = errors.New("storage: invalid download token signature")
	ErrTokenExpired   = errors.New("storage: download token expired")
)

// Grant is the content of a download token.
type Grant struct {
	JobID     string
	File      string
	ExpiresAt time.Time
}

// Signer issues HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(file).signature.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a signer. A non-positive ttl defaults to 24 hours.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign issues a token granting access to file for jobID.
func (s *Signer) Sign(jobID, file string) (string, Grant, error) {
	if jobID == "" || file == "" || strings.Contains(jobID, ".") {
		return "", Grant{}, ErrMalformedToken
	}
	if len(s.secret) == 0 {
		return "", Grant{}, errors.New("storage: signing secret missing")
	}
	exp := s.now().Add(s.ttl).Unix()
	body := jobID + "." + strconv.FormatInt(exp, 10) + "." + base64.RawURLEncoding.EncodeToString([]byte(file))
	return body + "." + s.mac(body), Grant{JobID: jobID, File: file, ExpiresAt: time.Unix(exp, 0)}, nil
}

// Verify checks the signature and, unless allowExpired, the expiry.
func (s *Signer) Verify(token string, allowExpired bool) (Grant, error) {
	idx := strings.LastIndexByte(token, '.')
	if idx <= 0 {
		return Grant{}, ErrMalformedToken
	}
	body, sig := token[:idx], token[idx+1:]
	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return Grant{}, ErrMalformedToken
	}
	if !hmac.Equal([]byte(s.mac(body)), []byte(sig)) {
		return Grant{}, ErrBadSignature
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Grant{}, ErrMalformedToken
	}
	file, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Grant{}, ErrMalformedToken
	}
	g := Grant{JobID: parts[0], File: string(file), ExpiresAt: time.Unix(exp, 0)}
	if !allowExpired && s.now().After(g.ExpiresAt) {
		return g, ErrTokenExpired
	}
	return g, nil
}

func (s *Signer) mac(body string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(body))
	return hex.EncodeToString(m.Sum(nil))
}
