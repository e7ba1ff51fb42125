package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pbkdf2"

	"github.com/hubmatrix/cloudtree/internal/model"
	"github.com/hubmatrix/cloudtree/internal/repository"
)

// GuestPassword is the sentinel that grants an anonymous guest context
// without credential validation. A deliberate anonymous-access
// convention, not an oversight.
const GuestPassword = "+++"

const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLength  = 64
	sessionCookie    = "session_token"
)

var (
	ErrInvalidCredentials = errors.New("invalid address or password")
)

// IdentityService establishes the acting identity for a request: the
// locally logged-in channel (if any) and the visiting observer hash.
// Stateless beyond the request.
type IdentityService struct {
	accounts     repository.AccountRepository
	channels     repository.ChannelRepository
	jwtSecret    string
	jwtExpiry    time.Duration
	isProduction bool
}

func NewIdentityService(accounts repository.AccountRepository, channels repository.ChannelRepository, jwtSecret string, jwtExpiry time.Duration, isProduction bool) *IdentityService {
	return &IdentityService{
		accounts:     accounts,
		channels:     channels,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		isProduction: isProduction,
	}
}

// FromRequest resolves the request's identity. Missing or bad credentials
// never fail the request; they produce an anonymous session.
func (s *IdentityService) FromRequest(r *http.Request) *model.Session {
	sess := &model.Session{}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.fromToken(cookie.Value, sess)
	}

	if sess.Observer == "" {
		if address, password, ok := r.BasicAuth(); ok {
			s.fromBasicAuth(address, password, sess)
		}
	}

	return sess
}

func (s *IdentityService) fromToken(token string, sess *model.Session) {
	claims, err := s.VerifyJWT(token)
	if err != nil {
		return
	}

	id, ok := claims["channel_id"].(float64)
	if !ok {
		return
	}

	ch, err := s.channels.ByID(int64(id))
	if err != nil {
		return
	}

	s.authenticate(sess, ch)
}

func (s *IdentityService) fromBasicAuth(address, password string, sess *model.Session) {
	if strings.TrimSpace(password) == GuestPassword {
		slog.Info("guest access", "address", address)
		return
	}

	ch, err := s.verifyPassword(address, password)
	if err != nil {
		slog.Warn("basic auth failed", "address", address)
		return
	}

	s.authenticate(sess, ch)
}

// authenticate binds a verified channel into the session; the channel
// observes as its own hash.
func (s *IdentityService) authenticate(sess *model.Session, ch *model.Channel) {
	sess.ChannelID = ch.ID
	sess.AccountID = ch.AccountID
	sess.ChannelAddress = ch.Address
	sess.Timezone = ch.Timezone
	sess.Observer = ch.Hash
}

// Login validates an address/password pair for the session endpoint.
func (s *IdentityService) Login(address, password string) (*model.Channel, error) {
	return s.verifyPassword(address, password)
}

func (s *IdentityService) verifyPassword(address, password string) (*model.Channel, error) {
	ch, err := s.channels.ByAddress(strings.TrimSpace(strings.ToLower(address)))
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}

	account, err := s.accounts.ByID(ch.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !account.CanLogin() {
		return nil, ErrInvalidCredentials
	}

	digest := HashPassword(password, account.Salt)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(account.PasswordDigest)) != 1 {
		return nil, ErrInvalidCredentials
	}

	return ch, nil
}

// HashPassword derives the stored digest from a password and salt.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// GenerateSalt returns a fresh random salt for a new account.
func GenerateSalt() (string, error) {
	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *IdentityService) GenerateJWT(ch *model.Channel) (string, error) {
	claims := jwt.MapClaims{
		"channel_id": ch.ID,
		"address":    ch.Address,
		"exp":        time.Now().Add(s.jwtExpiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *IdentityService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *IdentityService) SetSessionCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *IdentityService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *IdentityService) JWTExpiry() time.Duration {
	return s.jwtExpiry
}
