package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mssola/useragent"

	"github.com/cuetube/cuetube/internal/database"
	"github.com/cuetube/cuetube/internal/geoip"
	"github.com/cuetube/cuetube/internal/httputil"
	"github.com/cuetube/cuetube/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// TypeUserNotFound marks a login attempt against an account that does not
// exist; the frontend styles the username field off this marker.
const TypeUserNotFound = "USER_NOT_FOUND"

type Handler struct {
	db            database.DBTX
	jwtSecret     string
	secureCookies bool
	geo           *geoip.Resolver
}

func NewHandler(db database.DBTX, jwtSecret string, secureCookies bool) *Handler {
	return &Handler{db: db, jwtSecret: jwtSecret, secureCookies: secureCookies}
}

// SetGeoResolver enables country lookups in the login audit trail.
func (h *Handler) SetGeoResolver(geo *geoip.Resolver) {
	h.geo = geo
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []string
	if req.Username == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		httputil.WriteValidationError(w, "Invalid data", missing)
		return
	}

	if msg := validate.Username(req.Username); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	if len(req.Password) < 8 {
		httputil.WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if len(req.Password) > 72 {
		httputil.WriteError(w, http.StatusBadRequest, "password must be at most 72 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	var userID string
	err = h.db.QueryRow(r.Context(),
		"INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id",
		req.Username, string(hashedPassword),
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			httputil.WriteError(w, http.StatusConflict, "username already taken")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(r.Context(), userID, req.Username)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	h.setRefreshTokenCookie(w, refreshToken)
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{AccessToken: accessToken, Username: req.Username})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var userID, hashedPassword string
	err := h.db.QueryRow(r.Context(),
		"SELECT id, password FROM users WHERE username = $1", req.Username,
	).Scan(&userID, &hashedPassword)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteTypedError(w, http.StatusUnauthorized, "user not found", TypeUserNotFound)
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(r.Context(), userID, req.Username)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	h.recordLoginAudit(r, userID)

	h.setRefreshTokenCookie(w, refreshToken)
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, Username: req.Username})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "refresh token not found")
		return
	}

	claims, err := ValidateToken(h.jwtSecret, cookie.Value)
	if err != nil || claims.TokenType != "refresh" || claims.TokenID == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if err := h.validateStoredRefreshToken(r.Context(), claims.UserID, claims.TokenID); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if err := h.revokeRefreshToken(r.Context(), claims.TokenID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to revoke refresh token")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(r.Context(), claims.UserID, claims.Username)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	h.setRefreshTokenCookie(w, refreshToken)
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, Username: claims.Username})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		if claims, err := ValidateToken(h.jwtSecret, cookie.Value); err == nil && claims.TokenType == "refresh" && claims.TokenID != "" {
			_ = h.revokeRefreshToken(r.Context(), claims.TokenID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Middleware authenticates bearer tokens and puts the user identity on the
// request context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := ValidateToken(h.jwtSecret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.TokenType != "access" {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token type")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

// recordLoginAudit stores where and with what the user signed in.
// Best-effort: audit failures never fail the login.
func (h *Handler) recordLoginAudit(r *http.Request, userID string) {
	ip := clientIP(r)
	country := ""
	if h.geo != nil {
		country = h.geo.Country(ip)
	}

	ua := useragent.New(r.UserAgent())
	browserName, browserVersion := ua.Browser()
	browser := strings.TrimSpace(browserName + " " + browserVersion)

	if _, err := h.db.Exec(r.Context(),
		"INSERT INTO login_audit (user_id, ip, country, browser, os) VALUES ($1, $2, $3, $4, $5)",
		userID, ip, country, browser, ua.OS(),
	); err != nil {
		slog.Warn("auth: login audit insert failed", "user_id", userID, "error", err)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *Handler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/api",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(RefreshTokenDuration / time.Second),
	})
}

func (h *Handler) issueTokens(ctx context.Context, userID, username string) (accessToken, refreshToken string, err error) {
	tokenID, err := newTokenID()
	if err != nil {
		return "", "", err
	}

	expiresAt := time.Now().Add(RefreshTokenDuration)
	if _, err := h.db.Exec(ctx,
		"INSERT INTO refresh_tokens (token_id, user_id, expires_at, revoked) VALUES ($1, $2, $3, false)",
		tokenID, userID, expiresAt,
	); err != nil {
		return "", "", err
	}

	accessToken, err = GenerateAccessToken(h.jwtSecret, userID, username)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = GenerateRefreshToken(h.jwtSecret, userID, username, tokenID)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (h *Handler) validateStoredRefreshToken(ctx context.Context, userID, tokenID string) error {
	var revoked bool
	var expiresAt time.Time
	err := h.db.QueryRow(ctx,
		"SELECT revoked, expires_at FROM refresh_tokens WHERE token_id = $1 AND user_id = $2",
		tokenID, userID,
	).Scan(&revoked, &expiresAt)
	if err != nil {
		return err
	}
	if revoked || time.Now().After(expiresAt) {
		return errors.New("token revoked or expired")
	}
	return nil
}

func (h *Handler) revokeRefreshToken(ctx context.Context, tokenID string) error {
	_, err := h.db.Exec(ctx, "UPDATE refresh_tokens SET revoked = true, revoked_at = now() WHERE token_id = $1", tokenID)
	return err
}

func newTokenID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
