package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/arunvm123/eventease/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

const (
	sessionContextKey = "session"
	csrfFormField     = "csrf_token"
)

// SessionService issues and validates the signed session cookie
type SessionService struct {
	signingKey []byte
	cookieName string
	secure     bool
	maxAge     time.Duration
}

func NewSessionService(cfg *config.Session) (*SessionService, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("eventease session signing"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}

	return &SessionService{
		signingKey: key,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		maxAge:     time.Duration(cfg.MaxAgeHours) * time.Hour,
	}, nil
}

// SessionClaims represents the session cookie claims
type SessionClaims struct {
	CSRFToken string `json:"csrf"`
	jwt.RegisteredClaims
}

// Session is the per-request view of the cookie
type Session struct {
	ID        string
	CSRFToken string
}

func (s *SessionService) newSession() (*Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.New().String(),
		CSRFToken: base64.RawURLEncoding.EncodeToString(buf),
	}, nil
}

func (s *SessionService) sign(session *Session) (string, error) {
	claims := SessionClaims{
		CSRFToken: session.CSRFToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.maxAge)),
			Issuer:    "eventease",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

func (s *SessionService) parse(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.CSRFToken == "" {
		return nil, jwt.ErrSignatureInvalid
	}
	return &Session{ID: claims.Subject, CSRFToken: claims.CSRFToken}, nil
}

// SessionMiddleware loads the session cookie, issuing a fresh one when it is
// missing or invalid.
func SessionMiddleware(sessions *SessionService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var session *Session
		if raw, err := c.Cookie(sessions.cookieName); err == nil {
			session, _ = sessions.parse(raw)
		}

		if session == nil {
			fresh, err := sessions.newSession()
			if err != nil {
				log.WithError(err).Error("Failed to create session")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			signed, err := sessions.sign(fresh)
			if err != nil {
				log.WithError(err).Error("Failed to sign session")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessions.cookieName, signed, int(sessions.maxAge.Seconds()), "/", "", sessions.secure, true)
			session = fresh
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// CSRFMiddleware rejects unsafe requests whose csrf_token form field does
// not match the session.
func CSRFMiddleware(maxMemory int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if err := c.Request.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.String(http.StatusRequestEntityTooLarge, "request body too large")
			} else {
				c.String(http.StatusBadRequest, "malformed form data")
			}
			c.Abort()
			return
		}

		session := currentSession(c)
		submitted := c.PostForm(csrfFormField)
		if session == nil || submitted == "" ||
			subtle.ConstantTimeCompare([]byte(submitted), []byte(session.CSRFToken)) != 1 {
			c.String(http.StatusForbidden, "invalid anti-forgery token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func currentSession(c *gin.Context) *Session {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	session, _ := value.(*Session)
	return session
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Info("request handled")
	}
}

// Metrics holds the HTTP collectors of one router
type Metrics struct {
	Registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.Registry.MustRegister(m.requests, m.duration, collectors.NewGoCollector())
	return m
}

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// BodyLimitMiddleware caps request bodies
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
