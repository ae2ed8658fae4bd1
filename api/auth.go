package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretLength is the shortest accepted HS256 signing secret.
	MinSecretLength = 32

	tokenIssuer  = "settlementd"
	callerKey    = "caller"
	bearerPrefix = "Bearer "
)

// AuthService issues and validates bearer tokens. A valid token is the
// authenticated channel: its subject is the account every request acts as.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims represents JWT claims
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// NewAuthService creates a token service signing with secret
func NewAuthService(secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{secret: secret, ttl: ttl, now: time.Now}
}

// IssueToken signs a token for addr valid for the configured TTL
func (a *AuthService) IssueToken(addr sdk.AccAddress) (string, time.Time, error) {
	if addr.Empty() {
		return "", time.Time{}, fmt.Errorf("address cannot be empty")
	}
	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := &Claims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses tokenString and returns the caller address it carries
func (a *AuthService) ValidateToken(tokenString string) (sdk.AccAddress, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject != claims.Address {
		return nil, fmt.Errorf("token subject does not match address")
	}
	addr, err := sdk.AccAddressFromBech32(claims.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address claim: %w", err)
	}
	return addr, nil
}

// AuthMiddleware validates bearer tokens and stores the caller address
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authorization header required", "")
			return
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid authorization header format", "")
			return
		}

		caller, err := s.auth.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired token", err.Error())
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// callerAddress returns the authenticated caller set by AuthMiddleware
func callerAddress(c *gin.Context) sdk.AccAddress {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	addr, _ := v.(sdk.AccAddress)
	return addr
}
