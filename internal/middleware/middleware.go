package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
)

// identity is what a validated token asserts about its caller
type identity struct {
	UserID   uint
	Role     string
	ClientID string
	Scopes   string
}

// JWTAuth validates a Bearer JWT and places the caller's identity in the gin
// context (userID, userRole). Storefront logins and OAuth2 client-credentials
// tokens carry the same uid/role claims, so one middleware covers both.
func JWTAuth(jwtSecret []byte) gin.HandlerFunc {
	// Signing method is pinned to HMAC to rule out alg-confusion tokens.
	// HS256 comes from /auth/login, HS512 from the OAuth2 token endpoint.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS512"}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization_required",
				"Missing Authorization header. A valid Bearer token is required.")
			return
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "invalid_request",
				"Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
			return
		}

		token, err := parser.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		})
		if err != nil {
			abortUnauthorized(c, "invalid_token", err.Error())
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid_token", "invalid token claims format")
			return
		}

		id, err := identityFromClaims(claims)
		if err != nil {
			abortUnauthorized(c, "invalid_token", err.Error())
			return
		}

		c.Set("userID", id.UserID)
		c.Set("userRole", id.Role)
		if id.ClientID != "" {
			c.Set("clientID", id.ClientID)
		}
		if id.Scopes != "" {
			c.Set("scopes", id.Scopes)
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, errorCode, description string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":             errorCode,
		"error_description": description,
	})
	c.Abort()
}

// identityFromClaims requires uid and role; aud and scope mark tokens minted
// for an OAuth2 client and ride along when present.
func identityFromClaims(claims jwt.MapClaims) (identity, error) {
	var id identity

	userID, err := parseUIDClaim(claims["uid"])
	if err != nil {
		return id, err
	}
	id.UserID = userID

	role, _ := claims["role"].(string)
	switch role {
	case models.RoleAdmin, models.RoleCustomer:
		id.Role = role
	case "":
		return id, fmt.Errorf("token missing required 'role' claim")
	default:
		return id, fmt.Errorf("invalid role %q, allowed roles: %s, %s", role, models.RoleAdmin, models.RoleCustomer)
	}

	switch aud := claims["aud"].(type) {
	case string:
		id.ClientID = aud
	case []interface{}:
		if len(aud) > 0 {
			id.ClientID, _ = aud[0].(string)
		}
	}
	id.Scopes, _ = claims["scope"].(string)

	return id, nil
}

// parseUIDClaim accepts a numeric string (OAuth2 tokens) or a JSON number
// (login tokens)
func parseUIDClaim(raw interface{}) (uint, error) {
	switch uid := raw.(type) {
	case string:
		parsed, err := strconv.ParseUint(uid, 10, 32)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("invalid uid claim: %q", uid)
		}
		return uint(parsed), nil
	case float64:
		if uid <= 0 {
			return 0, fmt.Errorf("invalid uid claim: must be positive, got %f", uid)
		}
		return uint(uid), nil
	}
	return 0, fmt.Errorf("token missing required 'uid' claim")
}
