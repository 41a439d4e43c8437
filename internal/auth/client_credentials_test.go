package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.OAuthClient{}, &models.OAuthToken{})
	require.NoError(t, err)

	return db
}

// seedClient registers a client owned by an admin account, with the secret
// stored as a bcrypt hash the way registration does it.
func seedClient(t *testing.T, db *gorm.DB, plainSecret string) *models.OAuthClient {
	admin := &models.User{
		Email:     "owner@example.com",
		Password:  "x",
		FirstName: "Owner",
		Role:      models.RoleAdmin,
	}
	require.NoError(t, db.Create(admin).Error)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ID:         "kiosk_01",
		Secret:     string(hashedSecret),
		Name:       "Front counter kiosk",
		Domain:     "http://localhost:8080",
		UserID:     admin.ID,
		Scopes:     "catalog:read orders:read orders:write",
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func tokenRouter(db *gorm.DB) *gin.Engine {
	oauthService := NewOAuthService(db, testJWTSecret)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)
	return router
}

func postToken(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/oauth/token", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	db := setupTestDB(t)
	seedClient(t, db, "test_secret")
	router := tokenRouter(db)

	// The plaintext secret is verified against the stored bcrypt hash
	w := postToken(router, "grant_type=client_credentials&client_id=kiosk_01&client_secret=test_secret")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	assert.Contains(t, response, "access_token")
	assert.Equal(t, "Bearer", response["token_type"])
	assert.Equal(t, "catalog:read orders:read orders:write", response["scope"])

	// The access token is a JWT carrying the owning admin's identity, so the
	// same middleware that guards customer logins accepts it
	accessToken := response["access_token"].(string)
	parsed, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "kiosk_01", claims["aud"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
	assert.NotEmpty(t, claims["uid"])
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	db := setupTestDB(t)
	seedClient(t, db, "correct_secret")
	router := tokenRouter(db)

	w := postToken(router, "grant_type=client_credentials&client_id=kiosk_01&client_secret=wrong_secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCredentialsUnknownClient(t *testing.T) {
	db := setupTestDB(t)
	router := tokenRouter(db)

	w := postToken(router, "grant_type=client_credentials&client_id=ghost&client_secret=whatever")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnsupportedGrantTypeRejected(t *testing.T) {
	db := setupTestDB(t)
	seedClient(t, db, "test_secret")
	router := tokenRouter(db)

	w := postToken(router, "grant_type=authorization_code&client_id=kiosk_01&client_secret=test_secret&code=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, models.ErrUnsupportedGrantType, response["error"])
}
