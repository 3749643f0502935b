package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/padelpoint/tournament-engine/services"
	"github.com/padelpoint/tournament-engine/utils"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	adminPasswordHash string
	jwtSecret         []byte
	logger            *slog.Logger
}

func NewAuthHandler(adminPasswordHash, jwtSecret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         []byte(jwtSecret),
		logger:            logger,
	}
}

// Token exchanges the admin password for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if !utils.CheckPasswordHash(input.Password, h.adminPasswordHash) {
		mapServiceErrorToHTTP(w, h.logger, services.ErrInvalidCredentials)
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, jsonResponse{"token": token, "expires_in": int(tokenTTL.Seconds())})
}
