package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/showtime-inventory-bench/internal/config"
	"github.com/iliyamo/showtime-inventory-bench/internal/utils"
)

// AuthHandler issues operator tokens. There is a single operator identity
// whose bcrypt password hash comes from OPERATOR_PASSWORD_HASH.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

// ----- DTOs -----

type tokenReq struct {
	Password string `json:"password" validate:"required"`
}
type tokenResp struct {
	Access utils.AccessToken `json:"access"`
	Role   string            `json:"role"`
}

// operatorSubject is the sub claim of every operator token.
const operatorSubject = "operator"

// Token: POST /v1/auth/token with {"password": "..."}.
func (h *AuthHandler) Token(c echo.Context) error {
	if !h.Cfg.AuthEnabled() || h.Cfg.OperatorPasswordHash == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":   "auth_disabled",
			"message": "operator authentication is not configured",
		})
	}
	var req tokenReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if !utils.VerifyPassword(h.Cfg.OperatorPasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, operatorSubject, utils.RoleOperator, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "could not sign token"})
	}
	return c.JSON(http.StatusOK, tokenResp{Access: tok, Role: utils.RoleOperator})
}
