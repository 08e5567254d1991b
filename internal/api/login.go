package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginRequest - тело POST /api/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - выданный админ-токен
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin меняет пароль администратора на JWT
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Нужны username и password"})
		return
	}

	if err := rs.creds.Verify(req.Username, req.Password); err != nil {
		rs.logger.Warn("неудачный вход %q с %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, GenericResponse{Success: false, Message: "Неверное имя пользователя или пароль"})
		return
	}

	token, err := rs.signer.Generate(req.Username, true, rs.tokenTTL)
	if err != nil {
		rs.logger.Error("выпуск токена для %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Не удалось выпустить токен"})
		return
	}

	rs.logger.Info("🔑 Вход администратора %s", req.Username)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Вход выполнен",
		Data:    LoginResponse{Token: token, ExpiresAt: time.Now().Add(rs.tokenTTL).UTC()},
	})
}
