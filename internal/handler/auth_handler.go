package handler

import (
	"net/http"

	"toolcrib/internal/middleware"
	"toolcrib/internal/service"
	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		auth.GET("/me", middleware.RequireAuth(), h.Me)
		auth.GET("/session", middleware.RequireAuth(), h.SessionState)
		auth.POST("/session/activity", middleware.RequireAuth(), h.RecordActivity)
		auth.PUT("/session/timeout", middleware.RequireAdmin(), h.SetSessionTimeout)
	}
}

// Login authenticates a user and opens an activity-tracked session
// @Summary      Login user
// @Description  Authenticates by email and password, sets HttpOnly token cookies and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	// Set tokens as HttpOnly cookies
	middleware.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Refresh rotates the refresh token and issues a new access token
// @Summary      Refresh token
// @Description  Issues a new access token and refresh token using a valid refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  false  "Refresh Token (cookie fallback)"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// Try reading refresh_token from cookie first, fallback to body
	refreshToken, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || refreshToken == "" {
		var req service.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
			return
		}
		refreshToken = req.RefreshToken
	}

	tokenRes, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	middleware.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout closes the session and clears auth cookies. Safe to call from a
// beacon on tab close: it never fails on an already-dead session.
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// No auth middleware runs here, so recover the session ID from the
	// access-token cookie without verifying it: the token may already have
	// expired and that must not keep the session alive.
	sessionID := c.GetString("sessionID")
	if sessionID == "" {
		if tokenString, err := c.Cookie("access_token"); err == nil {
			sessionID = middleware.SessionIDFromToken(tokenString)
		}
	}
	refreshToken, _ := c.Cookie("refresh_token")

	_ = h.authService.Logout(c.Request.Context(), sessionID, refreshToken)

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// Me returns the current user enriched with their permission union
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	me, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}

// SessionState reports the session's expiry arithmetic without extending it.
// Clients poll this to drive their idle-warning and auto-logout timers.
// @Summary      Get session state
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=session.State}
// @Router       /auth/session [get]
func (h *AuthHandler) SessionState(c *gin.Context) {
	state, err := h.authService.SessionState(c.Request.Context(), c.GetString("sessionID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}

// RecordActivity slides the session's expiry forward
// @Summary      Record user activity
// @Description  Marks the session active now, sliding its expiry window forward
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=session.State}
// @Failure      401  {object}  response.Response
// @Router       /auth/session/activity [post]
func (h *AuthHandler) RecordActivity(c *gin.Context) {
	state, err := h.authService.RecordActivity(c.Request.Context(), c.GetString("sessionID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}

// SetSessionTimeout updates the system-wide idle timeout
// @Summary      Set session timeout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SessionTimeoutRequest  true  "Timeout in seconds"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /auth/session/timeout [put]
func (h *AuthHandler) SetSessionTimeout(c *gin.Context) {
	var req service.SessionTimeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.authService.SetSessionTimeout(c.Request.Context(), req.TimeoutSeconds); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"timeout_seconds": req.TimeoutSeconds}))
}
