package handlers

import (
	"net/http"
	"promptu/internal/models"
	"promptu/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(conn *gorm.DB) *AuthHandler {
	return &AuthHandler{db: conn}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var details []string
	if !utils.ValidUsername(req.Username) {
		details = append(details, "username must be at least 3 characters of letters, numbers, underscores or hyphens")
	}
	if req.Email == "" {
		details = append(details, "email is required")
	}
	if len(req.Password) < 6 {
		details = append(details, "password must be at least 6 characters")
	}
	if len(details) > 0 {
		JSONValidationError(c, details)
		return
	}

	// 用户名和邮箱都要唯一
	var count int64
	h.db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		JSONError(c, http.StatusConflict, "username or email already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := h.db.Create(&user).Error; err != nil {
		JSONError(c, http.StatusConflict, "username or email already taken")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// 不区分"用户不存在"和"密码错误"
		JSONError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		JSONError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
