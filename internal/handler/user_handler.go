package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/mailer"
	"routemeet/backend/internal/models"
	"routemeet/backend/internal/verifycode"
	"routemeet/backend/pkg/apperrors"
	"routemeet/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Package-level collaborators wired from main at startup.
var (
	codes *verifycode.Store
	mail  mailer.Sender
)

// Setup injects the verification-code store and mail sender used by the
// password-reset flow.
func Setup(codeStore *verifycode.Store, sender mailer.Sender) {
	codes = codeStore
	mail = sender
}

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username  string `json:"username" binding:"required" example:"testuser"`
	Email     string `json:"email" binding:"required,email" example:"test@example.com"`
	Password  string `json:"password" binding:"required,min=8" example:"password123"`
	FirstName string `json:"first_name" binding:"required" example:"Test"`
	LastName  string `json:"last_name" binding:"required" example:"User"`
	BirthDate string `json:"birth_date" example:"2000-01-31"`
	Gender    string `json:"gender" example:"other"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// PasswordResetRequestInput asks for a reset code by email.
type PasswordResetRequestInput struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetConfirmInput consumes a reset code and sets a new password.
type PasswordResetConfirmInput struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Verified  bool   `json:"verified"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Verified  bool   `json:"verified"`
	Role      string `json:"role"`
}

func buildPrivateUserResponse(user models.User) PrivateUserResponse {
	return PrivateUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		PhotoURL:  user.PhotoURL,
		Bio:       user.Bio,
		City:      user.City,
		Country:   user.Country,
		Verified:  user.Verified,
		Role:      user.Role,
	}
}

func buildPublicUserResponse(user models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		PhotoURL:  user.PhotoURL,
		Bio:       user.Bio,
		City:      user.City,
		Country:   user.Country,
		Verified:  user.Verified,
	}
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := database.DB.Where("username = ? OR email = ?", input.Username, input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Gender:       models.Gender(input.Gender),
	}
	if input.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", input.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid birth date, expected YYYY-MM-DD"})
			return
		}
		user.BirthDate = &birthDate
	}

	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user_id": user.ID})
}

// LoginUser godoc
// @Summary      Log in
// @Description  Authenticates a user and returns a token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.ID})
}

// RequestPasswordReset godoc
// @Summary      Request a password reset code
// @Description  Emails a single-use six digit code with a fifteen minute expiry.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body PasswordResetRequestInput true "Account email"
// @Success      200  {object}  map[string]string
// @Router       /auth/password-reset/request [post]
func RequestPasswordReset(c *gin.Context) {
	var input PasswordResetRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The response is identical whether or not the account exists, so the
	// endpoint cannot be used to probe registered emails.
	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err == nil {
		code, err := codes.Issue(c.Request.Context(), "password-reset", user.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		body := fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes.", code)
		if err := mail.Send(user.Email, "Password reset code", body); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send reset email"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset code has been sent"})
}

// ConfirmPasswordReset godoc
// @Summary      Confirm a password reset
// @Description  Consumes the emailed code and sets the new password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body PasswordResetConfirmInput true "Email, code and new password"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse "Invalid or expired code"
// @Router       /auth/password-reset/confirm [post]
func ConfirmPasswordReset(c *gin.Context) {
	var input PasswordResetConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		respondError(c, apperrors.ErrCodeMismatch)
		return
	}

	if err := codes.Consume(c.Request.Context(), "password-reset", user.Email, input.Code); err != nil {
		respondError(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := database.DB.Model(&user).Update("password_hash", string(hashedPassword)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// endregion

// region --- User Handlers ---

// GetMe godoc
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID.(string)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPrivateUserResponse(user))
}

// GetUserByID godoc
// @Summary      Get a user's public profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func GetUserByID(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, buildPublicUserResponse(user))
}

// SearchUsers godoc
// @Summary      Search users
// @Description  Gets a paginated list of users matching the search term.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query  string  false  "Match against username and names"
// @Param        page    query  int     false  "Page number" default(1)
// @Param        limit   query  int     false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[PublicUserResponse]
// @Router       /users [get]
func SearchUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	search := c.Query("search")

	query := database.DB.Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username LIKE ? OR first_name LIKE ? OR last_name LIKE ?", pattern, pattern, pattern)
	}

	result, err := Paginate[models.User](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	users := make([]PublicUserResponse, 0, len(result.Data))
	for _, user := range result.Data {
		users = append(users, buildPublicUserResponse(user))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(users, result.Meta.TotalItems, page, limit))
}

// ListAllUsers godoc
// @Summary      List all users (admin)
// @Description  Gets a paginated list of every registered user, including email and role.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page number" default(1)
// @Param        limit  query  int  false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[PrivateUserResponse]
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/users [get]
func ListAllUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := Paginate[models.User](database.DB.Model(&models.User{}).Order("created_at DESC"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	users := make([]PrivateUserResponse, 0, len(result.Data))
	for _, user := range result.Data {
		users = append(users, buildPrivateUserResponse(user))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(users, result.Meta.TotalItems, page, limit))
}

// endregion
