package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/acquaintance/internal/service/account"
)

type AuthHandler struct {
	accounts *account.Service
	now      func() time.Time
}

func NewAuthHandler(accounts *account.Service, now func() time.Time) *AuthHandler {
	return &AuthHandler{accounts: accounts, now: now}
}

// Register handles POST /auth/register.
// Responds 201 with the created user and a Location of /users/{id}.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	dob, err := time.Parse(DateLayout, req.DateOfBirth)
	if err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Gender:      req.Gender,
		KnownAs:     req.KnownAs,
		DateOfBirth: dob,
		City:        req.City,
		Country:     req.Country,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/users/%d", user.ID))
	c.JSON(http.StatusCreated, toDetail(*user, h.now()))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt,
		User:      toSummary(*res.User, h.now()),
	})
}
