package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/acquaintance/internal/service/likes"
	"github.com/oggyb/acquaintance/internal/service/users"
	"github.com/oggyb/acquaintance/internal/utils/pagination"
)

type UserHandler struct {
	users *users.Service
	likes *likes.Service
	now   func() time.Time
}

func NewUserHandler(usersSvc *users.Service, likesSvc *likes.Service, now func() time.Time) *UserHandler {
	return &UserHandler{users: usersSvc, likes: likesSvc, now: now}
}

// ListUsers handles GET /users.
// The body is the item array; paging metadata goes in the Pagination header.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = q.SortOrder
	}

	page, err := h.users.ListUsers(c.Request.Context(), users.ListParams{
		RequesterID: currentUserID(c),
		Gender:      q.Gender,
		MinAge:      q.MinAge,
		MaxAge:      q.MaxAge,
		OrderBy:     orderBy,
		PageNumber:  q.PageNumber,
		PageSize:    q.PageSize,
		Likers:      q.Likers,
		Likees:      q.Likees,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header(pagination.HeaderName, page.Header().Encode())
	c.JSON(http.StatusOK, toSummaries(page.Items, h.now()))
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	var uri UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), uri.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetail(*user, h.now()))
}

// UpdateUser handles PUT /users/:id. Only the caller's own id is accepted.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var uri UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	if err := h.users.UpdateUser(c.Request.Context(), currentUserID(c), uri.ID, req.toProfile()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LikeUser handles POST /users/:id/like/:recipientId.
func (h *UserHandler) LikeUser(c *gin.Context) {
	var uri LikeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	res, err := h.likes.Like(c.Request.Context(), currentUserID(c), uri.ID, uri.RecipientID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, LikeResponse{Liked: true, IsMatch: res.IsMatch})
}

// Matches handles GET /users/:id/matches.
func (h *UserHandler) Matches(c *gin.Context) {
	var uri UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	matches, err := h.users.Matches(c.Request.Context(), currentUserID(c), uri.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaries(matches, h.now()))
}
