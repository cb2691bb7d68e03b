package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/mohini/user-service/internal/application"
	"github.com/mohini/user-service/internal/domain/entity"
	"github.com/mohini/user-service/internal/domain/errs"
	"github.com/mohini/user-service/internal/domain/repository"
	"github.com/mohini/user-service/pkg/response"
	"github.com/mohini/user-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Username  string `json:"username" binding:"required,uname"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type updateUserRequest struct {
	Username  string `json:"username" binding:"required,uname"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

// userResponse is the outbound representation. This is the single point
// where the password is filtered from output.
type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeValidationError(c, map[string]string{"id": "must be numeric"})
		return 0, false
	}
	return id, true
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, validation.ToDetails(err))
		return
	}

	h.Logger.WithFields(logrus.Fields{"username": req.Username, "email": req.Email}).Info("creating user")

	u, err := h.Svc.Create(c.Request.Context(), userapp.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, toUserResponse(u))
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(c, errs.UserNotFoundByID(id))
			return
		}
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, validation.ToDetails(err))
		return
	}

	h.Logger.WithFields(logrus.Fields{"user_id": id, "username": req.Username}).Info("updating user")

	u, err := h.Svc.Update(c.Request.Context(), id, userapp.UpdateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

// GetByEmail handles GET /users/email/:email.
func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Param("email")
	u, err := h.Svc.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(c, errs.UserNotFoundBy("email", email))
			return
		}
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

// GetByUsername handles GET /users/username/:username.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	username := c.Param("username")
	u, err := h.Svc.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(c, errs.UserNotFoundBy("username", username))
			return
		}
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

// ExistsByEmail handles GET /users/exists/email/:email.
func (h *UserHandler) ExistsByEmail(c *gin.Context) {
	exists, err := h.Svc.ExistsByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exists)
}

// ExistsByUsername handles GET /users/exists/username/:username.
func (h *UserHandler) ExistsByUsername(c *gin.Context) {
	exists, err := h.Svc.ExistsByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exists)
}

// Count handles GET /users/count.
func (h *UserHandler) Count(c *gin.Context) {
	count, err := h.Svc.Count(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, count)
}

// FindByFirstName handles GET /users/search/firstname/:name.
func (h *UserHandler) FindByFirstName(c *gin.Context) {
	users, err := h.Svc.FindByFirstName(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

// FindByLastName handles GET /users/search/lastname/:name.
func (h *UserHandler) FindByLastName(c *gin.Context) {
	users, err := h.Svc.FindByLastName(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

// SearchByUsername handles GET /users/search/username/:fragment.
func (h *UserHandler) SearchByUsername(c *gin.Context) {
	users, err := h.Svc.SearchByUsername(c.Request.Context(), c.Param("fragment"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

// ListCreatedBetween handles GET /users/created?from=&to= with RFC3339 bounds.
func (h *UserHandler) ListCreatedBetween(c *gin.Context) {
	from, errFrom := time.Parse(time.RFC3339, c.Query("from"))
	to, errTo := time.Parse(time.RFC3339, c.Query("to"))
	if errFrom != nil || errTo != nil {
		writeValidationError(c, map[string]string{"from": "must be RFC3339", "to": "must be RFC3339"})
		return
	}
	if from.After(to) {
		writeError(c, errs.Validation("'from' must not be after 'to'"))
		return
	}
	users, err := h.Svc.ListCreatedBetween(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

// Search handles GET /users/search?q=&size= backed by Elasticsearch.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hits)
}
