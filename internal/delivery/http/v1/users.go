package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpenko/task-tracker/internal/models"
)

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func (h *handlerImpl) HandleGetUsers(c *gin.Context) {
	users, err := h.users.GetUsers(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list users")
		abortServiceError(c, err)
		return
	}

	response := make([]userResponse, len(users))
	for i := range users {
		response[i] = newUserResponse(&users[i])
	}
	c.JSON(http.StatusOK, response)
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email,max=255"`
}

func (h *handlerImpl) HandleCreateUser(c *gin.Context) {
	var req createUserRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.CreateUser(c, req.Name, req.Email)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create user")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}
