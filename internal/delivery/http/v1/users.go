package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleGetUsers(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(c, actor)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := make([]userResponse, len(users))
	for i, user := range users {
		response[i] = newUserResponse(user)
	}
	c.JSON(http.StatusOK, response)
}
