package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/services"
)

const tokenTypeBearer = "bearer"

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username" form:"username" binding:"required,username"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role" form:"role" binding:"omitempty,role"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBindError(err, errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("username", req.Username).
		Msg("register request")

	user, err := h.auth.Register(c, services.RegisterParams{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleLogin accepts the credentials as a form (OAuth2 password flow)
// or as JSON, depending on the Content-Type.
func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBindError(err, errInvalidRequestBody.Error()))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(time.Until(result.AccessTokenExpiresAt).Seconds()),
	})
}

func (h *handlerImpl) HandleMe(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c, actor.ID)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
