package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/models"
)

const userCtxKey = "user"

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Debug().Msg("authorization header required")
		abort(c, newUnauthorizedError(errMissingBearerToken.Error()))
		return
	}

	const bearerScheme = "Bearer"
	scheme, accessToken, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) || accessToken == "" {
		h.logger.Debug().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errMissingBearerToken.Error()))
		return
	}

	user, err := h.auth.Authenticate(c, strings.TrimSpace(accessToken))
	if err != nil {
		apiErr := newServiceError(err)
		if apiErr.Code == http.StatusInternalServerError {
			h.logger.Error().
				Err(err).
				Msg("failed to authenticate")
		}
		abort(c, apiErr)
		return
	}

	c.Set(userCtxKey, user)
	c.Next()
}

// HandleRequestLogger logs one line per request once the handler chain
// has finished.
func (h *handlerImpl) HandleRequestLogger(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	c.Next()

	status := c.Writer.Status()
	var event *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		event = h.logger.Error()
	case status >= http.StatusBadRequest:
		event = h.logger.Warn()
	default:
		event = h.logger.Info()
	}

	event.
		Str("method", c.Request.Method).
		Str("path", path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("handled request")
}

func getUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// mustGetUser aborts with 401 when no user was set by the auth
// middleware.
func (h *handlerImpl) mustGetUser(c *gin.Context) (*models.User, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		h.logger.Error().Msg(errUserNotInContext.Error())
		abort(c, newUnauthorizedError(errMissingBearerToken.Error()))
		return nil, false
	}
	return user, true
}
