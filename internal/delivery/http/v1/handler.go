package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/services"
)

type Handler interface {
	RegisterRoutes(router gin.IRouter)

	HandleRequestLogger(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleHealth(c *gin.Context)

	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleMe(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetMyTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleGetUsers(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	tasks  services.TaskService
	users  services.UserService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
	userService services.UserService,
) Handler {
	registerValidators()
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		tasks:  taskService,
		users:  userService,
	}
}

func (h *handlerImpl) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.HandleHealth)

	router.POST("/register", h.HandleRegister)
	router.POST("/token", h.HandleLogin)

	authorized := router.Group("", h.HandleAuthMiddleware)
	authorized.GET("/me", h.HandleMe)
	authorized.GET("/users", h.HandleGetUsers)

	authorized.GET("/tasks", h.HandleGetTasks)
	authorized.POST("/tasks", h.HandleCreateTask)
	authorized.GET("/my-tasks", h.HandleGetMyTasks)
	authorized.GET("/task/:id", h.HandleGetTask)
	authorized.PUT("/task/:id", h.HandleUpdateTask)
	authorized.DELETE("/task/:id", h.HandleDeleteTask)
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
