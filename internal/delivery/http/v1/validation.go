package v1

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/task-tracker/internal/models"
)

var registerValidatorsOnce sync.Once

// registerValidators teaches gin's validator engine the domain tags used
// in request bindings. The checks themselves live in models so the
// services enforce the same rules.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})

		tags := map[string]func(string) error{
			"username":   models.ValidateUsername,
			"taskname":   models.ValidateTaskName,
			"taskstatus": models.ValidateTaskStatus,
			"role":       models.ValidateRole,
		}
		for tag, validate := range tags {
			validate := validate // per-iteration copy; module targets go 1.21
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return validate(fl.Field().String()) == nil
			})
		}
	})
}

func describeFieldError(fe validator.FieldError) string {
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "field required"
	case "min":
		reason = fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "username":
		reason = fmt.Sprintf("must be %d to %d letters, digits or underscores",
			models.UsernameMinLength, models.UsernameMaxLength)
	case "taskname":
		reason = fmt.Sprintf("must be %d to %d characters and start with a letter",
			models.TaskNameMinLength, models.TaskNameMaxLength)
	case "taskstatus":
		reason = fmt.Sprintf("must be one of %q, %q, %q",
			models.StatusPending, models.StatusInProgress, models.StatusCompleted)
	case "role":
		reason = fmt.Sprintf("must be %q or %q", models.RoleUser, models.RoleAdmin)
	default:
		reason = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return fe.Field() + ": " + reason
}
