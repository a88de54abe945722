package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("level", func(fl validator.FieldLevel) bool {
		return domain.CriticalityLevel(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("ticket_status", func(fl validator.FieldLevel) bool {
		return domain.TicketStatus(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("staff_role", func(fl validator.FieldLevel) bool {
		return domain.StaffRole(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("sla_mode", func(fl validator.FieldLevel) bool {
		return domain.SLAMode(fl.Field().String()).Valid()
	})
}

// Validate checks v against its validate tags. Failures come back as a
// validation DomainError whose details map each field to the failed rule.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			_, field, _ = strings.Cut(ns, ".")
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[field] = rule
	}
	return apperrors.NewValidationError("invalid payload", details)
}

// Bind parses the request body into v and validates it.
func Bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return Validate(v)
}
