package handler

import (
	"errors"
	"strings"

	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/bakehouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindListFilter binds common listing query parameters into a domain filter
func bindListFilter(c *gin.Context) (shared.Filter, error) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		return shared.Filter{}, err
	}
	req.Normalize()

	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: strings.ToUpper(req.OrderDir),
		Search:   req.Search,
	}, nil
}

// handleBindError turns a binding failure into a validation error response
// when the validator produced field errors, a plain 400 otherwise
func (h *BaseHandler) handleBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]dto.ValidationDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, dto.ValidationDetail{
				Field:   fieldErr.Field(),
				Message: validationMessage(fieldErr),
			})
		}
		h.ValidationError(c, details)
		return
	}
	h.BadRequest(c, err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is below the minimum of " + fe.Param()
	case "max":
		return "Value exceeds the maximum of " + fe.Param()
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "uuid":
		return "Value must be a valid UUID"
	default:
		return "Invalid value"
	}
}
