package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tourika/audiotour/internal/app/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON decodes the request body and runs struct validation, folding all
// field violations into a single "Validation error: ..." message.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %s", models.ErrValidation, err.Error())
	}
	return ValidateStruct(dst)
}

// ValidateStruct validates dst against its validate tags.
func ValidateStruct(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: Validation error: %s", models.ErrValidation, strings.Join(parts, ", "))
		}
		return fmt.Errorf("%w: %s", models.ErrValidation, err.Error())
	}
	return nil
}

// Pagination extracts page/limit query params with the API defaults.
func Pagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 10
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}
