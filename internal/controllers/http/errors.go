package http

import (
	"errors"
	"log"
	"net/http"

	"comazon/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorTranslator turns the last error attached by a handler into a status
// code and a minimal body. The full error is logged.
func ErrorTranslator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		status, body := translate(last)
		log.Printf("%s %s -> %d: %v", c.Request.Method, c.Request.URL.Path, status, last.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func translate(e *gin.Error) (int, gin.H) {
	err := e.Err

	if e.IsType(gin.ErrorTypeBind) {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]fieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fieldError{Field: fe.Field(), Message: describe(fe)})
			}
			return http.StatusBadRequest, gin.H{"error": "validation failed", "details": details}
		}
		return http.StatusBadRequest, gin.H{"error": "malformed request: " + err.Error()}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []fieldError{{Field: ve.Field, Message: ve.Message}},
		}
	}

	var se *domain.InsufficientStockError
	if errors.As(err, &se) {
		return http.StatusUnprocessableEntity, gin.H{"error": domain.ErrInsufficientStock.Error(), "shortages": se.Shortages}
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	}

	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "orderstatus":
		return "must be one of pending, confirmed, shipped, delivered, cancelled"
	case "sortorder":
		return "must be one of newest, oldest, priceLowest, priceHighest"
	}
	return "failed " + fe.Tag() + " validation"
}
