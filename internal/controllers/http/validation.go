package http

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"comazon/internal/domain"
	"comazon/internal/repository"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine and
// makes field errors report json names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		if err = v.RegisterValidation("orderstatus", validateOrderStatus); err != nil {
			return
		}
		err = v.RegisterValidation("sortorder", validateSortOrder)
	})
	return err
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return domain.OrderStatus(fl.Field().String()).Valid()
}

func validateSortOrder(fl validator.FieldLevel) bool {
	switch repository.SortOrder(fl.Field().String()) {
	case repository.SortNewest, repository.SortOldest, repository.SortPriceLowest, repository.SortPriceHighest:
		return true
	}
	return false
}
