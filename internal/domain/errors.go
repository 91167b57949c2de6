package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrDuplicateRequest  = errors.New("duplicate request")

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrOwnerNotFound   = fmt.Errorf("order owner %w", ErrNotFound)
)

// ValidationError is a structural problem with caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Shortage describes one product whose stock cannot cover the requested
// quantity. Unknown is set when the product does not exist; Available is
// -1 when the shortfall was detected by the guarded decrement and no
// snapshot value is known.
type Shortage struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Unknown   bool   `json:"unknown,omitempty"`
}

type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		switch {
		case s.Unknown:
			parts = append(parts, fmt.Sprintf("%s: unknown product", s.ProductID))
		case s.Available < 0:
			parts = append(parts, fmt.Sprintf("%s: requested %d", s.ProductID, s.Requested))
		default:
			parts = append(parts, fmt.Sprintf("%s: requested %d, available %d", s.ProductID, s.Requested, s.Available))
		}
	}
	return fmt.Sprintf("%s (%s)", ErrInsufficientStock, strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Is(target error) bool {
	if target == ErrInsufficientStock {
		return true
	}
	if target == ErrUnknownProduct {
		for _, s := range e.Shortages {
			if s.Unknown {
				return true
			}
		}
	}
	return false
}
