package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation is returned when item input is missing a field or cannot be coerced.
var ErrValidation = errors.New("invalid item")

// Item represents one inventory product.
type Item struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	Stock        int64     `json:"stock" db:"stock"`
	Price        Price     `json:"price" db:"price"`
	PriceDisplay string    `json:"price_display" db:"-"`
	HasImage     bool      `json:"has_image" db:"has_image"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ItemFields are the four editable fields of an item, already validated.
type ItemFields struct {
	Name     string
	Category string
	Stock    int64
	Price    Price
}

// ItemInput is the raw create/update payload. Pointers distinguish an absent
// field from a zero value; stock and price accept numbers or numeric strings.
type ItemInput struct {
	Name     *string      `json:"name" validate:"required,max=255"`
	Category *string      `json:"category" validate:"required,max=100"`
	Stock    *json.Number `json:"stock" validate:"required"`
	Price    *json.Number `json:"price" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Fields validates the input and coerces it into ItemFields.
func (in ItemInput) Fields() (ItemFields, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "max" {
				return ItemFields{}, fmt.Errorf("%w: %s must be at most %s characters", ErrValidation, fe.Field(), fe.Param())
			}
			return ItemFields{}, fmt.Errorf("%w: %s is required", ErrValidation, fe.Field())
		}
		return ItemFields{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// required only rejects nil pointers; blank text counts as missing too.
	name, category := strings.TrimSpace(*in.Name), strings.TrimSpace(*in.Category)
	if name == "" {
		return ItemFields{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if category == "" {
		return ItemFields{}, fmt.Errorf("%w: category is required", ErrValidation)
	}

	stock, err := strconv.ParseInt(in.Stock.String(), 10, 64)
	if err != nil {
		return ItemFields{}, fmt.Errorf("%w: stock must be an integer", ErrValidation)
	}
	if stock < 0 {
		return ItemFields{}, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	price, err := ParsePrice(in.Price.String())
	if err != nil {
		return ItemFields{}, err
	}

	return ItemFields{
		Name:     name,
		Category: category,
		Stock:    stock,
		Price:    price,
	}, nil
}

// MaxPrice is the largest price a DECIMAL(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// Price is a non-negative amount with two fractional digits.
type Price struct {
	decimal.Decimal
}

// Scan implements sql.Scanner. SQLite hands back REAL columns as float64,
// and a non-finite one would make the decimal conversion panic.
func (p *Price) Scan(value any) error {
	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return fmt.Errorf("price %v is not a finite number", f)
	}
	return p.Decimal.Scan(value)
}

// NewPrice builds a Price from a float, rounded to two decimals.
func NewPrice(v float64) Price {
	return Price{decimal.NewFromFloat(v).Round(2)}
}

// ParsePrice parses a decimal string into a Price rounded to two decimals.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Price{}, fmt.Errorf("%w: price must be a decimal number", ErrValidation)
	}
	if d.IsNegative() {
		return Price{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	d = d.Round(2)
	if d.GreaterThan(MaxPrice) {
		return Price{}, fmt.Errorf("%w: price must be at most %s", ErrValidation, MaxPrice.StringFixed(2))
	}
	return Price{d}, nil
}

// MarshalJSON renders the price as a JSON number with exactly two decimals.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

// Stats aggregates the whole items table.
type Stats struct {
	TotalItems                 int64  `json:"total_items" db:"total_items"`
	TotalCategories            int64  `json:"total_categories" db:"total_categories"`
	InStock                    int64  `json:"in_stock" db:"in_stock"`
	OutOfStock                 int64  `json:"out_of_stock" db:"out_of_stock"`
	TotalInventoryValue        Price  `json:"total_inventory_value" db:"total_inventory_value"`
	TotalInventoryValueDisplay string `json:"total_inventory_value_display" db:"-"`
}
