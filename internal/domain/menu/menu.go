// Package menu manages the restaurant catalog.
package menu

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validation errors returned by Candidate.Validate.
var (
	ErrEmptyName    = errors.New("name is required")
	ErrInvalidPrice = errors.New("price must be greater than 0")
)

// Item is a sellable catalog entry.
type Item struct {
	ID    int
	Name  string
	Price decimal.Decimal
	Image string
}

// Candidate holds the fields of an item that is not yet in the catalog.
type Candidate struct {
	Name  string
	Price decimal.Decimal
	Image string
}

// Validate checks the rules the admin form enforces before an item reaches
// the repository.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name  *string
	Price *decimal.Decimal
	Image *string
}

// Validate applies the Candidate rules to the fields that are set.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

func (p Patch) apply(it Item) Item {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Image != nil {
		it.Image = *p.Image
	}
	return it
}

// PlaceholderImage returns the image path used when an item is saved without
// an image: the lower-cased name with all whitespace removed.
func PlaceholderImage(name string) string {
	var b strings.Builder
	b.WriteString("images/")
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	b.WriteString(".jpg")
	return b.String()
}

const pexels = "https://images.pexels.com/photos/%[1]d/pexels-photo-%[1]d.jpeg?auto=compress&cs=tinysrgb&w=600&h=400&fit=crop"

// DefaultCatalog returns the catalog a fresh store is seeded with.
func DefaultCatalog() []Item {
	return []Item{
		{ID: 1, Name: "Idly", Price: decimal.NewFromInt(30), Image: pexelsURL(1640777)},
		{ID: 2, Name: "Puri", Price: decimal.NewFromInt(40), Image: pexelsURL(1640774)},
		{ID: 3, Name: "Vada", Price: decimal.NewFromInt(25), Image: pexelsURL(1640770)},
		{ID: 4, Name: "Coffee", Price: decimal.NewFromInt(20), Image: pexelsURL(302899)},
		{ID: 5, Name: "Pazhampori", Price: decimal.NewFromInt(35), Image: pexelsURL(1640772)},
	}
}

func pexelsURL(photo int) string {
	return fmt.Sprintf(pexels, photo)
}
