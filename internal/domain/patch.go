package domain

import "time"

// Patches implement populate-by-merge: a nil field means "absent from the payload"
// and keeps the current value. Apply never mutates its argument.

// CategoryPatch holds the category fields settable through generic update.
// There is deliberately no Products field.
type CategoryPatch struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// Apply returns a copy of current with the present fields overwritten
func (p CategoryPatch) Apply(current Category, now time.Time) Category {
	next := current
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Slug != nil {
		next.Slug = *p.Slug
	}
	next.UpdatedAt = now
	return next
}

// ProductPatch holds the product fields settable through generic update.
// Category is changed only through the dedicated reassignment operation.
type ProductPatch struct {
	Name        *string  `json:"name"`
	Mark        *string  `json:"mark"`
	Quantity    *int     `json:"quantity"`
	Description *string  `json:"description"`
	Color       *string  `json:"color"`
	UnitPrice   *float64 `json:"unitPrice"`
	IsAvailable *bool    `json:"isAvailable"`
}

// Apply returns a copy of current with the present fields overwritten
func (p ProductPatch) Apply(current Product, now time.Time) Product {
	next := current
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Mark != nil {
		next.Mark = *p.Mark
	}
	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}
	if p.Description != nil {
		d := *p.Description
		next.Description = &d
	}
	if p.Color != nil {
		c := *p.Color
		next.Color = &c
	}
	if p.UnitPrice != nil {
		next.UnitPrice = *p.UnitPrice
	}
	if p.IsAvailable != nil {
		next.IsAvailable = *p.IsAvailable
	}
	next.UpdatedAt = now
	return next
}

// UserPatch holds the user fields settable through generic update.
// id, password and roles are never taken from this path.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Apply returns a copy of current with the present fields overwritten
func (p UserPatch) Apply(current User, now time.Time) User {
	next := current
	if p.Username != nil {
		next.Username = *p.Username
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	next.Roles = append([]string(nil), current.Roles...)
	next.UpdatedAt = now
	return next
}
