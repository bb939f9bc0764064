// Package view projects entities onto named serialization groups.
//
// Every entity declares a static, ordered field table. Each field lists the
// groups it is visible in; projecting with a group keeps exactly those fields
// and omits the rest. Relations are projected with the same group.
package view

import (
	"bytes"
	"encoding/json"
)

// Group is a named whitelist of fields
type Group string

const (
	CategoryIndex      Group = "category.index"
	CategoryShow       Group = "category.show"
	CategoryCreate     Group = "category.create"
	ProductShow        Group = "product.show"
	ProductCreate      Group = "product.create"
	ImageProductCreate Group = "image_product.create"
	UserShow           Group = "user.show"
)

// Field is a single projected key/value pair
type Field struct {
	Name  string
	Value any
}

// Object is an ordered set of projected fields. It marshals as a JSON object
// whose keys keep declaration order.
type Object []Field

// MarshalJSON writes the fields in order
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// With returns a copy of o with a derived field appended
func (o Object) With(name string, value any) Object {
	out := make(Object, len(o), len(o)+1)
	copy(out, o)
	return append(out, Field{Name: name, Value: value})
}

type field[T any] struct {
	name   string
	groups []Group
	value  func(v T, g Group) any
}

func (f field[T]) visibleIn(g Group) bool {
	for _, fg := range f.groups {
		if fg == g {
			return true
		}
	}
	return false
}

func project[T any](fields []field[T], v T, g Group) Object {
	out := make(Object, 0, len(fields))
	for _, f := range fields {
		if !f.visibleIn(g) {
			continue
		}
		out = append(out, Field{Name: f.name, Value: f.value(v, g)})
	}
	return out
}
