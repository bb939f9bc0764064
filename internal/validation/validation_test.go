package validation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type sample struct {
	Name     string `json:"name" validate:"required,notblank,min=2"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestProperty_BlankNamesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("whitespace-only names fail notblank", prop.ForAll(
		func(spaces int) bool {
			name := ""
			for i := 0; i < spaces; i++ {
				name += " "
			}
			err := Struct(sample{Name: name, Quantity: 1})
			return err != nil
		},
		gen.IntRange(2, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatUsesJSONNames(t *testing.T) {
	err := Struct(sample{Name: "ok", Quantity: -3, Email: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := map[string]string{}
	for _, fe := range Format(err) {
		fields[fe.Field] = fe.Message
	}

	if fields["quantity"] != "This value should be positive" {
		t.Errorf("unexpected quantity message: %q", fields["quantity"])
	}
	if fields["email"] != "Invalid email format" {
		t.Errorf("unexpected email message: %q", fields["email"])
	}
	if _, ok := fields["name"]; ok {
		t.Error("name is valid and must not be reported")
	}
}

func TestFormatIgnoresOtherErrors(t *testing.T) {
	if got := Format(nil); len(got) != 0 {
		t.Errorf("expected no field errors, got %v", got)
	}
}
