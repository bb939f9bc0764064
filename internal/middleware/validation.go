package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"shop-catalog/internal/validation"
)

// ErrEmptyBody is returned when a JSON payload was expected but none was sent
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the request body into v. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

// DecodeAndValidate decodes the JSON body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

// RespondWithDecodeError answers 400 for a payload DecodeAndValidate refused.
// Field failures are listed; unreadable JSON gets the generic message.
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if fields := validation.Format(err); len(fields) > 0 {
		RespondWithValidationErrors(w, fields)
		return
	}
	RespondWithError(w, http.StatusBadRequest, MsgInvalidInput)
}
