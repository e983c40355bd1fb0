package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bind decodes and validates a JSON body, writing a 400 on failure.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	return bindBody(w, r, dst, false)
}

// bindOptional is bind for endpoints whose body may be omitted.
func bindOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return bindBody(w, r, dst, true)
}

func bindBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := decodeBody(r, dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}
	return true
}
