package composables

import (
	"net/http"

	"github.com/go-playground/form"
)

var formDecoder = form.NewDecoder()

// UseForm decodes the request form into v using `form` struct tags.
func UseForm[T any](v T, r *http.Request) (T, error) {
	if err := r.ParseForm(); err != nil {
		return v, err
	}
	return v, formDecoder.Decode(v, r.PostForm)
}

func UseQuery[T any](v T, r *http.Request) (T, error) {
	return v, formDecoder.Decode(v, r.URL.Query())
}
