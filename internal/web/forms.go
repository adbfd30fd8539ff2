package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
)

// errBadForm reports a form whose field set does not match the page.
var errBadForm = errors.New("malformed form")

// maxFormBytes bounds the size of a submitted form.
const maxFormBytes = 64 << 10

// decodeForm reads the POST body and returns exactly the given fields. A form
// with a missing, repeated or unexpected field is rejected with errBadForm.
func decodeForm(w http.ResponseWriter, r *http.Request, fields ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadForm, err)
	}

	for key := range r.PostForm {
		if !slices.Contains(fields, key) {
			return nil, fmt.Errorf("%w: unexpected field %q", errBadForm, key)
		}
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		vs, ok := r.PostForm[f]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", errBadForm, f)
		}
		if len(vs) != 1 {
			return nil, fmt.Errorf("%w: repeated field %q", errBadForm, f)
		}
		values[f] = vs[0]
	}
	return values, nil
}

func (s *Server) badForm(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("rejected form", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusBadRequest, "The submitted form was not understood.")
}
