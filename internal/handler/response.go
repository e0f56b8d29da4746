package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/courseloop/academy-server-go/internal/httputil"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
