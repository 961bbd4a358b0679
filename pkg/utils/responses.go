package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API reply.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// ResponseJSON writes JSON response with custom status code
func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func responseError(w http.ResponseWriter, code int, message string) {
	ResponseJSON(w, code, false, message, nil, nil)
}

// 200
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, message, data, nil)
}

// 201
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, true, message, data, nil)
}

// ResponseBadRequest returns 400 with optional field errors.
func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseJSON(w, http.StatusBadRequest, false, message, nil, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	responseError(w, http.StatusUnauthorized, message)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	responseError(w, http.StatusForbidden, message)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	responseError(w, http.StatusNotFound, message)
}

// ResponseConflict returns 409, used when seats or payments were taken first.
func ResponseConflict(w http.ResponseWriter, message string) {
	responseError(w, http.StatusConflict, message)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	responseError(w, http.StatusInternalServerError, message)
}

func ResponseServiceUnavailable(w http.ResponseWriter, message string) {
	responseError(w, http.StatusServiceUnavailable, message)
}
