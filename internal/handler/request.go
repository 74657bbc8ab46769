package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/josh-kwaku/pocket-ledger/internal/auth"
)

const maxBodyBytes = 1 << 20

func currentUser(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

// pathID parses the {id} wildcard. A malformed id cannot name any row, so it
// reads as not found.
func pathID(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return false
	}
	return true
}

func queryUUID(r *http.Request, name string, fields *[]FieldError) *uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: name, Message: "must be a uuid"})
		return nil
	}
	return &id
}

func queryInt(r *http.Request, name string, fields *[]FieldError) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: name, Message: "must be an integer"})
		return 0
	}
	return n
}

func parseUUID(raw, field string, fields *[]FieldError) uuid.UUID {
	if raw == "" {
		*fields = append(*fields, FieldError{Field: field, Message: "required"})
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: field, Message: "must be a uuid"})
		return uuid.Nil
	}
	return id
}
