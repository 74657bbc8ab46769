package service

import (
	"context"

	"github.com/google/uuid"
)

type invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID, keys ...string)
}

type tokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}
