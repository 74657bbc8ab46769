package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/auth"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
)

type memoryIdempotency struct {
	records map[string]*repository.IdempotencyRecord
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{records: map[string]*repository.IdempotencyRecord{}}
}

func (m *memoryIdempotency) Lookup(_ context.Context, userID uuid.UUID, key string) (*repository.IdempotencyRecord, error) {
	return m.records[userID.String()+"/"+key], nil
}

func (m *memoryIdempotency) Save(_ context.Context, rec *repository.IdempotencyRecord) error {
	m.records[rec.UserID.String()+"/"+rec.Key] = rec
	return nil
}

func TestAuth(t *testing.T) {
	tokens := auth.NewTokens("middleware-test-secret", time.Hour)
	userID := uuid.New()
	valid, err := tokens.Issue(userID, "a@example.com")
	require.NoError(t, err)

	var seen uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := Auth(tokens)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, userID, seen)
}

func TestIdempotency(t *testing.T) {
	userID := uuid.New()
	calls := 0
	status := http.StatusCreated
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})

	send := func(h http.Handler, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
		if key != "" {
			req.Header.Set(idempotencyHeader, key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("replay returns stored response", func(t *testing.T) {
		calls = 0
		h := Idempotency(newMemoryIdempotency(), time.Hour)(next)

		first := send(h, "k1", `{"amount":"10"}`)
		second := send(h, "k1", `{"amount":"10"}`)

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
	})

	t.Run("different body conflicts", func(t *testing.T) {
		calls = 0
		h := Idempotency(newMemoryIdempotency(), time.Hour)(next)

		send(h, "k1", `{"amount":"10"}`)
		rec := send(h, "k1", `{"amount":"11"}`)

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("no key passes through", func(t *testing.T) {
		calls = 0
		h := Idempotency(newMemoryIdempotency(), time.Hour)(next)

		send(h, "", `{}`)
		send(h, "", `{}`)
		assert.Equal(t, 2, calls)
	})

	t.Run("server errors are not stored", func(t *testing.T) {
		calls = 0
		status = http.StatusInternalServerError
		defer func() { status = http.StatusCreated }()
		repo := newMemoryIdempotency()
		h := Idempotency(repo, time.Hour)(next)

		send(h, "k1", `{}`)
		send(h, "k1", `{}`)
		assert.Equal(t, 2, calls)
		assert.Empty(t, repo.records)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(traceIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(traceIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
