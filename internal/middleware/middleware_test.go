package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/auth"
	"github.com/josh-kwaku/billing-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func TestAuth(t *testing.T) {
	principal := auth.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	token, err := auth.GenerateToken(auth.Claims{UserID: principal.UserID, TenantID: principal.TenantID}, testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer  ", wantStatus: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = auth.PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(testSecret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, principal, got)
			}
		})
	}
}

type fakeIdempotencyRepo struct {
	entries map[string]*repository.IdempotencyCacheEntry
}

func (f *fakeIdempotencyRepo) Get(_ context.Context, key string, tenantID, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	e, ok := f.entries[key+tenantID.String()+userID.String()]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (f *fakeIdempotencyRepo) Set(_ context.Context, e *repository.IdempotencyCacheEntry) error {
	f.entries[e.Key+e.TenantID.String()+e.UserID.String()] = e
	return nil
}

func TestIdempotency(t *testing.T) {
	repo := &fakeIdempotencyRepo{entries: map[string]*repository.IdempotencyCacheEntry{}}
	principal := auth.Principal{UserID: uuid.New(), TenantID: uuid.New()}

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true}`))
	})
	h := Idempotency(repo, time.Hour)(next)

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("k1", `{"documentType":"SO"}`)
	assert.Equal(t, http.StatusCreated, first.Code)

	replay := send("k1", `{"documentType":"SO"}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.JSONEq(t, `{"success":true}`, replay.Body.String())
	assert.Equal(t, 1, calls)

	conflict := send("k1", `{"documentType":"PO"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)

	send("", `{"documentType":"SO"}`)
	send("", `{"documentType":"SO"}`)
	assert.Equal(t, 3, calls)
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"propagates caller id", "req-42", true},
		{"mints when missing", "", false},
		{"replaces unsafe id", "bad id\nINFO forged", false},
		{"replaces oversized id", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			assert.Equal(t, tt.wantSame, seen == tt.header)
		})
	}
}

func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogging_AccessLineCarriesCaller(t *testing.T) {
	buf := captureDefaultLogger(t)
	principal := auth.Principal{UserID: uuid.New(), TenantID: uuid.New()}
	token, err := auth.GenerateToken(auth.Claims{UserID: principal.UserID, TenantID: principal.TenantID}, testSecret, time.Hour)
	require.NoError(t, err)

	h := RequestID(Logging(Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDHeader, "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "req-7", line["request_id"])
	assert.Equal(t, principal.TenantID.String(), line["tenant_id"])
	assert.Equal(t, principal.UserID.String(), line["user_id"])
	assert.EqualValues(t, http.StatusNotFound, line["status"])
	assert.EqualValues(t, 4, line["bytes"])
}

func TestLogging_SkipsHealth(t *testing.T) {
	buf := captureDefaultLogger(t)
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Zero(t, buf.Len())
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, accessLevel(http.StatusCreated))
	assert.Equal(t, slog.LevelWarn, accessLevel(http.StatusConflict))
	assert.Equal(t, slog.LevelError, accessLevel(http.StatusServiceUnavailable))
}

func TestAnnotate_OutsideLogging(t *testing.T) {
	assert.NotPanics(t, func() { Annotate(context.Background(), "tenant_id", uuid.New()) })
}
