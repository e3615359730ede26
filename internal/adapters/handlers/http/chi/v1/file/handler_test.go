package file_test

import (
	"io"
	"log/slog"
	http2 "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chunk-transfer/internal/adapters/handlers/http/auth"
	"chunk-transfer/internal/adapters/handlers/http/chi"
	file3 "chunk-transfer/internal/adapters/handlers/http/chi/v1/file"
	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/service/file"

	"github.com/stretchr/testify/require"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	authCfg       = config.AuthConfig{JWTSecret: "test-secret"}
)

const maxChunkSize = 64

// newRouter serves the file routes on top of mockService
func newRouter(mockService *file.MockFileService) http2.Handler {
	handler := file3.NewFileHandlerV1(mockService, maxChunkSize, discardLogger)
	return chi.NewRouter(discardLogger, handler, authCfg, "")
}

// authorized returns a request carrying a valid token for owner
func authorized(t *testing.T, method, target string, body io.Reader, owner string) *http2.Request {
	t.Helper()
	token, err := auth.SignToken(authCfg, owner, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func ptr[T any](v T) *T {
	return &v
}
