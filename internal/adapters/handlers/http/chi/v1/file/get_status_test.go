package file_test

import (
	"encoding/json"
	"errors"
	http2 "net/http"
	"net/http/httptest"
	"testing"

	file3 "chunk-transfer/internal/adapters/handlers/http/chi/v1/file"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/service/file"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetStatusV1(t *testing.T) {

	t.Run("success - reclaimed file", func(t *testing.T) {
		// Arrange
		view := &domain.FileView{
			Filename:         "movie.mp4",
			Status:           domain.FileStatusPartial,
			BytesReceived:    8,
			TotalBytes:       ptr(uint64(20)),
			NextExpectedByte: 4,
			Reclaimed:        true,
		}

		mockService := file.NewMockFileService()
		mockService.On("GetStatus", mock.Anything, "alice", "movie.mp4").Return(view, nil)

		h := newRouter(mockService)
		w := httptest.NewRecorder()
		req := authorized(t, http2.MethodGet, "/api/v1/files/movie.mp4/status", nil, "alice")

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)

		var response file3.V1FileStatusResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "partial", response.Status)
		assert.Equal(t, uint64(8), response.BytesReceived)
		assert.Equal(t, uint64(20), *response.TotalBytes)
		assert.Equal(t, uint64(4), response.NextExpectedByte)
		assert.True(t, response.Reclaimed)
		mockService.AssertExpectations(t)
	})

	t.Run("success - pending file has null total", func(t *testing.T) {
		// Arrange
		view := domain.PendingView("new.bin")

		mockService := file.NewMockFileService()
		mockService.On("GetStatus", mock.Anything, "alice", "new.bin").Return(&view, nil)

		h := newRouter(mockService)
		w := httptest.NewRecorder()
		req := authorized(t, http2.MethodGet, "/api/v1/files/new.bin/status", nil, "alice")

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)
		assert.JSONEq(t, `{"filename":"new.bin","status":"pending","bytes_received":0,"total_bytes":null,"next_expected_byte":0}`, w.Body.String())
	})

	t.Run("error - service failure", func(t *testing.T) {
		// Arrange
		mockService := file.NewMockFileService()
		mockService.On("GetStatus", mock.Anything, "alice", "new.bin").Return((*domain.FileView)(nil), errors.New("database connection lost"))

		h := newRouter(mockService)
		w := httptest.NewRecorder()
		req := authorized(t, http2.MethodGet, "/api/v1/files/new.bin/status", nil, "alice")

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusServiceUnavailable, w.Code)
	})
}
