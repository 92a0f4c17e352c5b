package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCapturingResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewStatusCapturingResponseWriter(rec)
	assert.Equal(t, http.StatusOK, w.StatusCode)

	w.WriteHeader(http.StatusTeapot)
	w.WriteHeader(http.StatusInternalServerError)
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusTeapot, w.StatusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 5, w.BytesWritten)
	assert.Same(t, rec, w.Unwrap())

	w.Flush()
	assert.True(t, rec.Flushed)
}
