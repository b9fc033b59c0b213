package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/errors"
)

func TestUploadImage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/images", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "dog.jpg", hdr.Filename)
		assert.Equal(t, "JPEG", string(data))
		assert.Equal(t, "old", r.FormValue("prevId"))

		_, _ = io.WriteString(w, `{"id":"img-1","url":"http://localhost:8080/api/images/img-1"}`)
	}))

	img, err := c.UploadImage(context.Background(), "/tmp/dog.jpg", strings.NewReader("JPEG"), "old")
	require.NoError(t, err)
	assert.Equal(t, Image{ID: "img-1", URL: "http://localhost:8080/api/images/img-1"}, img)
}

func TestUploadImageNoPrev(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, ok := r.MultipartForm.Value["prevId"]
		assert.False(t, ok)
		_, _ = io.WriteString(w, `{"id":"x","url":"u"}`)
	}))

	_, err := c.UploadImage(context.Background(), "a.png", strings.NewReader("PNG"), "")
	require.NoError(t, err)
}

func TestUploadImageMissingURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"x"}`)
	}))

	_, err := c.UploadImage(context.Background(), "a.png", strings.NewReader("PNG"), "")
	assert.True(t, errors.Is(err, errors.ErrCodeBackend))
}

func TestUploadImageURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/images/url", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"url": "https://example.com/dog.png", "prevId": "p"}, req)
		_, _ = io.WriteString(w, `{"id":"img-2","url":"http://b/api/images/img-2"}`)
	}))

	img, err := c.UploadImageURL(context.Background(), "  https://example.com/dog.png ", "p")
	require.NoError(t, err)
	assert.Equal(t, "img-2", img.ID)

	_, err = c.UploadImageURL(context.Background(), " ", "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestDeleteImage(t *testing.T) {
	var deleted []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		id := strings.TrimPrefix(r.URL.Path, "/api/images/")
		if id == "missing" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		deleted = append(deleted, id)
		_, _ = io.WriteString(w, `{"status":"deleted"}`)
	}))

	require.NoError(t, c.DeleteImage(context.Background(), "img-1"))
	assert.Equal(t, []string{"img-1"}, deleted)

	err := c.DeleteImage(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.DeleteImage(context.Background(), "../etc")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidID))
}
