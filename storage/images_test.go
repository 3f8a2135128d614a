package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader by parsing a request body.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestMediaStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewMediaStore(root, "/media/", 16)

	rel, err := store.Save(fileHeader(t, "Chart.PNG", []byte("png-bytes")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "trade_images/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.Equal(t, "/media/"+rel, store.URL(rel))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(rel), "deleting twice is fine")
}

func TestMediaStoreValidate(t *testing.T) {
	store := NewMediaStore(t.TempDir(), "/media", 8)

	testCases := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
	}{
		{name: "jpeg accepted", filename: "a.jpeg", content: []byte("x")},
		{name: "webp accepted", filename: "a.webp", content: []byte("x")},
		{name: "pdf rejected", filename: "a.pdf", content: []byte("x"), wantErr: ErrUnsupportedType},
		{name: "no extension", filename: "chart", content: []byte("x"), wantErr: ErrUnsupportedType},
		{name: "too large", filename: "a.gif", content: []byte("123456789"), wantErr: ErrFileTooLarge},
		{name: "empty", filename: "a.png", content: nil, wantErr: ErrEmptyFile},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Validate(fileHeader(t, tc.filename, tc.content))
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
