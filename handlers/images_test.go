package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/models"
)

func mustDecimal(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (e *testEnv) mediaPath(rel string) string {
	return filepath.Join(e.media.Root(), filepath.FromSlash(rel))
}

func multipartUpload(t *testing.T, tradeID uint, filename string, content []byte, caption string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("caption", caption))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/trades/%d/images", tradeID), body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "alice@example.com")
	trade := env.createTrade(t, user.ID, "AAPL", models.StatusOpen, 0, "")

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, multipartUpload(t, trade.ID, "breakout.PNG", []byte("png-data"), "Daily breakout"), user.ID)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Chart/Image uploaded successfully!", body["message"])
		assert.NotZero(t, body["image_id"])
		imageURL := body["image_url"].(string)
		assert.True(t, strings.HasPrefix(imageURL, "/media/trade_images/"))
		assert.True(t, strings.HasSuffix(imageURL, ".png"))
		assert.FileExists(t, env.mediaPath(strings.TrimPrefix(imageURL, "/media/")))
	})

	testCases := []struct {
		name     string
		filename string
		content  []byte
		caption  string
		field    string
	}{
		{"missing file", "", nil, "", "image"},
		{"wrong extension", "notes.txt", []byte("hello"), "", "image"},
		{"too large", "big.jpg", bytes.Repeat([]byte("x"), 2<<10), "", "image"},
		{"long caption", "ok.gif", []byte("gif"), strings.Repeat("c", 256), "caption"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, multipartUpload(t, trade.ID, tc.filename, tc.content, tc.caption), user.ID)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeJSON(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Error uploading chart. Please try again.", body["message"])
			errs := body["errors"].(map[string]interface{})
			assert.Contains(t, errs, tc.field)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.TradeImage{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUploadImageWrongMethod(t *testing.T) {
	env := setupEnv(t)
	env.router.HandleMethodNotAllowed = true
	user := env.createUser(t, "alice@example.com")
	trade := env.createTrade(t, user.ID, "AAPL", models.StatusOpen, 0, "")

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/trades/%d/images", trade.ID), nil)
	rec := env.do(t, req, user.ID)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListAndDeleteImages(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "alice@example.com")
	trade := env.createTrade(t, user.ID, "AAPL", models.StatusOpen, 0, "")

	older := models.TradeImage{TradeID: trade.ID, Path: "trade_images/old.png", Caption: "entry",
		CreatedAt: time.Date(2024, 2, 3, 9, 5, 0, 0, time.UTC)}
	newer := models.TradeImage{TradeID: trade.ID, Path: "trade_images/new.png", Caption: "exit",
		CreatedAt: time.Date(2024, 2, 3, 15, 45, 0, 0, time.UTC)}
	require.NoError(t, env.db.Create(&older).Error)
	require.NoError(t, env.db.Create(&newer).Error)

	listPath := fmt.Sprintf("/trades/%d/images", trade.ID)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, listPath, nil), user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"images": [
		{"id": %d, "url": "/media/trade_images/new.png", "caption": "exit", "created_at": "Feb 03, 2024 03:45 PM"},
		{"id": %d, "url": "/media/trade_images/old.png", "caption": "entry", "created_at": "Feb 03, 2024 09:05 AM"}
	]}`, newer.ID, older.ID), rec.Body.String())

	deletePath := fmt.Sprintf("%s/%d", listPath, older.ID)
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, deletePath, nil), user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "message": "Image deleted successfully!"}`, rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, deletePath, nil), user.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	otherTrade := env.createTrade(t, user.ID, "MSFT", models.StatusOpen, 1, "")
	rec = env.do(t, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/trades/%d/images/%d", otherTrade.ID, newer.ID), nil), user.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code, "image must belong to the trade in the path")
}
