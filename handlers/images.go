package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal/models"
	"trade-journal/storage"
	"trade-journal/templates"
)

const uploadFailed = "Error uploading chart. Please try again."

// multipartOverhead leaves room for the caption and boundaries on top of
// the image size limit.
const multipartOverhead = 1 << 20

// ImageJSON is one entry of the trade image listing.
type ImageJSON struct {
	ID        uint   `json:"id"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	CreatedAt string `json:"created_at"`
}

func uploadError(c *gin.Context, errs FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": uploadFailed,
		"errors":  errs,
	})
}

func (h *Handler) UploadImage(c *gin.Context) {
	trade, ok := h.loadTrade(c, true)
	if !ok {
		return
	}
	if limit := h.media.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	errs := FieldErrors{}
	caption := c.PostForm("caption")
	if utf8.RuneCountInString(caption) > 255 {
		errs.Add("caption", "Ensure this value has at most 255 characters.")
	}

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errs.Add("image", storage.ErrFileTooLarge.Error())
		} else {
			errs.Add("image", "This field is required.")
		}
		uploadError(c, errs)
		return
	}
	if err := h.media.Validate(fh); err != nil {
		errs.Add("image", err.Error())
	}
	if len(errs) > 0 {
		uploadError(c, errs)
		return
	}

	rel, err := h.media.Save(fh)
	if err != nil {
		h.log.Error("Failed to store chart", zap.Uint("trade_id", trade.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": uploadFailed})
		return
	}

	image := models.TradeImage{TradeID: trade.ID, Path: rel, Caption: caption}
	if err := h.store.CreateImage(c.Request.Context(), &image); err != nil {
		if rmErr := h.media.Delete(rel); rmErr != nil {
			h.log.Warn("Failed to remove orphaned chart", zap.String("path", rel), zap.Error(rmErr))
		}
		h.log.Error("Failed to save chart record", zap.Uint("trade_id", trade.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": uploadFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Chart/Image uploaded successfully!",
		"image_id":  image.ID,
		"image_url": h.media.URL(image.Path),
	})
}

func (h *Handler) ListImages(c *gin.Context) {
	trade, ok := h.loadTrade(c, true)
	if !ok {
		return
	}

	images, err := h.store.ListImages(c.Request.Context(), trade.ID)
	if err != nil {
		h.serverError(c, "Failed to load images", err)
		return
	}

	out := make([]ImageJSON, 0, len(images))
	for _, img := range images {
		out = append(out, ImageJSON{
			ID:        img.ID,
			URL:       h.media.URL(img.Path),
			Caption:   img.Caption,
			CreatedAt: img.CreatedAt.Format(templates.DisplayTime),
		})
	}
	c.JSON(http.StatusOK, gin.H{"images": out})
}

func (h *Handler) DeleteImage(c *gin.Context) {
	trade, ok := h.loadTrade(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	imageID, ok := paramID(c, "img_id")
	var image *models.TradeImage
	var err error
	if ok {
		image, err = h.store.GetImage(ctx, trade.ID, imageID)
	}
	if !ok || isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to load image", err)
		return
	}

	if err := h.store.DeleteImage(ctx, image); err != nil {
		h.serverError(c, "Failed to delete image", err)
		return
	}
	if err := h.media.Delete(image.Path); err != nil {
		h.log.Warn("Failed to remove chart file", zap.String("path", image.Path), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully!"})
}
