package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/storage"
)

const (
	MaxPhotoSize   = 5 << 20
	photoFormField = "photo"
)

type UploadHTTP struct {
	Images storage.ImageStore
}

// UploadPhoto accepts one multipart image and answers with its public URL.
func (h *UploadHTTP) UploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.upload")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(photoFormField)
	if err != nil {
		l.Warn("upload_error", "status", 400, "reason", "no file", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}
	if fh.Size > MaxPhotoSize {
		l.Warn("upload_error", "status", 400, "reason", "file too large", "size", fh.Size)
		return echo.NewHTTPError(http.StatusBadRequest, "file is larger than 5MB")
	}

	src, err := fh.Open()
	if err != nil {
		return fail(l, "upload_error", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fail(l, "upload_error", err)
	}
	head = head[:n]

	// The stored type comes from the content, never from the client's
	// filename or declared type.
	declared := fh.Header.Get(echo.HeaderContentType)
	sniffed := http.DetectContentType(head)
	if _, ok := storage.ExtensionFor(sniffed); !ok || !strings.HasPrefix(declared, "image/") {
		l.Warn("upload_error", "status", 400, "reason", "not an image", "declared", declared, "sniffed", sniffed)
		return echo.NewHTTPError(http.StatusBadRequest, "only jpeg, png, gif and webp images are accepted")
	}

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(src, MaxPhotoSize-int64(n)))
	url, err := h.Images.Save(ctx, userID, sniffed, body)
	if err != nil {
		return fail(l, "upload_error", err)
	}

	l.Info("upload_success", "url", url, "size", fh.Size, "type", sniffed)
	return c.JSON(http.StatusOK, echo.Map{"imageUrl": url})
}
