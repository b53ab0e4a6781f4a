package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/observability"
	"github.com/goodabcdef/instagram-project/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	MaxImageDimension           = 1080
	// MaxSourcePixels caps width*height before decoding.
	MaxSourcePixels = 40_000_000
	WebPQuality                 = 80
	imageKeyPrefix              = "posts"
)

// UploadImageInput is a raw upload as received from a multipart form.
type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// StoredImage is the result of a successful upload.
type StoredImage struct {
	URL    string
	Key    string
	Width  int
	Height int
}

// ImageService validates, normalizes and stores post images.
type ImageService struct {
	store              storage.Store
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewImageService(store storage.Store, maxUploadSizeBytes int64) *ImageService {
	if maxUploadSizeBytes <= 0 {
		maxUploadSizeBytes = DefaultImageMaxUploadSizeMB * 1024 * 1024
	}
	return &ImageService{store: store, maxUploadSizeBytes: maxUploadSizeBytes, now: time.Now}
}

// MaxUploadBytes is the largest accepted upload.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload checks type and size, shrinks the image to fit MaxImageDimension,
// re-encodes it as WebP and writes it to the store.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*StoredImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if !strings.HasPrefix(normalizeContentType(in.ContentType), "image/") {
		return nil, models.NewUnsupportedMediaError("Only image files can be uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewPayloadTooLargeError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewUnsupportedMediaError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewUnsupportedMediaError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, models.NewPayloadTooLargeError(fmt.Sprintf("Image dimensions too large (max %d megapixels)", MaxSourcePixels/1_000_000))
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewUnsupportedMediaError("Invalid image file")
	}

	resized := resizeToFit(decoded, MaxImageDimension, MaxImageDimension)
	encoded, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := storage.NewObjectKey(imageKeyPrefix, ".webp", s.now())
	url, err := s.store.Put(ctx, key, "image/webp", encoded)
	observability.ImageUploads.WithLabelValues(s.store.Name(), observability.Outcome(err)).Inc()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := resized.Bounds()
	return &StoredImage{URL: url, Key: key, Width: b.Dx(), Height: b.Dy()}, nil
}

// Remove deletes a stored image. Failures are logged, not returned.
func (s *ImageService) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete stored image", "key", key, "error", err)
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}
