package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	DefaultImageMaxWidth        = 1200
	JPEGQuality                 = 85
	WebPQuality                 = 80

	ImageURLPrefix = "/api/images/"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	repo               repository.ImageRepository
	maxUploadSizeBytes int64
	maxUploadSizeMB    int
	maxWidth           int
}

func NewImageService(repo repository.ImageRepository, cfg *config.Config) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	maxWidth := DefaultImageMaxWidth

	if cfg != nil {
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.ImageMaxWidth > 0 {
			maxWidth = cfg.ImageMaxWidth
		}
	}

	return &ImageService{
		repo:               repo,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		maxUploadSizeMB:    maxUploadSizeMB,
		maxWidth:           maxWidth,
	}
}

// URL returns the public path an image is served from.
func (s *ImageService) URL(id string) string {
	return ImageURLPrefix + id
}

// Upload validates, size-normalizes and stores an image.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	span, ctx := observability.StartServiceSpan(ctx, "image", "upload",
		attribute.String("image.declared_type", in.ContentType),
		attribute.Int("image.bytes", len(in.Content)),
	)
	defer span.End()

	img, err := s.upload(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = models.CodeInternal
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		}
		span.SetError(err)
	}
	span.AddAttributes(attribute.String("image.outcome", outcome))
	observability.ImageUploads.WithLabelValues(outcome).Inc()
	return img, err
}

func (s *ImageService) upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if len(in.Content) == 0 {
		return nil, models.NewImageError(models.CodeNoFile, "No file provided", nil)
	}
	declared := normalizeContentType(in.ContentType)
	if _, ok := allowedImageTypes[declared]; !ok {
		return nil, invalidTypeError()
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewImageError(models.CodeFileTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB.", s.maxUploadSizeMB), nil)
	}
	if _, ok := allowedImageTypes[normalizeContentType(http.DetectContentType(in.Content))]; !ok {
		return nil, invalidTypeError()
	}

	start := time.Now()
	data, width, height, err := s.normalize(in.Content)
	observability.ImageProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		middleware.Logger.WarnContext(ctx, "image processing failed",
			slog.String("filename", in.Filename), slog.String("error", err.Error()))
		return nil, processingError(err)
	}

	id := uuid.NewString()
	record := &models.Image{
		ID:          id,
		Filename:    id + "." + allowedImageTypes[declared],
		ContentType: declared,
		Data:        data,
		Width:       width,
		Height:      height,
		SizeBytes:   int64(len(data)),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		middleware.Logger.ErrorContext(ctx, "image persist failed",
			slog.String("image_id", id), slog.String("error", err.Error()))
		return nil, processingError(err)
	}
	return record, nil
}

// normalize decodes and re-encodes the image in its source format, capping
// the width at maxWidth and keeping the aspect ratio. Re-encoding drops
// metadata such as EXIF. Animated GIFs within bounds keep their original
// bytes so every frame survives.
func (s *ImageService) normalize(src []byte) ([]byte, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode config: %w", err)
	}
	if format == "gif" && cfg.Width <= s.maxWidth && isAnimatedGIF(src) {
		return src, cfg.Width, cfg.Height, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode: %w", err)
	}
	resized := resizeToWidth(decoded, s.maxWidth)
	out, err := encodeAs(format, resized)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode %s: %w", format, err)
	}
	b := resized.Bounds()
	return out, b.Dx(), b.Dy(), nil
}

func isAnimatedGIF(src []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(src))
	return err == nil && len(g.Image) > 1
}

// Get returns a stored image. id must be a UUID.
func (s *ImageService) Get(ctx context.Context, id string) (*models.Image, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("Image ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.NewValidationError("Invalid image ID")
	}
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "Image not found"}
		}
		return nil, models.NewInternalError(err)
	}
	return img, nil
}

func resizeToWidth(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth || w <= 0 || h <= 0 {
		return src
	}
	newH := int(float64(h) * float64(maxWidth) / float64(w))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeAs(format string, img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(buf, img)
	case "gif":
		err = gif.Encode(buf, img, nil)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: WebPQuality})
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}

func invalidTypeError() error {
	return models.NewImageError(models.CodeInvalidType,
		"Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed.", nil)
}

func processingError(err error) error {
	return models.NewImageError(models.CodeProcessingFailed, "Failed to upload image", err)
}
