package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"time"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"seefood/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 畫面影像解碼服務，輸出可直接交給分類器的位元組
type Service struct {
	maxSizeBytes int64
	httpClient   *resty.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		httpClient:   resty.New().SetTimeout(30 * time.Second),
	}
}

// Decode 將 data URI 或 http(s) URL 轉為影像位元組。
// JPEG 與 PNG 原樣回傳，其他支援格式轉成 JPEG。
func (s *Service) Decode(ctx context.Context, imageData string) ([]byte, error) {
	imageData = strings.TrimSpace(imageData)

	var raw []byte
	var err error
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		raw, err = s.download(ctx, imageData)
	} else {
		raw, err = decodeDataURI(imageData)
	}
	if err != nil {
		return nil, err
	}

	// 檢查文件大小
	if int64(len(raw)) > s.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.Wrap(
			fmt.Errorf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("unsupported image format: %s", format))
	}

	if format == "jpeg" || format == "png" {
		return raw, nil
	}

	// 將圖片轉換為 JPEG 格式
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	common.LogDebug("圖片已轉為 JPEG", zap.String("format", format), zap.Int("size", buf.Len()))
	return buf.Bytes(), nil
}

// Validate 只驗證不回傳內容
func (s *Service) Validate(ctx context.Context, imageData string) error {
	_, err := s.Decode(ctx, imageData)
	return err
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrInvalidImageFormat.Wrap(
			fmt.Errorf("failed to download image: status code %d", resp.StatusCode()))
	}
	return resp.Body(), nil
}

// decodeDataURI 解析 data:image/...;base64,<payload>
func decodeDataURI(imageData string) ([]byte, error) {
	if !strings.HasPrefix(imageData, "data:image/") {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid image data format"))
	}

	parts := strings.SplitN(imageData, ",", 2)
	if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid base64 data format"))
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
	}
	return decoded, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
