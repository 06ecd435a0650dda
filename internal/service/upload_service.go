package service

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/shopapi"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageInfo 图片校验结果
type ImageInfo struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// ValidatedImage 校验通过、可随表单提交的图片
type ValidatedImage struct {
	Info   ImageInfo
	Upload shopapi.FileUpload
}

// UploadService 管理端图片上传校验
type UploadService struct {
	cfg config.UploadConfig
}

// NewUploadService 创建上传校验服务
func NewUploadService(cfg config.UploadConfig) *UploadService {
	return &UploadService{cfg: cfg}
}

// ValidateImages 校验表单中的全部图片
func (s *UploadService) ValidateImages(files map[string][]*multipart.FileHeader) ([]ValidatedImage, error) {
	total := 0
	for _, headers := range files {
		total += len(headers)
	}
	if s.cfg.MaxFiles > 0 && total > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: max %d", ErrUploadTooMany, s.cfg.MaxFiles)
	}
	out := make([]ValidatedImage, 0, total)
	for field, headers := range files {
		for _, header := range headers {
			validated, err := s.ValidateImage(field, header)
			if err != nil {
				return nil, err
			}
			out = append(out, *validated)
		}
	}
	return out, nil
}

// ValidateImage 校验单个图片的大小、扩展名、实际类型与尺寸
func (s *UploadService) ValidateImage(field string, file *multipart.FileHeader) (*ValidatedImage, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: empty file", ErrUploadTypeNotAllowed)
	}
	if s.cfg.MaxSize > 0 && file.Size > s.cfg.MaxSize {
		return nil, fmt.Errorf("%w: max %d MB", ErrUploadTooLarge, s.cfg.MaxSize/1024/1024)
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	limit := s.cfg.MaxSize
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: max %d MB", ErrUploadTooLarge, limit/1024/1024)
	}

	info, err := s.inspect(file.Filename, data)
	if err != nil {
		return nil, err
	}
	info.Field = field
	return &ValidatedImage{
		Info: *info,
		Upload: shopapi.FileUpload{
			Field:       field,
			Filename:    file.Filename,
			ContentType: info.ContentType,
			Data:        data,
		},
	}, nil
}

func (s *UploadService) inspect(filename string, data []byte) (*ImageInfo, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(s.cfg.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.AllowedExtensions) {
			return nil, fmt.Errorf("%w: %s", ErrUploadExtNotAllowed, ext)
		}
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	if len(s.cfg.AllowedTypes) > 0 && !containsFold(s.cfg.AllowedTypes, contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, contentType)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, contentType)
	}

	width, height, err := decodeImageDimensions(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadTypeNotAllowed, err)
	}
	if s.cfg.MaxWidth > 0 && width > s.cfg.MaxWidth {
		return nil, fmt.Errorf("%w: width %d > %d", ErrUploadDimensions, width, s.cfg.MaxWidth)
	}
	if s.cfg.MaxHeight > 0 && height > s.cfg.MaxHeight {
		return nil, fmt.Errorf("%w: height %d > %d", ErrUploadDimensions, height, s.cfg.MaxHeight)
	}
	return &ImageInfo{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Width:       width,
		Height:      height,
	}, nil
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if ext == normalized {
			return true
		}
	}
	return false
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		return decodeWebPDimensions(src)
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// decodeWebPDimensions 遍历 RIFF chunk 读取 VP8X / VP8 / VP8L 中的尺寸
func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("invalid webp header")
	}

	chunkHeader := make([]byte, 8)
	for {
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		switch chunkType {
		case "VP8X", "VP8 ", "VP8L":
			data := make([]byte, 10)
			n, err := io.ReadFull(src, data)
			if err != nil && err != io.ErrUnexpectedEOF {
				return 0, 0, err
			}
			return webPChunkDimensions(chunkType, data[:n])
		}

		skip := chunkSize + chunkSize%2
		if _, err := src.Seek(skip, io.SeekCurrent); err != nil {
			return 0, 0, err
		}
	}
}

func webPChunkDimensions(chunkType string, data []byte) (int, int, error) {
	switch chunkType {
	case "VP8X":
		if len(data) < 10 {
			return 0, 0, fmt.Errorf("short VP8X chunk")
		}
		width := 1 + (int(data[4]) | int(data[5])<<8 | int(data[6])<<16)
		height := 1 + (int(data[7]) | int(data[8])<<8 | int(data[9])<<16)
		return width, height, nil
	case "VP8 ":
		if len(data) < 10 {
			return 0, 0, fmt.Errorf("short VP8 chunk")
		}
		width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
		height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
		return width, height, nil
	default:
		if len(data) < 5 || data[0] != 0x2f {
			return 0, 0, fmt.Errorf("invalid VP8L chunk")
		}
		bits := binary.LittleEndian.Uint32(data[1:5])
		return int(bits&0x3FFF) + 1, int((bits>>14)&0x3FFF) + 1, nil
	}
}
