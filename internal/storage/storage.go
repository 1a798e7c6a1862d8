// Package storage is the asset ingestion collaborator: it accepts raw uploads,
// normalizes their filenames and returns stable URLs for the library.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrMissingFile  = errors.New("no file received")
	ErrNotImage     = errors.New("uploaded file is not an image")
	ErrInvalidName  = errors.New("invalid file name")
	ErrFileNotFound = errors.New("file not found")
)

// Upload 업로드된 원본 파일
type Upload struct {
	Filename string
	Data     []byte
}

// StoredFile 저장 결과
type StoredFile struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	ThumbnailURL string `json:"thumbnail"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

// Ingestor stores uploads and hands back fetchable URLs.
type Ingestor interface {
	Store(ctx context.Context, up Upload) (*StoredFile, error)
}

var whitespace = regexp.MustCompile(`\s+`)

// SanitizeFilename replaces whitespace runs with "-" and drops any directory part.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "-")
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// validName reports whether name is a single safe path element.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && SanitizeFilename(name) == name
}

// inspect runs the presence and content checks shared by every Ingestor.
func inspect(up Upload) (string, string, error) {
	if len(up.Data) == 0 {
		return "", "", ErrMissingFile
	}
	name := SanitizeFilename(up.Filename)
	if name == "" || name == thumbDir {
		return "", "", ErrInvalidName
	}
	mt := mimetype.Detect(up.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return name, mt.String(), nil
}

// thumbnail encodes a square thumbnail in the format implied by name.
// ok is false when the image cannot be decoded or re-encoded (svg, webp).
func thumbnail(data []byte, name string, size int) ([]byte, bool) {
	if size <= 0 {
		return nil, false
	}
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return nil, false
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false
	}
	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(80)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// thumbDir 썸네일 하위 경로. 업로드 이름은 경로 구분자를 가질 수 없어 충돌하지 않는다
const thumbDir = "thumbs"

func thumbnailName(name string) string {
	return thumbDir + "/" + name
}
