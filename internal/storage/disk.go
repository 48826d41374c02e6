// Package storage はアップロードファイルの保存を提供する。
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// allowedExtensions はアップロード可能な画像拡張子の許可リスト。
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// FileStore はアップロードファイル保存のインターフェース。
// 保存に成功した場合、公開URLを返す。
type FileStore interface {
	Save(file multipart.File, header *multipart.FileHeader) (string, error)
}

// DiskStore はローカルディスクにファイルを保存するFileStore実装。
// ファイル名はUUIDで採番し、元のファイル名は拡張子以外使用しない。
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewDiskStore はDiskStoreを生成し、保存先ディレクトリを作成する。
// baseURLは公開URLのプレフィックス（例: "http://localhost:8080"）。
func NewDiskStore(dir, baseURL string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Save はアップロードファイルを検証して保存し、公開URLを返す。
// 拡張子が許可リスト外、またはサイズ超過の場合はInvalidUploadエラーを返す。
func (s *DiskStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", model.NewInvalidUploadError(fmt.Sprintf("file extension %q is not allowed", ext))
	}
	if header.Size > s.maxSize {
		return "", model.NewInvalidUploadError(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	// maxSize+1で打ち切り、申告サイズと実サイズの不一致を検出する
	written, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", model.NewInvalidUploadError(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}

	return s.baseURL + "/static/uploads/" + name, nil
}

// Dir は保存先ディレクトリを返す。静的配信のルート設定に使用する。
func (s *DiskStore) Dir() string {
	return s.dir
}

// compile-time interface check
var _ FileStore = (*DiskStore)(nil)
