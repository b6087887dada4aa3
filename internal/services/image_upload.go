package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotImage     = errors.New("only image files are allowed")
	ErrFileTooLarge = errors.New("file too large")
)

// ImageUploadResult 上传结果
type ImageUploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// LocalImageStore 把图片保存到本地目录，由 gin 的静态路由对外提供
type LocalImageStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	now       func() time.Time
}

func NewLocalImageStore(dir, urlPrefix string, maxBytes int64) *LocalImageStore {
	return &LocalImageStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SecureFilename 去掉路径和不安全字符
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return name
}

// Save 校验大小与类型后写入磁盘。类型按文件内容判断，不看客户端给的 Content-Type。
// 文件名加时间戳前缀避免覆盖
func (s *LocalImageStore) Save(file multipart.File, header *multipart.FileHeader) (*ImageUploadResult, error) {
	if header.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrNotImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}

	filename := fmt.Sprintf("%d_%s", s.now().UnixNano(), SecureFilename(header.Filename))
	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	// 多读一个字节用来发现超限的流
	n, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if n > s.maxBytes {
		dst.Close()
		_ = os.Remove(filepath.Join(s.dir, filename))
		return nil, ErrFileTooLarge
	}

	return &ImageUploadResult{
		URL:      s.urlPrefix + "/" + filename,
		Filename: filename,
	}, nil
}
