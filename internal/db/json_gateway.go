package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"onebite/internal/models"
)

const (
	postsFile    = "posts.json"
	countersFile = "post_counts.json"
)

// JSONFileGateway 帖子和发帖计数各存一个 JSON 文件。
// 写入先落临时文件再 rename，进程中途退出不会留下半个文件。
type JSONFileGateway struct {
	dir string
}

func NewJSONFileGateway(dir string) *JSONFileGateway {
	return &JSONFileGateway{dir: dir}
}

// Load 文件不存在视为空数据
func (g *JSONFileGateway) Load(ctx context.Context) ([]models.Post, map[string]int, error) {
	posts := []models.Post{}
	if err := readJSON(filepath.Join(g.dir, postsFile), &posts); err != nil {
		return nil, nil, err
	}
	counters := map[string]int{}
	if err := readJSON(filepath.Join(g.dir, countersFile), &counters); err != nil {
		return nil, nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	if counters == nil {
		counters = map[string]int{}
	}
	return posts, counters, nil
}

func (g *JSONFileGateway) Save(ctx context.Context, posts []models.Post, counters map[string]int) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	if err := writeJSON(filepath.Join(g.dir, postsFile), posts); err != nil {
		return err
	}
	return writeJSON(filepath.Join(g.dir, countersFile), counters)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
