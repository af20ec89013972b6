package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/bytedance/sonic"

	"github.com/gtoxlili/echoSage/entity"
)

const snapshotVersion = "1"

// snapshotFile 是落盘格式，facts 保持插入顺序
type snapshotFile struct {
	Version string        `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Facts   []entity.Fact `json:"facts"`
}

// Save 先写临时文件再 rename，避免半写入的快照
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(snapshotFile{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Facts:   s.Facts(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 将快照中的事实追加进 store，返回新增条数。文件不存在不算错误。
func (s *Store) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if file.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %q", file.Version)
	}

	before := s.Len()
	for _, f := range file.Facts {
		if err := s.Add(f); err != nil {
			return s.Len() - before, fmt.Errorf("failed to restore %s: %w", f, err)
		}
	}
	return s.Len() - before, nil
}
