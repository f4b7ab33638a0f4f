package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 下载链接有效期
const downloadTTL = 30 * time.Minute

type download struct {
	filePath    string
	fileName    string
	contentType string
	expiresAt   time.Time
}

// downloadStore 导出文件的临时下载令牌；令牌过期或清空时连同导出文件一起删除
type downloadStore struct {
	mu     sync.Mutex
	items  map[string]download
	now    func() time.Time
	logger *zap.Logger
}

func newDownloadStore(logger *zap.Logger) *downloadStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &downloadStore{
		items:  make(map[string]download),
		now:    time.Now,
		logger: logger,
	}
}

func (s *downloadStore) put(filePath, fileName, contentType string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = newRandomToken(24)
	s.items[token] = download{
		filePath:    filePath,
		fileName:    fileName,
		contentType: contentType,
		expiresAt:   now.Add(ttl),
	}
	return token
}

func (s *downloadStore) get(token string) (download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	v, ok := s.items[token]
	return v, ok
}

func (s *downloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[token]; ok {
		delete(s.items, token)
		s.removeFile(v.filePath)
	}
}

// clear 删除全部令牌和导出文件（服务退出时调用）
func (s *downloadStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.items {
		delete(s.items, k)
		s.removeFile(v.filePath)
	}
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
			s.removeFile(v.filePath)
		}
	}
}

func (s *downloadStore) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("remove export file failed", zap.String("file", path), zap.Error(err))
	}
}

// removeStaleExports 清掉上次运行遗留的导出文件（它们已没有令牌可以访问）
func removeStaleExports(dir string, logger *zap.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("remove stale export failed", zap.String("file", e.Name()), zap.Error(err))
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
