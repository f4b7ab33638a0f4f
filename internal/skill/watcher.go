package skill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDelay 连续保存时合并为一次重载
const DefaultReloadDelay = 500 * time.Millisecond

// ErrNoSkillsDir 注册表没有配置技能包目录
var ErrNoSkillsDir = errors.New("skills dir not configured")

// Watcher 监听技能包目录，文件变化后重载注册表
type Watcher struct {
	registry *Registry
	logger   *zap.Logger
	delay    time.Duration
	onReload func(error)
}

// NewWatcher 创建监听器；onReload 可为 nil，每次重载后以结果调用
func NewWatcher(r *Registry, logger *zap.Logger, onReload func(error)) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{registry: r, logger: logger, delay: DefaultReloadDelay, onReload: onReload}
}

// Run 阻塞监听直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	dir := w.registry.Dir()
	if dir == "" {
		return ErrNoSkillsDir
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, dir); err != nil {
		return err
	}
	w.logger.Info("watching skills dir", zap.String("dir", dir))

	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			// 新建的技能包子目录也要监听
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = fw.Add(ev.Name)
				}
			}
			w.logger.Debug("skills dir changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.delay)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("skills watcher error", zap.Error(err))

		case <-timer.C:
			err := w.registry.Reload()
			if err != nil {
				w.logger.Warn("reload skills failed, keeping previous set", zap.Error(err))
			} else {
				w.logger.Info("skills reloaded", zap.Int("count", len(w.registry.List())))
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}

// 监听目录本身和一级子目录（每个子目录是一个技能包）
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	if err := fw.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := fw.Add(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
