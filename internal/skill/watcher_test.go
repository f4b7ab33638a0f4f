package skill

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "okr", FileSkill), "OKR body")
	r, err := NewRegistry(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, r.List(), 3)

	writeFile(t, filepath.Join(dir, "none", FileSkill), "x")
	require.Error(t, r.Reload())
	assert.Len(t, r.List(), 3)

	_, err = r.Get("okr")
	assert.NoError(t, err)
}

func TestWatcher_NoDir(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry("", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, NewWatcher(r, nil, nil).Run(context.Background()), ErrNoSkillsDir)
}

func TestWatcher_ReloadsNewPack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "okr", FileSkill), "OKR body")
	r, err := NewRegistry(dir, zap.NewNop())
	require.NoError(t, err)

	reloaded := make(chan error, 8)
	w := NewWatcher(r, zap.NewNop(), func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	})
	w.delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// 等待监听建立后再修改文件
	require.Eventually(t, func() bool {
		writeFile(t, filepath.Join(dir, "okr", FileSkill), "---\ntitle: OKR v2\n---\nbody")
		select {
		case err := <-reloaded:
			return err == nil
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	s, err := r.Get("okr")
	require.NoError(t, err)
	assert.Equal(t, "OKR v2", s.Title)
}
