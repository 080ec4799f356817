//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UT-RD-05: 符号链接与非常规文件（仅 Unix）
func TestSymlinksAndSpecialFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real", "t.inp")
	write(t, target, "ok")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.inp")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "dirlink")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.inp"), filepath.Join(root, "dangling.inp")))
	require.NoError(t, syscall.Mkfifo(filepath.Join(root, "fifo.inp"), 0o644))

	ids, _, err := collect(t, New(nil), root)
	require.NoError(t, err)
	var names []string
	for _, id := range ids {
		names = append(names, filepath.Base(id))
	}
	assert.ElementsMatch(t, []string{"link.inp", "t.inp"}, names)

	ids, _, err = collect(t, New(nil), filepath.Join(root, "dirlink"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
