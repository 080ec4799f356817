// Package filesystem 提供基于文件系统与 STDIN 的 INP Reader。
package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bdlgeom/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames: 扫描目录时跳过这些目录名（基名、大小写不敏感）。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// Exts: 目录扫描时接受的扩展名（大小写不敏感）。默认 [".inp"]。
	// 显式给出的单文件 root 不受此限制。
	Exts []string `json:"exts"`
}

// FileSystem 实现 contract.Reader。
type FileSystem struct {
	bufSize    int
	excludeDir map[string]struct{}
	exts       map[string]struct{}
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{
		bufSize:    64 * 1024,
		excludeDir: make(map[string]struct{}),
		exts:       map[string]struct{}{".inp": {}},
	}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	for _, name := range opts.ExcludeDirNames {
		if name = strings.Trim(name, `/\`); name != "" {
			r.excludeDir[strings.ToLower(name)] = struct{}{}
		}
	}
	if len(opts.Exts) > 0 {
		r.exts = make(map[string]struct{}, len(opts.Exts))
		for _, e := range opts.Exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			r.exts[e] = struct{}{}
		}
	}
	return r
}

// Iterate 遍历 roots，按字典序对每个候选文件调用 yield；yield 负责关闭 rc。
// roots 为空或仅包含 "-" 时读取 STDIN（FileID 为 "stdin"）。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(contract.FileID("stdin"), r.wrap(os.Stdin))
	}
	for _, s := range roots {
		if s == "-" {
			return fmt.Errorf("stdin '-' cannot be mixed with other roots: %w", contract.ErrInvalidInput)
		}
	}
	for _, root := range roots {
		if err := r.iterateOne(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateOne(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		// 单文件链接跟随到常规文件；目录链接忽略
		if regular, err := isRegularTarget(root); err != nil || !regular {
			return err
		}
		return r.emit(root, yield)
	}
	if info.IsDir() {
		return r.walk(ctx, root, yield)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return r.emit(root, yield)
}

func (r *FileSystem) walk(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if _, skip := r.excludeDir[strings.ToLower(d.Name())]; skip && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := r.exts[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil
		}
		switch {
		case d.Type()&os.ModeSymlink != 0:
			regular, err := isRegularTarget(p)
			if err != nil {
				return err
			}
			if !regular {
				return nil
			}
		case !d.Type().IsRegular():
			// FIFO / 设备等
			return nil
		}
		return r.emit(p, yield)
	})
}

func isRegularTarget(p string) (bool, error) {
	t, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// 悬空链接忽略
			return false, nil
		}
		return false, err
	}
	return t.Mode().IsRegular(), nil
}

func (r *FileSystem) emit(p string, yield func(contract.FileID, io.ReadCloser) error) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	rc := r.wrap(f)
	if err := yield(contract.NormalizeFileID(p), rc); err != nil {
		_ = rc.Close()
		return err
	}
	return nil
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func (r *FileSystem) wrap(c io.ReadCloser) *bufferedCloser {
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, r.bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }
