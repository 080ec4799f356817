// Package sqlite 将工件写入 SQLite 数据库（artifacts 表，按工件名 upsert）。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"bdlgeom/pkg/contract"
)

// Schema 为 artifacts 表定义。id 在首次写入时生成，覆盖写保持不变。
const Schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	artifact   TEXT NOT NULL UNIQUE,
	bytes      INTEGER NOT NULL,
	content    BLOB NOT NULL,
	written_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_written_at ON artifacts(written_at);
`

// Options 为 SQLite Writer 配置。
type Options struct {
	// Path: 数据库文件路径（必需）；父目录不存在时创建。
	Path string `json:"path"`
	// BusyTimeoutMS: 锁等待（毫秒）；<=0 为 5000。
	BusyTimeoutMS int `json:"busy_timeout_ms"`
}

// Artifact 为一条已存储的工件记录。
type Artifact struct {
	ID        string
	Name      contract.ArtifactID
	Bytes     int64
	WrittenAt string
}

// Store 实现 contract.Writer 与 io.Closer。
type Store struct {
	db *sql.DB
}

var _ contract.Writer = (*Store)(nil)

// New 打开（或创建）数据库并迁移表结构。
func New(opts *Options) (*Store, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("writer sqlite: path required: %w", contract.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("writer sqlite: create dir: %w", err)
	}
	busy := opts.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	db, err := sql.Open("sqlite3", dsn(opts.Path, busy))
	if err != nil {
		return nil, fmt.Errorf("writer sqlite: open: %w", err)
	}
	// 单连接串行写，避免并发 worker 间的 SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("writer sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// dsn 构造 file: URI；路径经转义，'?'、'#'、'%' 不会进入查询串。
func dsn(path string, busyMS int) string {
	q := url.Values{"_pragma": {
		"journal_mode(WAL)",
		fmt.Sprintf("busy_timeout(%d)", busyMS),
		"synchronous(NORMAL)",
	}}
	u := url.URL{Scheme: "file", OmitHost: true, Path: filepath.ToSlash(path), RawQuery: q.Encode()}
	return u.String()
}

// Write 读取 r 的全部字节并按工件名 upsert。
func (s *Store) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(string(id)) == "" {
		return contract.ErrPathInvalid
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, artifact, bytes, content, written_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(artifact) DO UPDATE SET
		   bytes = excluded.bytes, content = excluded.content, written_at = excluded.written_at`,
		uuid.NewString(), string(id), len(content), content, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writer sqlite: upsert %s: %w", id, err)
	}
	return nil
}

// Get 返回工件内容；不存在时返回 os.ErrNotExist。
func (s *Store) Get(ctx context.Context, id contract.ArtifactID) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM artifacts WHERE artifact = ?`, string(id)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("writer sqlite: %s: %w", id, os.ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

// List 按工件名排序列出全部记录（不含内容）。
func (s *Store) List(ctx context.Context) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, artifact, bytes, written_at FROM artifacts ORDER BY artifact`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Artifact
	for rows.Next() {
		var a Artifact
		var name string
		if err := rows.Scan(&a.ID, &name, &a.Bytes, &a.WrittenAt); err != nil {
			return nil, err
		}
		a.Name = contract.ArtifactID(name)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close 关闭数据库连接。
func (s *Store) Close() error { return s.db.Close() }
