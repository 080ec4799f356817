package diag

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger 为结构化事件日志器（zap 后端，单行 JSON）。
// 事件字段：corr_id / comp / stage(start|finish|warn|error) / code / dur_ms / count / file_id / kv。
type Logger struct {
	corrID string
	z      *zap.Logger
	sink   *RotatingFile
}

// NewLogger 按 level 初始化。dir 非空时写入 dir 下的轮转文件（10MiB），否则写 stderr。
// corrID 为空时生成 uuid。
func NewLogger(corrID, level, dir string) *Logger {
	if strings.TrimSpace(corrID) == "" {
		corrID = uuid.NewString()
	}
	var ws zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var sink *RotatingFile
	if strings.TrimSpace(dir) != "" {
		sink = NewRotatingFile(dir, 10*1024*1024)
		ws = sink
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), ws, zap.NewAtomicLevelAt(parseLevel(level)))
	return &Logger{corrID: corrID, z: zap.New(core).With(zap.String("corr_id", corrID)), sink: sink}
}

// NewNop 返回丢弃全部输出的日志器。
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

// NewForTest 返回输出到 testing.TB 的日志器。
func NewForTest(t testing.TB) *Logger {
	return &Logger{corrID: "test", z: zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel))}
}

// FromZap 包装已有的 *zap.Logger。
func FromZap(z *zap.Logger) *Logger { return &Logger{z: z} }

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// CorrID 返回本次运行的关联 ID。
func (l *Logger) CorrID() string { return l.corrID }

// Sync 刷新缓冲并关闭文件输出。
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	err := l.z.Sync()
	if l.sink != nil {
		if cerr := l.sink.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func event(comp, stage, fileID string, kv map[string]string) []zap.Field {
	fs := []zap.Field{zap.String("comp", comp), zap.String("stage", stage)}
	if fileID != "" {
		fs = append(fs, zap.String("file_id", fileID))
	}
	if len(kv) > 0 {
		fs = append(fs, zap.Any("kv", kv))
	}
	return fs
}

func since(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return time.Since(*t).Milliseconds()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWithKV(comp, msg, "", nil)
}

// StartWith 记录带 file_id 的 start。
func (l *Logger) StartWith(comp, msg, fileID string) *Timer {
	return l.StartWithKV(comp, msg, fileID, nil)
}

// StartWithKV 记录带 file_id 与键值的 start。
func (l *Logger) StartWithKV(comp, msg, fileID string, kv map[string]string) *Timer {
	l.z.Info(msg, event(comp, "start", fileID, kv)...)
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// Warn 记录非致命异常（几何 Issue 等）。
func (l *Logger) Warn(comp, code, msg, fileID string, kv map[string]string) {
	l.z.Warn(msg, append(event(comp, "warn", fileID, kv), zap.String("code", code))...)
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, "", nil)
}

// ErrorWith 支持 file_id。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, fileID string) {
	l.ErrorWithKV(comp, code, msg, durSince, fileID, nil)
}

// ErrorWithKV 支持附带键值对（例如空间名、行号）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, fileID string, kv map[string]string) {
	fs := append(event(comp, "error", fileID, kv), zap.String("code", code))
	if d := since(durSince); d > 0 {
		fs = append(fs, zap.Int64("dur_ms", d))
	}
	l.z.Error(msg, fs...)
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.z.Info(msg, append(event(comp, "finish", "", nil),
		zap.Int64("dur_ms", time.Since(start).Milliseconds()), zap.Int64("count", count))...)
}

// DebugStart 输出调试级别的 start 类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, fileID string, kv map[string]string) {
	l.z.Debug(msg, event(comp, "start", fileID, kv)...)
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	t0     time.Time
}

// Since 返回起点，供 ErrorWith 计算耗时。
func (t *Timer) Since() *time.Time {
	if t == nil {
		return nil
	}
	return &t.t0
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	t.l.z.Info(msg, append(event(t.comp, "finish", t.fileID, nil),
		zap.Int64("dur_ms", dur), zap.Int64("count", count))...)
	ObserveDuration(t.comp, "finish", dur)
}
