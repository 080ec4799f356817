package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），Writer 输出到 ./out 目录；
// - 组件名采用仓库内置实现；
// - 每个内置实现的选项键全部列出，值为中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := d
	cfg.Inputs = []string{"-"}
	cfg.Options = Options{
		Reader: map[string]map[string]any{
			"fs": {
				"buf_size":          65536,
				"exclude_dir_names": []string{".git", "node_modules", "vendor"},
				"exts":              []string{".inp"},
			},
		},
		Encoder: map[string]map[string]any{
			"json": {"indent": 2, "precision": 9, "validate": false},
			"yaml": {"indent": 2, "precision": 9, "flow_points": true},
		},
		Writer: map[string]map[string]any{
			"fs": {
				"output_dir": "out",
				"atomic":     true,
				"flat":       true,
				"no_clobber": false,
				"perm_file":  0,
				"perm_dir":   0,
				"buf_size":   65536,
			},
			"sqlite": {"path": "out/bdlgeom.db", "busy_timeout_ms": 5000},
		},
	}
	return cfg
}

// MarshalYAML 以两空格缩进输出配置。
func MarshalYAML(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTemplate 在 dir 下生成 config.yaml 与 .env 模板；已存在的文件跳过，不覆盖。
// 返回实际写出的文件路径。
func WriteTemplate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	b, err := MarshalYAML(DefaultTemplateConfig())
	if err != nil {
		return nil, err
	}
	var written []string
	files := []struct {
		name string
		data []byte
	}{
		{DefaultConfigName + ".yaml", b},
		{".env", []byte(dotEnvTemplate())},
	}
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		ok, err := writeNew(p, f.data)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, p)
		}
	}
	return written, nil
}

// writeNew 仅在文件不存在时创建；已存在返回 false。
func writeNew(path string, data []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

func dotEnvTemplate() string {
	var b strings.Builder
	b.WriteString("# bdlgeom .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件 > 默认值\n")
	b.WriteString("# 空值表示未设置。\n\n")
	keys := []struct{ group, key string }{
		{"# 运行参数", "INPUTS"},
		{"", "CONCURRENCY"},
		{"", "STRICT"},
		{"", "KEEP_GOING"},
		{"", "METRICS_FILE"},
		{"# 日志", "LOGGING_LEVEL"},
		{"", "LOGGING_DIR"},
		{"# 几何", "GEOMETRY_TOLERANCE"},
		{"", "GEOMETRY_DEFAULT_HEIGHT"},
		{"", "GEOMETRY_BUILDING_AZIMUTH"},
		{"# 组件选择", "COMPONENTS_READER"},
		{"", "COMPONENTS_ENCODER"},
		{"", "COMPONENTS_WRITER"},
	}
	for i, k := range keys {
		if k.group != "" {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(k.group + "\n")
		}
		fmt.Fprintf(&b, "%s_%s=\n", EnvPrefix, k.key)
	}
	return b.String()
}
