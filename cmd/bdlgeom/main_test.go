package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxINP = `"F1" = FLOOR Z = 0 ..
"P" = POLYGON V1 = (0,0) V2 = (10,0) V3 = (10,10) V4 = (0,10) ..
"S1" = SPACE SHAPE = POLYGON POLYGON = "P" HEIGHT = 10 ..
`

func writeConfig(t *testing.T, dir, outDir string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("logging:\n  level: error\noptions:\n  writer:\n    fs:\n      output_dir: %q\n", outDir)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func exec(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// UT-CLI-01: init-config 生成模板，二次执行不覆盖
func TestInitConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "init")
	code, out, _ := exec("init-config", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "config.yaml")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".env"))

	code, out, _ = exec("init-config", dir)
	require.Equal(t, exitOK, code)
	assert.Empty(t, out)
}

// UT-CLI-02: 正常运行写出工件并生成指标文件
func TestRunWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "box.inp")
	require.NoError(t, os.WriteFile(in, []byte(boxINP), 0o644))
	outDir := filepath.Join(dir, "out")
	metrics := filepath.Join(dir, "m", "metrics.prom")

	code, _, stderr := exec("--config", writeConfig(t, dir, outDir), "--metrics-file", metrics, "--concurrency", "2", in)
	require.Equal(t, exitOK, code, stderr)
	raw, err := os.ReadFile(filepath.Join(outDir, "box.inp.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc["rooms"], 1)

	m, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(m), "bdlgeom_rooms_total")
	assert.Contains(t, stderr, "全部完成")
}

// UT-CLI-03: 配置错误返回 3
func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, filepath.Join(dir, "out"))

	code, _, _ := exec("--config", cfg)
	assert.Equal(t, exitConfig, code, "inputs empty")

	code, _, _ = exec("--config", cfg, "--concurrency", "0", "x.inp")
	assert.Equal(t, exitConfig, code)

	code, _, _ = exec("--config", filepath.Join(dir, "missing.yaml"), "x.inp")
	assert.Equal(t, exitConfig, code)

	code, _, _ = exec("--no-such-flag")
	assert.Equal(t, exitConfig, code)

	code, _, _ = exec("--config", cfg, "-", "x.inp")
	assert.Equal(t, exitConfig, code)
}

// UT-CLI-04: 运行期错误返回 1；strict 升级不支持形状
func TestRuntimeErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, filepath.Join(dir, "out"))
	bad := filepath.Join(dir, "bad.inp")
	require.NoError(t, os.WriteFile(bad, []byte(`"F" = FLOOR Z = 0 .. "S" = SPACE POLYGON = "open ..`), 0o644))
	code, _, stderr := exec("--config", cfg, "--status=false", bad)
	assert.Equal(t, exitRuntime, code)
	assert.Contains(t, stderr, "运行失败")

	shape := filepath.Join(dir, "shape.inp")
	require.NoError(t, os.WriteFile(shape, []byte(`"F" = FLOOR Z = 0 .. "S" = SPACE SHAPE = BOX ..`), 0o644))
	code, _, _ = exec("--config", cfg, shape)
	assert.Equal(t, exitOK, code)
	code, _, _ = exec("--config", cfg, "--strict", shape)
	assert.Equal(t, exitRuntime, code)
}

// UT-CLI-05: schema 子命令输出合法 JSON
func TestSchemaCmd(t *testing.T) {
	code, out, _ := exec("schema")
	require.Equal(t, exitOK, code)
	assert.True(t, json.Valid([]byte(out)))
}

// UT-CLI-06: 输出目录预检
func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	code, _, stderr := exec("--config", writeConfig(t, dir, file), "x.inp")
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr, "输出目录")
}
