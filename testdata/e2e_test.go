package testdata

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	cfgpkg "bdlgeom/internal/config"
	"bdlgeom/internal/diag"
	"bdlgeom/internal/geom"
	"bdlgeom/internal/pipeline"
	"bdlgeom/pkg/contract"
	ejson "bdlgeom/plugins/encoder/jsonrooms"
	wsql "bdlgeom/plugins/writer/sqlite"
)

var modelsDir = filepath.Join("files", "models")

func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Logging.Level = "error"
	cfg.Options.Writer["fs"] = map[string]any{"output_dir": outDir, "atomic": true, "flat": true}
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) (pipeline.Report, error) {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg)
	require.NoError(t, err)
	return pipeline.Run(context.Background(), comp, set, diag.NewNop())
}

func loadBuilding(t *testing.T, path string) contract.Building {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var b contract.Building
	require.NoError(t, json.Unmarshal(raw, &b))
	return b
}

func room(t *testing.T, b contract.Building, name string) contract.Room {
	t.Helper()
	for _, r := range b.Rooms {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "room not found", "name=%s", name)
	return contract.Room{}
}

func face(t *testing.T, r contract.Room, id string) contract.Face {
	t.Helper()
	for _, f := range r.Faces {
		if f.ID == id {
			return f
		}
	}
	require.Failf(t, "face not found", "id=%s", id)
	return contract.Face{}
}

func vecs(ps []contract.Point3) []r3.Vec {
	out := make([]r3.Vec, len(ps))
	for i, p := range ps {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

// E2E-01: 目录输入 → JSON 工件；盒子与两层办公楼
func TestE2EJSON(t *testing.T) {
	out := t.TempDir()
	cfg := baseConfig(modelsDir, out)
	cfg.Options.Encoder["json"]["validate"] = true
	rep, err := runPipeline(t, cfg)
	require.NoError(t, err)
	require.Len(t, rep.Files, 2)
	assert.Equal(t, 3, rep.Rooms())
	assert.Equal(t, 1, rep.Issues(), "Plenum 无轮廓")

	box := loadBuilding(t, filepath.Join(out, "box.inp.json"))
	require.Len(t, box.Rooms, 1)
	br := box.Rooms[0]
	assert.Equal(t, "Ground", br.Story)
	require.Len(t, br.Faces, 6)
	for _, f := range br.Faces {
		assert.Equal(t, contract.Outdoors, f.BoundaryCondition, f.ID)
		assert.InDelta(t, 100, geom.Area(vecs(f.Boundary)), 1e-9, f.ID)
	}
	south := face(t, br, "Box South")
	require.Len(t, south.Apertures, 1)
	assert.InDelta(t, 9, geom.Area(vecs(south.Apertures[0].Boundary)), 1e-9)

	office := loadBuilding(t, filepath.Join(out, "office.inp.json"))
	a := room(t, office, "Office A")
	require.Len(t, a.Faces, 6)
	assert.Equal(t, "L1", a.Story)
	slab := face(t, a, "A Slab")
	assert.Equal(t, contract.FaceFloor, slab.Type)
	assert.Equal(t, contract.Ground, slab.BoundaryCondition)
	assert.Equal(t, contract.Adiabatic, face(t, a, "A North").BoundaryCondition)
	assert.Equal(t, contract.Outdoors, face(t, a, "Office A-W4").BoundaryCondition)
	// 层高来自参数 FlrHt
	assert.InDelta(t, 12, face(t, a, "Office A-Ceiling").Boundary[0][2], 1e-9)
	win := face(t, a, "A South").Apertures
	require.Len(t, win, 1)
	assert.InDelta(t, 20, geom.Area(vecs(win[0].Boundary)), 1e-9)
	require.Len(t, face(t, a, "A East").Doors, 1)

	b := room(t, office, "Office B")
	assert.Equal(t, "L2", b.Story)
	roof := face(t, b, "B Roof")
	assert.Equal(t, contract.FaceRoofCeiling, roof.Type)
	assert.InDelta(t, 22, roof.Boundary[0][2], 1e-9)
	require.Len(t, roof.Apertures, 1)
	assert.InDelta(t, 22, roof.Apertures[0].Boundary[0][2], 1e-9)
	assert.InDelta(t, 12, face(t, b, "Office B-Floor").Boundary[0][2], 1e-9)

	// 工件满足内嵌 Schema
	raw, err := os.ReadFile(filepath.Join(out, "office.inp.json"))
	require.NoError(t, err)
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(ejson.Schema()), gojsonschema.NewBytesLoader(raw))
	require.NoError(t, err)
	assert.True(t, res.Valid(), "%v", res.Errors())
}

// E2E-02: YAML 编码器 + 多并发，输出结构与 JSON 一致
func TestE2EYAML(t *testing.T) {
	out := t.TempDir()
	cfg := baseConfig(modelsDir, out)
	cfg.Components.Encoder = "yaml"
	cfg.Concurrency = 4
	_, err := runPipeline(t, cfg)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, "box.inp.yaml"))
	require.NoError(t, err)
	var b contract.Building
	require.NoError(t, yaml.Unmarshal(raw, &b))
	assert.Equal(t, contract.FileID("files/models/box.inp"), b.FileID)
	require.Len(t, b.Rooms, 1)
	assert.Len(t, b.Rooms[0].Faces, 6)
}

// E2E-03: SQLite Writer 存储工件
func TestE2ESQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "geom.db")
	cfg := baseConfig(modelsDir, "")
	cfg.Components.Writer = "sqlite"
	cfg.Options.Writer["sqlite"]["path"] = dbPath
	comp, set, err := cfgpkg.Assemble(cfg)
	require.NoError(t, err)
	_, err = pipeline.Run(context.Background(), comp, set, nil)
	require.NoError(t, err)
	store, ok := comp.Writer.(*wsql.Store)
	require.True(t, ok)
	defer store.Close()

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	body, err := store.Get(context.Background(), "files/models/office.inp.json")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"Office B"`)
}

// E2E-04: 解析失败返回 parse 分类，strict 模式下不支持形状为文件级错误
func TestE2EErrors(t *testing.T) {
	out := t.TempDir()
	_, err := runPipeline(t, baseConfig(filepath.Join("files", "broken"), out))
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrParse)
	assert.Equal(t, diag.CodeParse, diag.Classify(err))

	model := filepath.Join(t.TempDir(), "shapes.inp")
	require.NoError(t, os.WriteFile(model, []byte(`"F" = FLOOR Z = 0 ..
"S" = SPACE SHAPE = BOX WIDTH = 5 DEPTH = 5 HEIGHT = 3 ..
`), 0o644))
	rep, err := runPipeline(t, baseConfig(model, out))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Issues())

	cfg := baseConfig(model, out)
	cfg.Strict = true
	_, err = runPipeline(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrUnsupportedShape)
	assert.Equal(t, diag.CodeGeometry, diag.Classify(err))
}
