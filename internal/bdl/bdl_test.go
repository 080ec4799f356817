package bdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdlgeom/pkg/contract"
)

const sampleINP = `INPUT ..
$ ---------------------------------------------------------
$ 参数与楼层
$ ---------------------------------------------------------
PARAMETER
   "FlrHt" = 12
   ..
"Floor 1" = FLOOR
   Z                = 0
   AZIMUTH          = 0
   SPACE-HEIGHT     = {#pa("FlrHt")}
   ..
"Space 1 Plg" = POLYGON
   V1 = ( 0, 0 )
   V2 = ( 10, 0 )
   V3 = ( 10, 10 )
   V4 = ( 0, 10 )
   ..
"Space 1" = SPACE
   SHAPE   = POLYGON
   POLYGON = "Space 1 Plg"
   HEIGHT  = 10
   ..
"Wall A" = EXTERIOR-WALL
   LOCATION = SPACE-V1   $ 第一条边
   ..
"Win A" = WINDOW
   X = 2  Y = 2  WIDTH = 3  HEIGHT = 3
   ..
"Space 2" = SPACE
   SHAPE   = POLYGON
   POLYGON = "Space 1 Plg"
   ..
"Wall B" = INTERIOR-WALL
   LOCATION = SPACE-V2
   ..
"Floor 2" = FLOOR
   Z = 12
   ..
END ..
STOP ..
`

// UT-BDL-01: 注释剥离与换行归一
func TestNormalize(t *testing.T) {
	got := Normalize("\"a $b\" = X\r\n  K = 1 $ comment\r\n..")
	assert.Equal(t, "\"a $b\" = X\n  K = 1 \n..", got)
}

// UT-BDL-02: 分块与行号
func TestTokenizeBlocks(t *testing.T) {
	blocks, err := Tokenize("\"A\" = FLOOR\n Z = 0\n..\n\n\"B\" = SPACE\n..\n  \n")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Line)
	assert.Equal(t, 5, blocks[1].Line)
	assert.Equal(t, "\"B\" = SPACE", blocks[1].Text)
}

// UT-BDL-03: 终止符位于引号内不切分；引号未闭合报错
func TestTokenizeQuotes(t *testing.T) {
	blocks, err := Tokenize("\"odd..name\" = SPACE\n H = 1\n..")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	_, err = Tokenize("\"A\" = SPACE\n\n H = \"open\n..")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrParse))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

// UT-BDL-04: 块解析、数值强制与原样文本
func TestParseBlock(t *testing.T) {
	p, ok, err := ParseBlock(Block{Text: `"S1" = space LIKE "S0" HEIGHT = 10.5 POLYGON = "P 1" V1 = ( 1, 2 ) REF = SPACE-V3 BAD = 1.2.3`, Line: 7})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "S1", p.Name)
	assert.Equal(t, "SPACE", p.Command)
	assert.Equal(t, "S0", p.Like)
	assert.Equal(t, []string{"HEIGHT", "POLYGON", "V1", "REF", "BAD"}, p.Keys)
	assert.Equal(t, Number(10.5), p.Values[0])
	assert.Equal(t, Text("P 1"), p.Values[1])
	assert.Equal(t, Text("( 1, 2 )"), p.Values[2])
	assert.Equal(t, Text("SPACE-V3"), p.Values[3])
	assert.Equal(t, Text("1.2.3"), p.Values[4])
}

// UT-BDL-05: 无关键字/无名指令不产生记录；缺少命令关键字报错
func TestParseBlockEdges(t *testing.T) {
	_, ok, err := ParseBlock(Block{Text: `"P" = POLYGON`})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ParseBlock(Block{Text: `END`})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseBlock(Block{Text: `"S" =`, Line: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrParse))

	_, _, err = ParseBlock(Block{Text: `"S" = "T"`})
	require.Error(t, err)
}

// UT-BDL-06: 建表、跨类型共享计数器、PARAMETER 不占号
func TestParseTable(t *testing.T) {
	tb, err := Parse(sampleINP)
	require.NoError(t, err)

	f1, ok := tb.Lookup(CmdFloor, "Floor 1")
	require.True(t, ok)
	assert.Equal(t, 0, f1.Index)
	plg, _ := tb.Lookup(CmdPolygon, "Space 1 Plg")
	assert.Equal(t, 1, plg.Index)
	f2, _ := tb.Lookup(CmdFloor, "Floor 2")
	assert.Equal(t, 7, f2.Index)
	assert.Equal(t, 8, tb.Len())

	v, ok := tb.Param("FlrHt")
	require.True(t, ok)
	assert.Equal(t, Number(12), v)
	h, ok := tb.Number(f1, "SPACE-HEIGHT")
	require.True(t, ok)
	assert.Equal(t, 12.0, h)

	floors := tb.Records(CmdFloor)
	require.Len(t, floors, 2)
	assert.Equal(t, "Floor 1", floors[0].Name)
	assert.Equal(t, []string{"EXTERIOR-WALL", "FLOOR", "INTERIOR-WALL", "POLYGON", "SPACE", "WINDOW"}, tb.Commands())
}

// UT-BDL-07: 同一文本重复解析序号一致
func TestParseIdempotent(t *testing.T) {
	a, err := Parse(sampleINP)
	require.NoError(t, err)
	b, err := Parse(sampleINP)
	require.NoError(t, err)
	for _, cmd := range a.Commands() {
		ra, rb := a.Records(cmd), b.Records(cmd)
		require.Len(t, rb, len(ra))
		for i := range ra {
			assert.Equal(t, ra[i].Index, rb[i].Index)
			assert.Equal(t, ra[i].Name, rb[i].Name)
		}
	}
}

// UT-BDL-08: 参数后写覆盖；LIKE 复制模板字段
func TestParamsAndLike(t *testing.T) {
	tb, err := Parse(`PARAMETER "H" = 1 .. PARAMETER "H" = 2 ..
"A" = SPACE HEIGHT = 5 SHAPE = POLYGON ..
"B" = SPACE LIKE "A" HEIGHT = 7 ..`)
	require.NoError(t, err)
	v, _ := tb.Param("H")
	assert.Equal(t, Number(2), v)
	b, ok := tb.Lookup(CmdSpace, "B")
	require.True(t, ok)
	assert.Equal(t, "POLYGON", b.Text("SHAPE"))
	hb, _ := b.Float("HEIGHT")
	assert.Equal(t, 7.0, hb)
	assert.Len(t, tb.Params(), 1)
}

// UT-BDL-09: 作用域包含性与未命中
func TestChildrenOf(t *testing.T) {
	tb, err := Parse(sampleINP)
	require.NoError(t, err)

	s1 := ChildrenOf(tb, CmdFloor, "Floor 1", CmdSpace)
	assert.Len(t, s1, 2)
	assert.Empty(t, ChildrenOf(tb, CmdFloor, "Floor 2", CmdSpace))
	assert.Empty(t, ChildrenOf(tb, CmdFloor, "Nope", CmdSpace))

	parent, _ := tb.Lookup(CmdSpace, "Space 1")
	next, _ := tb.Lookup(CmdSpace, "Space 2")
	for _, w := range ChildrenOf(tb, CmdSpace, "Space 1", CmdExteriorWall) {
		assert.Greater(t, w.Index, parent.Index)
		assert.Less(t, w.Index, next.Index)
	}
	walls := ChildrenOf(tb, CmdSpace, "Space 1", CmdInteriorWall)
	assert.Empty(t, walls, "Wall B 属于 Space 2")

	surf := SurfacesOf(tb, "Space 2")
	require.Len(t, surf, 1)
	assert.Equal(t, "Wall B", surf[0].Name)

	win := ChildrenWithin(tb, SurfaceCommands, CmdExteriorWall, "Wall A", CmdWindow)
	assert.Contains(t, win, "Win A")
	assert.True(t, IsSurface("roof"))
	assert.False(t, IsSurface("WINDOW"))
}

// UT-BDL-10: 多边形顶点按数字序提取
func TestVertices(t *testing.T) {
	tb, err := Parse(`"P" = POLYGON V2 = ( 1, 0 ) V10 = ( 9, 9 ) V1 = (0,0) V3 = ( bad, 1 ) ..
"S" = SPACE POLYGON = "P" ..`)
	require.NoError(t, err)
	s, _ := tb.Lookup(CmdSpace, "S")
	pts := PolygonOf(tb, s)
	assert.Equal(t, [][2]float64{{0, 0}, {1, 0}, {9, 9}}, pts)
	assert.Nil(t, PolygonOf(tb, &Record{Fields: map[string]Value{}}))
}

// UT-BDL-11: 值变体
func TestParseValue(t *testing.T) {
	assert.Equal(t, Number(-1e3), ParseValue(" -1e3 "))
	assert.Equal(t, Number(0.5), ParseValue(".5"))
	assert.Equal(t, Text("Inf"), ParseValue("Inf"))
	assert.Equal(t, Text(`"a" "b"`), ParseValue(`"a" "b"`))
	f, ok := Text("x").Float()
	assert.False(t, ok)
	assert.Zero(t, f)
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "SPACE-V1", Text(" space-v1 ").Upper())
}
