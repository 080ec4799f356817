package jsonrooms

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"bdlgeom/pkg/contract"
)

func sample() contract.Building {
	return contract.Building{FileID: "m/a.inp", Rooms: []contract.Room{{
		Name: "S1", Story: "F1",
		Faces: []contract.Face{{
			ID: "W1", Type: contract.FaceWall, BoundaryCondition: contract.Outdoors,
			Boundary: []contract.Point3{{0, 0, 0}, {10, 0, 0}, {10, 0, 10}, {0, 0, 10}},
			Apertures: []contract.SubFace{{ID: "Win", Boundary: []contract.Point3{
				{2, 0, 2}, {5, 0, 2}, {5, 0, 5}, {2, 0, 5.0000000001},
			}}},
		}},
	}}}
}

func encode(t *testing.T, raw string, b contract.Building) (string, error) {
	t.Helper()
	enc, err := New(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, ".json", enc.Ext())
	r, err := enc.Encode(context.Background(), b)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), nil
}

// UT-EJ-01: 编码确定、空切片输出 []、坐标按精度取整
func TestEncodeDeterministic(t *testing.T) {
	a, err := encode(t, `{"validate":true}`, sample())
	require.NoError(t, err)
	b, err := encode(t, `{"validate":true}`, sample())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasSuffix(a, "\n"))
	assert.Contains(t, a, `"doors":[]`)
	assert.Contains(t, a, `[2,0,5]`)

	var back contract.Building
	require.NoError(t, json.Unmarshal([]byte(a), &back))
	assert.Equal(t, "Win", back.Rooms[0].Faces[0].Apertures[0].ID)

	pretty, err := encode(t, `{"indent":2,"precision":-1}`, sample())
	require.NoError(t, err)
	assert.Contains(t, pretty, "\n  \"rooms\"")
	assert.Contains(t, pretty, "5.0000000001")
}

// UT-EJ-02: Schema 校验失败包装 ErrSchemaInvalid
func TestEncodeSchemaInvalid(t *testing.T) {
	bad := sample()
	bad.Rooms[0].Faces[0].Type = "ceiling"
	bad.Rooms[0].Faces[0].Boundary = bad.Rooms[0].Faces[0].Boundary[:2]
	_, err := encode(t, `{"validate":true}`, bad)
	require.ErrorIs(t, err, contract.ErrSchemaInvalid)
	assert.Contains(t, err.Error(), "type")

	// 不校验时照常输出
	_, err = encode(t, `{}`, bad)
	assert.NoError(t, err)
}

func TestNewOptions(t *testing.T) {
	_, err := New(json.RawMessage(`{"x":1}`))
	assert.Error(t, err)
	_, err = New(json.RawMessage(`{"indent":99}`))
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
	_, err = New(nil)
	assert.NoError(t, err)

	enc, _ := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = enc.Encode(ctx, sample())
	assert.ErrorIs(t, err, context.Canceled)

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(Schema()))
	require.NoError(t, err)
	assert.NoError(t, Validate(s, []byte(`{"file_id":"x","rooms":[]}`)))
	assert.ErrorIs(t, Validate(s, []byte(`{"rooms":[]}`)), contract.ErrSchemaInvalid)
}
