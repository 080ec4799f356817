package yamlrooms

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"bdlgeom/pkg/contract"
)

func sample() contract.Building {
	return contract.Building{FileID: "a.inp", Rooms: []contract.Room{{
		Name: "S1", Story: "F1",
		Faces: []contract.Face{{
			ID: "S1-Floor", Type: contract.FaceFloor, BoundaryCondition: contract.Ground,
			Boundary: []contract.Point3{{0, 0, 0}, {0, 10, 0}, {10, 10, 0}, {10, 0, 0.0000000004}},
		}},
	}}}
}

func encode(t *testing.T, raw string) string {
	t.Helper()
	enc, err := New(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, ".yaml", enc.Ext())
	r, err := enc.Encode(context.Background(), sample())
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

// UT-EY-01: 行内坐标、往返一致
func TestEncodeFlowAndRoundTrip(t *testing.T) {
	out := encode(t, ``)
	assert.Contains(t, out, "- [10, 0, 0]")
	assert.Contains(t, out, "boundary_condition: ground")
	assert.Contains(t, out, "apertures: []")

	var back contract.Building
	require.NoError(t, yaml.Unmarshal([]byte(out), &back))
	assert.Equal(t, sample().Normalized(9), back)

	block := encode(t, `{"flow_points":false,"indent":4}`)
	assert.NotContains(t, block, "[10, 0, 0]")
	assert.Equal(t, out, encode(t, `{}`))
}

func TestNewOptions(t *testing.T) {
	_, err := New(json.RawMessage(`{"nope":true}`))
	assert.Error(t, err)

	enc, err := New(nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = enc.Encode(ctx, sample())
	assert.ErrorIs(t, err, context.Canceled)
}
