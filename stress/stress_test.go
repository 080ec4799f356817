package stress

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfgpkg "bdlgeom/internal/config"
	"bdlgeom/internal/pipeline"
)

// baseConfig 构造可运行的最小配置。
func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Logging.Level = "error"
	cfg.Options.Writer["fs"] = map[string]any{"output_dir": outDir, "atomic": false, "flat": true}
	return cfg
}

// genModel 生成 floors 层、每层 spaces 个房间的模型；每个房间一面外墙带一扇窗。
func genModel(floors, spaces int) string {
	var sb strings.Builder
	for f := 0; f < floors; f++ {
		fmt.Fprintf(&sb, "\"L%d\" = FLOOR Z = %d SPACE-HEIGHT = 3 ..\n", f, f*3)
		for s := 0; s < spaces; s++ {
			x := float64(s * 6)
			fmt.Fprintf(&sb, "\"P%d-%d\" = POLYGON V1 = (%g,0) V2 = (%g,0) V3 = (%g,8) V4 = (%g,8) ..\n", f, s, x, x+6, x+6, x)
			fmt.Fprintf(&sb, "\"S%d-%d\" = SPACE SHAPE = POLYGON POLYGON = \"P%d-%d\" ..\n", f, s, f, s)
			fmt.Fprintf(&sb, "\"E%d-%d\" = EXTERIOR-WALL LOCATION = SPACE-V1 ..\n", f, s)
			fmt.Fprintf(&sb, "\"G%d-%d\" = WINDOW X = 1 Y = 1 WIDTH = 2 HEIGHT = 1.2 ..\n", f, s)
			if s > 0 {
				fmt.Fprintf(&sb, "\"I%d-%d\" = INTERIOR-WALL LOCATION = SPACE-V4 ..\n", f, s)
			}
		}
	}
	return sb.String()
}

// TestStress 在不同并发度下运行流水线并记录延迟统计。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	dataDir := t.TempDir()
	const files = 32
	for i := 0; i < files; i++ {
		p := filepath.Join(dataDir, fmt.Sprintf("model-%02d.inp", i))
		require.NoError(t, os.WriteFile(p, []byte(genModel(5, 20)), 0o644))
	}
	levels := []int{1, 4, 8, 16}
	for _, conc := range levels {
		t.Run(fmt.Sprintf("concurrency_%d", conc), func(t *testing.T) {
			const runs = 5
			latencies := make([]time.Duration, 0, runs)
			for i := 0; i < runs; i++ {
				cfg := baseConfig(dataDir, t.TempDir())
				cfg.Concurrency = conc
				comp, set, err := cfgpkg.Assemble(cfg)
				require.NoError(t, err)
				start := time.Now()
				rep, err := pipeline.Run(context.Background(), comp, set, nil)
				dur := time.Since(start)
				require.NoError(t, err, "run %d", i)
				require.Len(t, rep.Files, files)
				require.Equal(t, files*5*20, rep.Rooms())
				latencies = append(latencies, dur)
			}
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			t.Logf("并发%d 平均%v 95%%延迟%v", conc, avg, latencies[idx])
		})
	}
}
