package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"bdlgeom/internal/pipeline"
	"bdlgeom/internal/synth"
	"bdlgeom/pkg/contract"
	"bdlgeom/pkg/registry"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: config: %s", contract.ErrInvalidInput, fmt.Sprintf(format, a...))
}

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return invalid("inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return invalid("input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return invalid("'-' cannot be mixed with other roots")
	}
	if cfg.Concurrency < 1 {
		return invalid("concurrency must be >= 1")
	}
	if lv := strings.ToLower(strings.TrimSpace(cfg.Logging.Level)); lv != "" && !logLevels[lv] {
		return invalid("logging.level %q not in debug|info|warn|error", cfg.Logging.Level)
	}
	if !(cfg.Geometry.Tolerance > 0) {
		return invalid("geometry.tolerance must be > 0")
	}
	if !(cfg.Geometry.DefaultHeight > 0) {
		return invalid("geometry.default_height must be > 0")
	}
	if az := cfg.Geometry.BuildingAzimuth; az != nil && (math.IsNaN(*az) || math.IsInf(*az, 0)) {
		return invalid("geometry.building_azimuth must be finite")
	}
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return invalid("reader %q not registered (have %v)", name, registry.Names(registry.Reader))
	}
	if name := effName(cfg.Components.Encoder, d.Encoder); registry.Encoder[name] == nil {
		return invalid("encoder %q not registered (have %v)", name, registry.Names(registry.Encoder))
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return invalid("writer %q not registered (have %v)", name, registry.Names(registry.Writer))
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
// Settings.Terminal 由调用方设置。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults().Components
	rn := effName(cfg.Components.Reader, d.Reader)
	en := effName(cfg.Components.Encoder, d.Encoder)
	wn := effName(cfg.Components.Writer, d.Writer)

	raw, err := rawOptions(cfg.Options.Reader, rn)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	r, err := registry.Reader[rn](raw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader %s: %w", rn, err)
	}
	if raw, err = rawOptions(cfg.Options.Encoder, en); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	enc, err := registry.Encoder[en](raw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("encoder %s: %w", en, err)
	}
	if raw, err = rawOptions(cfg.Options.Writer, wn); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	w, err := registry.Writer[wn](raw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer %s: %w", wn, err)
	}

	comp := pipeline.Components{
		Reader:  r,
		Synth:   synth.New(SynthOptions(cfg)),
		Encoder: enc,
		Writer:  w,
	}
	set := pipeline.Settings{
		Inputs:      append([]string(nil), cfg.Inputs...),
		Concurrency: cfg.Concurrency,
		KeepGoing:   cfg.KeepGoing,
	}
	return comp, set, nil
}

// SynthOptions 由几何配置推导重建选项。
func SynthOptions(cfg Config) synth.Options {
	o := synth.Options{
		Tolerance:     cfg.Geometry.Tolerance,
		DefaultHeight: cfg.Geometry.DefaultHeight,
		Strict:        cfg.Strict,
	}
	if az := cfg.Geometry.BuildingAzimuth; az != nil {
		v := *az
		o.BuildingAzimuth = &v
	}
	return o
}

// rawOptions 取出实现名对应的子树并序列化为 JSON；缺失时返回 nil（工厂使用默认值）。
func rawOptions(m map[string]map[string]any, name string) (json.RawMessage, error) {
	sub, ok := m[name]
	if !ok || len(sub) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return nil, invalid("options for %s: %v", name, err)
	}
	return b, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
