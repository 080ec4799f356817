package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// 键使用 snake_case；未知键在解析期失败。
type Config struct {
	Inputs      []string `mapstructure:"inputs" yaml:"inputs" json:"inputs"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	// Strict: 不支持的空间形状由 Issue 升级为文件级错误。
	Strict bool `mapstructure:"strict" yaml:"strict" json:"strict"`
	// KeepGoing: 单文件失败不取消其余文件。
	KeepGoing bool `mapstructure:"keep_going" yaml:"keep_going" json:"keep_going"`
	// MetricsFile: 非空时在运行结束后写出 Prometheus 文本格式指标。
	MetricsFile string   `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
	Logging     Logging  `mapstructure:"logging" yaml:"logging" json:"logging"`
	Geometry    Geometry `mapstructure:"geometry" yaml:"geometry" json:"geometry"`

	// 组件名选择（空则使用默认名）。
	Components Components `mapstructure:"components" yaml:"components" json:"components"`

	// 各组件 Options 子树，按实现名分组，序列化为 JSON 后传入工厂。
	Options Options `mapstructure:"options" yaml:"options" json:"options"`
}

// Logging: 日志等级与可选的文件输出目录（为空写 stderr）。
type Logging struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	Dir   string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// Geometry: 几何重建参数。
type Geometry struct {
	Tolerance     float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
	DefaultHeight float64 `mapstructure:"default_height" yaml:"default_height" json:"default_height"`
	// BuildingAzimuth: 为空时取 BUILD-PARAMETERS.AZIMUTH。
	BuildingAzimuth *float64 `mapstructure:"building_azimuth" yaml:"building_azimuth,omitempty" json:"building_azimuth,omitempty"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `mapstructure:"reader" yaml:"reader" json:"reader"`
	Encoder string `mapstructure:"encoder" yaml:"encoder" json:"encoder"`
	Writer  string `mapstructure:"writer" yaml:"writer" json:"writer"`
}

// Options: 组件类型 → 实现名 → 选项。仅被选中实现的子树会传入工厂。
type Options struct {
	Reader  map[string]map[string]any `mapstructure:"reader" yaml:"reader" json:"reader"`
	Encoder map[string]map[string]any `mapstructure:"encoder" yaml:"encoder" json:"encoder"`
	Writer  map[string]map[string]any `mapstructure:"writer" yaml:"writer" json:"writer"`
}
