package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bdlgeom/pkg/contract"
)

// EnvPrefix 为环境变量前缀：BDLGEOM_CONCURRENCY、BDLGEOM_LOGGING_LEVEL、BDLGEOM_GEOMETRY_TOLERANCE 等。
const EnvPrefix = "BDLGEOM"

// DefaultConfigName 为未显式指定时在工作目录查找的配置文件基名（config.yaml/config.json）。
const DefaultConfigName = "config"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Concurrency: 1,
		Logging:     Logging{Level: "info"},
		Geometry:    Geometry{Tolerance: 0.001, DefaultHeight: 10},
		Components: Components{
			Reader:  "fs",
			Encoder: "json",
			Writer:  "fs",
		},
		Options: Options{
			Writer: map[string]map[string]any{
				"fs": {"output_dir": "out"},
			},
		},
	}
}

// setDefaults 为每个标量键注册默认值，使 ENV 覆盖对全部键生效。
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("inputs", []string{})
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("keep_going", d.KeepGoing)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("geometry.tolerance", d.Geometry.Tolerance)
	v.SetDefault("geometry.default_height", d.Geometry.DefaultHeight)
	v.SetDefault("components.reader", d.Components.Reader)
	v.SetDefault("components.encoder", d.Components.Encoder)
	v.SetDefault("components.writer", d.Components.Writer)
	v.SetDefault("options.writer.fs.output_dir", "out")
}

// Load 读取配置：默认值 < 配置文件（YAML/JSON）< BDLGEOM_* 环境变量。
// path 为空时在工作目录查找 config.yaml / config.json，未找到不视为错误。
// 解析错误（含未知键）包装为 ErrInvalidInput。
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// building_azimuth 无默认值（缺省取文件中的 BUILD-PARAMETERS）；单独绑定 ENV。
	_ = v.BindEnv("geometry.building_azimuth")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read config %s: %v", contract.ErrInvalidInput, path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("%w: read config: %v", contract.ErrInvalidInput, err)
			}
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode config: %v", contract.ErrInvalidInput, err)
	}
	cfg.Inputs = cleanInputs(cfg.Inputs)
	return cfg, nil
}

// LoadDotEnv 依次加载存在的 .env 文件（不覆盖已有 ENV）；不存在的文件跳过。
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if st.IsDir() {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// cleanInputs 去除空白项（ENV 中的逗号分隔值会带空格）。
func cleanInputs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
