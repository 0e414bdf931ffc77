package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ByLCY/facture/invoice"
)

// EnvPrefix 是环境变量前缀，例如 FACTURE_HTTP_PORT 对应 http.port。
const EnvPrefix = "FACTURE"

// Config 汇总应用配置：环境变量优先，其次是可选的 facture.yaml。
type Config struct {
	App    AppConfig
	Log    LogConfig
	Render RenderConfig
	HTTP   HTTPConfig
	// Labels 覆盖默认文字，未设置的字段保持默认。
	Labels invoice.Labels
}

// AppConfig 应用基本信息。
type AppConfig struct {
	Env  string // development, production
	Name string
}

// LogConfig 日志级别：trace, debug, info, warn, error。
type LogConfig struct {
	Level string
}

// RenderConfig 渲染相关配置。
type RenderConfig struct {
	// AssetsDir 是相对图片路径（logo、水印）的解析目录。
	AssetsDir string
	// Styles 是样式表路径，为空时使用默认样式。
	Styles string
	// Gap 为块间距，单位 mm，<=0 时使用默认值 1/3 英寸（约 8.47mm）。
	Gap float64
	// Fonts 以名称注册额外字体文件，可在样式表中以 builtin:<name> 引用。
	Fonts map[string]string
}

// HTTPConfig 服务端配置。
type HTTPConfig struct {
	Host      string
	Port      int
	BodyLimit int // 字节
}

// Addr 返回监听地址 host:port。
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load 读取配置。path 为空时在当前目录与 ./config 下查找 facture.yaml，找不到不算错误；
// path 非空时文件必须存在。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	} else {
		v.SetConfigName("facture")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Name: v.GetString("app.name"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Render: RenderConfig{
			AssetsDir: v.GetString("render.assets_dir"),
			Styles:    v.GetString("render.styles"),
			Gap:       v.GetFloat64("render.gap"),
			Fonts:     v.GetStringMapString("render.fonts"),
		},
		HTTP: HTTPConfig{
			Host:      v.GetString("http.host"),
			Port:      v.GetInt("http.port"),
			BodyLimit: v.GetInt("http.body_limit"),
		},
	}
	if err := v.UnmarshalKey("labels", &cfg.Labels); err != nil {
		return nil, fmt.Errorf("解析 labels 失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "facture")
	v.SetDefault("log.level", "info")
	v.SetDefault("render.assets_dir", ".")
	v.SetDefault("render.styles", "")
	v.SetDefault("render.gap", 0)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.body_limit", 4*1024*1024)
}

// Validate 检查取值范围与文字模板。
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port 超出范围: %d", c.HTTP.Port))
	}
	if c.HTTP.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("http.body_limit 必须为正数: %d", c.HTTP.BodyLimit))
	}
	if c.Render.Gap < 0 {
		errs = append(errs, fmt.Errorf("render.gap 不能为负数: %g", c.Render.Gap))
	}
	if err := c.Labels.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("labels: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	return nil
}
