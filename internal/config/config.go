// Package config 加载 --settings 指定的 YAML 配置。
//
// 优先级: 环境变量 > settings 文件 > `default` tag。
// 字段通过 struct tag 声明:
//
//	`yaml:"dsn" env:"VAR_NAME" default:"value" min:"1" validate:"required"`
//
// Load() 返回显式的 *Settings，由调用方传入 bootstrap，不写全局状态。
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	apperrors "github.com/comment-utils/delete-spam-comments/pkg/errors"
	"github.com/comment-utils/delete-spam-comments/pkg/util"
)

// Settings 一次运行的全部配置。
type Settings struct {
	Database DatabaseSettings `yaml:"database"`
	Comments CommentSettings  `yaml:"comments"`
	Log      LogSettings      `yaml:"log"`

	// Source settings 文件路径 (仅用于日志)。
	Source string `yaml:"-"`
}

// DatabaseSettings PostgreSQL 连接配置。
type DatabaseSettings struct {
	DSN               string `yaml:"dsn" env:"POSTGRES_CONNECTION_STRING" validate:"required"`
	Schema            string `yaml:"schema" env:"POSTGRES_SCHEMA" default:"public" validate:"required,sqlident"`
	PoolMinSize       int    `yaml:"pool_min_size" env:"POSTGRES_POOL_MIN_SIZE" default:"1" min:"1" validate:"min=1"`
	PoolMaxSize       int    `yaml:"pool_max_size" env:"POSTGRES_POOL_MAX_SIZE" default:"4" min:"1" validate:"min=1,gtefield=PoolMinSize"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec" env:"POSTGRES_CONNECT_TIMEOUT_SEC" default:"10" min:"1" validate:"min=1"`
}

// CommentSettings 评论表的列映射。表结构归 Web 应用所有，这里只描述它。
type CommentSettings struct {
	Table         string `yaml:"table" env:"COMMENTS_TABLE" default:"comments" validate:"required,sqlident"`
	IDColumn      string `yaml:"id_column" env:"COMMENTS_ID_COLUMN" default:"id" validate:"required,sqlident"`
	PublicColumn  string `yaml:"public_column" env:"COMMENTS_PUBLIC_COLUMN" default:"is_public" validate:"required,sqlident"`
	DateColumn    string `yaml:"date_column" env:"COMMENTS_DATE_COLUMN" default:"submit_date" validate:"required,sqlident"`
	SummaryColumn string `yaml:"summary_column" env:"COMMENTS_SUMMARY_COLUMN" default:"comment" validate:"required,sqlident"`
}

// LogSettings 日志配置。
type LogSettings struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" env:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return reIdent.MatchString(fl.Field().String())
	})
	return v
}

// Load 读取 settings 文件，叠加默认值与环境变量并校验。
func Load(path string) (*Settings, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "Config.Load", "settings path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Wrapf(errors.Join(apperrors.ErrNotFound, err), "Config.Load", "settings %s", path)
		}
		return nil, apperrors.Wrapf(err, "Config.Load", "read settings %s", path)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, apperrors.Wrapf(err, "Config.Load", "settings %s", path)
	}
	s.Source = path
	return s, nil
}

// Parse 解析 YAML 内容 (Load 的纯函数部分)。
//
// 默认值先于解码写入: 文件中未出现的键保留默认值,
// 显式写出的 0 (如 pool_min_size: 0) 保留并由 Validate 拒绝。
func Parse(data []byte) (*Settings, error) {
	var s Settings
	util.ApplyDefaults(&s)
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.DisallowUnknownField()); err != nil {
		return nil, apperrors.Wrap(errors.Join(apperrors.ErrInvalidSettings, err), "Config.Parse", "decode yaml")
	}
	util.LoadFromEnv(&s)
	s.Log.Level = strings.ToUpper(strings.TrimSpace(s.Log.Level))
	if s.Log.Level == "WARNING" {
		s.Log.Level = "WARN"
	}
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 校验字段约束，错误包装 ErrInvalidSettings。
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(errors.Join(apperrors.ErrInvalidSettings, err), "Config.Validate", "validate")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperrors.Wrap(apperrors.ErrInvalidSettings, "Config.Validate", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Settings.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "sqlident":
		return fmt.Sprintf("%s %q is not a valid SQL identifier", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", field, fe.Value(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}
