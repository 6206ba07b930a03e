// Package util 提供通用工具函数。
//
//   - ClampInt     区间裁剪
//   - EnvInt/EnvBool/EnvStr  读取环境变量
//   - ApplyDefaults / LoadFromEnv  通过 struct tag 填充配置
package util

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/comment-utils/delete-spam-comments/pkg/logger"
)

// ClampInt 将值限制在 [lo, hi] 范围内。
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EnvInt 读取整型环境变量，无效时返回 def，并确保不小于 min。
func EnvInt(name string, def, min int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("ignoring non-integer env value", logger.FieldField, name, logger.FieldValue, raw)
		return def
	}
	if v < min {
		return min
	}
	return v
}

// EnvBool 读取布尔环境变量，无效时返回 def。
// 接受: 1/true/yes/on → true, 0/false/no/off → false。
func EnvBool(name string, def bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// EnvStr 读取字符串环境变量，为空时返回 def。
func EnvStr(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}

// ApplyDefaults 通过反射把 `default:"..."` tag 写入零值字段 (递归嵌套 struct)。
//
// 支持的字段类型: string, int, bool。
func ApplyDefaults(ptr any) {
	v, ok := structElem(ptr, "util.ApplyDefaults")
	if !ok {
		return
	}
	walkFields(v, func(field reflect.StructField, fv reflect.Value) {
		def, has := field.Tag.Lookup("default")
		if !has || !fv.IsZero() {
			return
		}
		switch field.Type.Kind() {
		case reflect.String:
			fv.SetString(def)
		case reflect.Int:
			n, _ := strconv.Atoi(def)
			fv.SetInt(int64(n))
		case reflect.Bool:
			fv.SetBool(def == "true" || def == "1" || def == "yes")
		}
	})
}

// LoadFromEnv 通过反射从 struct tag 覆盖字段 (递归嵌套 struct)。
//
// 支持的 tag:
//   - env:"VAR_NAME"  : 环境变量名, 仅当变量非空时覆盖
//   - min:"N"         : 最小值 (int), 覆盖后裁剪
//
// 支持的字段类型: string, int, bool。
func LoadFromEnv(ptr any) {
	v, ok := structElem(ptr, "util.LoadFromEnv")
	if !ok {
		return
	}
	walkFields(v, func(field reflect.StructField, fv reflect.Value) {
		envName := field.Tag.Get("env")
		if envName == "" || os.Getenv(envName) == "" {
			return
		}
		switch field.Type.Kind() {
		case reflect.String:
			fv.SetString(EnvStr(envName, fv.String()))
		case reflect.Int:
			minInt, _ := strconv.Atoi(field.Tag.Get("min"))
			fv.SetInt(int64(EnvInt(envName, int(fv.Int()), minInt)))
		case reflect.Bool:
			fv.SetBool(EnvBool(envName, fv.Bool()))
		}
	})
}

func structElem(ptr any, op string) (reflect.Value, bool) {
	if ptr == nil {
		logger.Error(op + ": ptr must not be nil")
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		logger.Error(op + ": ptr must be a non-nil pointer to struct")
		return reflect.Value{}, false
	}
	return rv.Elem(), true
}

func walkFields(v reflect.Value, fn func(reflect.StructField, reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if field.Type.Kind() == reflect.Struct {
			walkFields(fv, fn)
			continue
		}
		fn(field, fv)
	}
}
