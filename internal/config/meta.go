package config

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// SettingInfo describes one settings.json key
type SettingInfo struct {
	Example any    `json:"example"`
	Key     string `json:"key"`
	Type    string `json:"type"`
}

// DescribeSettings lists every settings.json key with its JSON type and an
// example value taken from the `example` tag on Settings, sorted by key.
func DescribeSettings() []SettingInfo {
	t := reflect.TypeFor[Settings]()
	infos := make([]SettingInfo, 0, t.NumField())

	for field := range fields(t) {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		kind, example := exampleValue(field.Type, field.Tag.Get("example"))
		infos = append(infos, SettingInfo{Example: example, Key: name, Type: kind})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

func fields(t reflect.Type) func(yield func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			if !yield(t.Field(i)) {
				return
			}
		}
	}
}

// exampleValue converts the raw tag into a value of the field's JSON type
func exampleValue(t reflect.Type, raw string) (string, any) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		v, _ := strconv.ParseBool(raw)
		return "boolean", v
	case reflect.Int:
		v, _ := strconv.Atoi(raw)
		return "integer", v
	case reflect.Slice:
		return "array", parseCommaSeparated(raw)
	default:
		return "string", raw
	}
}
