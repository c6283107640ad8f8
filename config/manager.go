package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Manager collects override values from files and the environment under
// dotted lowercase keys, e.g. "log.level", and applies them to a struct.
// A Manager is not safe for concurrent use.
type Manager struct {
	values map[string]interface{}
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{values: make(map[string]interface{})}
}

// LoadFromEnv loads variables named PREFIX_SOME_KEY as "some.key".
// Later sources overwrite earlier ones.
func (m *Manager) LoadFromEnv(prefix string) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			var found bool
			if key, found = strings.CutPrefix(key, prefix+"_"); !found {
				continue
			}
		}
		m.values[strings.ReplaceAll(strings.ToLower(key), "_", ".")] = value
	}
}

// LoadFromJSON loads a JSON object from a file; nested objects become dotted keys
func (m *Manager) LoadFromJSON(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse JSON config %s: %w", filename, err)
	}

	m.flatten("", doc)
	return nil
}

func (m *Manager) flatten(prefix string, doc map[string]interface{}) {
	for key, value := range doc {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			m.flatten(key, nested)
			continue
		}
		m.values[key] = value
	}
}

// Unmarshal copies collected values into the struct target points to.
// A field's key is its `config` tag, or its lowercased name; a tag of "-"
// skips the field. Fields without a collected value are left untouched.
func (m *Manager) Unmarshal(prefix string, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct, got %T", target)
	}
	v = v.Elem()

	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}

		key := field.Tag.Get("config")
		switch key {
		case "-":
			continue
		case "":
			key = strings.ToLower(field.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		raw, ok := m.values[key]
		if !ok {
			continue
		}
		if err := assign(v.Field(i), raw); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// assign stores raw, a JSON or environment value, into dst
func assign(dst reflect.Value, raw interface{}) error {
	if dst.Type() == durationType {
		d, err := parseDuration(raw)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(fmt.Sprint(raw))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case float64:
			dst.SetInt(int64(v))
			return nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			dst.SetInt(n)
			return nil
		}
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			dst.SetBool(v)
			return nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %v", raw, dst.Type())
}

// parseDuration accepts "1.5s"-style strings or a JSON number of nanoseconds
func parseDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		return time.ParseDuration(v)
	case float64:
		return time.Duration(v), nil
	}
	return 0, fmt.Errorf("cannot convert %T to time.Duration", raw)
}
