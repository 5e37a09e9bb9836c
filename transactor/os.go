package transactor

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ErrNotPointer is returned by SetConfigFromEnvVars when s is not a pointer to a struct.
var ErrNotPointer = errors.New("config must be a pointer to a struct")

// LocalEnvConfig describes the process environment printed at startup.
type LocalEnvConfig struct {
	Version string
	EnvName string
}

var (
	localEnvConfig     *LocalEnvConfig
	localEnvConfigOnce sync.Once
)

// GetenvOrDefault returns the trimmed value of key, or defaultValue when it is unset or blank.
func GetenvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	return defaultValue
}

// GetenvBoolOrDefault parses key with strconv.ParseBool, falling back to defaultValue.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}

	return value
}

// GetenvIntOrDefault parses key as a base-10 int64, falling back to defaultValue.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// SetConfigFromEnvVars fills the fields of the struct pointed to by s from the
// environment variables named in their `env` tags. Supported kinds are string,
// bool and the signed integers. Unset variables leave the zero value untouched
// unless a `default` tag is present.
//
//	type Config struct {
//		ServerAddress string `env:"SERVER_ADDRESS" default:":8080"`
//		MaxBatchSize  int    `env:"MAX_BATCH_SIZE" default:"100000"`
//	}
func SetConfigFromEnvVars(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)

		key, ok := field.Tag.Lookup("env")
		if !ok || key == "" || !v.Field(i).CanSet() {
			continue
		}

		raw := GetenvOrDefault(key, field.Tag.Get("default"))
		if raw == "" {
			continue
		}

		if err := setField(v.Field(i), raw); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}

	return nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}

		f.SetInt(n)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}

	return nil
}

// InitLocalEnvConfig reads VERSION and ENV_NAME once and prints them.
func InitLocalEnvConfig() *LocalEnvConfig {
	localEnvConfigOnce.Do(func() {
		localEnvConfig = &LocalEnvConfig{
			Version: GetenvOrDefault("VERSION", "NO-VERSION"),
			EnvName: GetenvOrDefault("ENV_NAME", "local"),
		}

		fmt.Printf("VERSION: %s\n\n", localEnvConfig.Version)
		fmt.Printf("ENVIRONMENT NAME: %s\n\n", localEnvConfig.EnvName)
	})

	return localEnvConfig
}
