// Пакет config собирает «операционные» настройки планировщика:
//  1. читает необязательный .env (через godotenv),
//  2. нормализует и валидирует значения, подставляя дефолты,
//  3. копит предупреждения о подставленных значениях (печатаются при старте),
//  4. отдаёт неизменяемый снимок через Env().
//
// Учётные данные Telegram (api_id/api_hash) сюда намеренно не попадают:
// они вводятся интерактивно и живут только в файле сессии.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"tg-scheduler/internal/infra/timeutil"

	"github.com/joho/godotenv"
)

// Фиксированные ограничения платформы и сценария.
const (
	// MaxScheduledMessages — потолок отложенных сообщений в одном чате.
	MaxScheduledMessages = 100
	// LoginAttempts — сколько раз можно ошибиться при вводе телефона/кода/пароля.
	LoginAttempts = 3
	// TopicsPageLimit — размер страницы при запросе тем форума.
	TopicsPageLimit = 100
)

// EnvConfig описывает параметры, приходящие из окружения (.env).
type EnvConfig struct {
	LogLevel       string
	SessionFile    string
	PeersCacheFile string
	AppTimezone    string // пусто — системная таймзона
	ThrottleRPS    int
	TestDC         bool
	// Файловое логирование
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
}

// Config хранит снимок окружения и накопленные предупреждения.
type Config struct {
	Env      EnvConfig
	warnings []string
	mu       sync.RWMutex
}

// Значения по умолчанию.
const (
	defaultLogLevel          = "info"
	defaultSessionFile       = "data/tg_scheduler.session"
	defaultPeersCacheFile    = "data/peers_cache.bbolt"
	defaultThrottleRPS       = 3
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

var (
	cfgInstance = &Config{}
	cfgDone     bool
)

// Load инициализирует глобальную конфигурацию. Отсутствие файла envPath не ошибка:
// все параметры необязательны. Повторный вызов запрещён.
func Load(envPath string) error {
	if cfgDone {
		return errors.New("config already loaded")
	}
	newCfg, err := loadConfig(envPath)
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	cfgDone = true
	return nil
}

// loadConfig выполняет фактическую загрузку без установки глобального состояния.
func loadConfig(envPath string) (*Config, error) {
	var warnings []string

	if path := strings.TrimSpace(envPath); path != "" {
		switch err := godotenv.Load(path); {
		case err == nil:
		case errors.Is(err, os.ErrNotExist):
			appendWarningf(&warnings, "env file %q not found; using process environment only", path)
		default:
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	logLevel := sanitizeLogLevel("LOG_LEVEL", os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings)
	sessionFile := envOrDefault("SESSION_FILE", defaultSessionFile)
	peersCacheFile := envOrDefault("PEERS_CACHE_FILE", defaultPeersCacheFile)
	appTimezone := sanitizeTimezone("APP_TIMEZONE", os.Getenv("APP_TIMEZONE"), &warnings)
	throttleRPS := parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, &warnings)
	testDC := strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DC")), "true")
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	logFileLevel := sanitizeLogLevel("LOG_FILE_LEVEL", os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings)
	logFileMaxSize := parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings)
	logFileMaxBackups := parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings)
	logFileMaxAge := parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings)
	logFileCompress := parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings)

	return &Config{
		Env: EnvConfig{
			LogLevel:          logLevel,
			SessionFile:       sessionFile,
			PeersCacheFile:    peersCacheFile,
			AppTimezone:       appTimezone,
			ThrottleRPS:       throttleRPS,
			TestDC:            testDC,
			LogFile:           logFile,
			LogFileLevel:      logFileLevel,
			LogFileMaxSize:    logFileMaxSize,
			LogFileMaxBackups: logFileMaxBackups,
			LogFileMaxAge:     logFileMaxAge,
			LogFileCompress:   logFileCompress,
		},
		warnings: warnings,
	}, nil
}

// Warnings возвращает копию предупреждений, накопленных при загрузке.
func Warnings() []string {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	result := make([]string, len(cfgInstance.warnings))
	copy(result, cfgInstance.warnings)
	return result
}

// Env возвращает снимок EnvConfig.
func Env() EnvConfig {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	return cfgInstance.Env
}

// parseIntDefault читает name как int. Пустое/некорректное/не прошедшее validator значение
// заменяется на defaultVal. Предупреждение пишется только для заданных, но плохих значений.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }

// parseBoolDefault читает name как bool.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel ограничивает значения набором {debug, info, warn, error}.
func sanitizeLogLevel(name, level, defaultVal string, warnings *[]string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case "":
		return defaultVal
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env %s value %q is invalid; using default %q", name, level, defaultVal)
		return defaultVal
	}
}

// envOrDefault возвращает значение переменной name либо fallback, если она пуста.
func envOrDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// sanitizeTimezone проверяет IANA‑зону или UTC‑смещение. Некорректное значение
// сбрасывается в системную таймзону с предупреждением.
func sanitizeTimezone(name, value string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if _, err := timeutil.ParseLocation(v); err != nil {
		appendWarningf(warnings, "env %s value %q is invalid; using system timezone", name, v)
		return ""
	}
	return v
}
