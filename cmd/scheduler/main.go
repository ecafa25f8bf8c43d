package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tg-scheduler/internal/adapters/cli"
	"tg-scheduler/internal/app"
	"tg-scheduler/internal/infra/apptime"
	"tg-scheduler/internal/infra/config"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
	"tg-scheduler/internal/infra/timeutil"
	"tg-scheduler/internal/support/version"
)

// envPathVar задаёт путь к необязательному .env; флагов у планировщика нет.
const (
	envPathVar     = "SCHEDULER_ENV"
	defaultEnvPath = ".env"
)

func main() {
	if err := pr.Init(); err != nil {
		logger.Fatal("failed to init terminal", zap.Error(err))
	}

	envPath := os.Getenv(envPathVar)
	if envPath == "" {
		envPath = defaultEnvPath
	}
	if err := config.Load(envPath); err != nil {
		pr.Close()
		logger.Fatal("failed to load config", zap.Error(err))
	}
	env := config.Env()

	// Логи идут через буферы readline, чтобы не ломать строку ввода.
	logger.Init(env.LogLevel)
	logger.SetWriters(pr.Stdout(), pr.Stderr())
	logger.EnableFile(logger.FileOptions{
		Path:       env.LogFile,
		Level:      env.LogFileLevel,
		MaxSizeMB:  env.LogFileMaxSize,
		MaxBackups: env.LogFileMaxBackups,
		MaxAgeDays: env.LogFileMaxAge,
		Compress:   env.LogFileCompress,
	})
	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	if env.AppTimezone != "" {
		loc, err := timeutil.ParseLocation(env.AppTimezone)
		if err != nil {
			logger.Warnf("APP_TIMEZONE ignored: %v", err)
		}
		apptime.SetLocation(loc)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pr.Println()
	pr.Title("⚡ %s %s", version.Name, version.Version)

	term := cli.NewTerminal(pr.Rl(), pr.InterruptReadline)
	if err := app.NewApp(env, term).Run(ctx); err != nil {
		logger.Error("scheduler stopped with error", zap.Error(err))
	}

	stop()
	logger.Close()
	pr.Close()
}
