// Package version — имя и версия сборки. Version подменяется при сборке:
//
//	go build -ldflags "-X tg-scheduler/internal/support/version.Version=v1.2.3" ./cmd/scheduler
package version

// Name — отображаемое имя приложения.
const Name = "TG Scheduler"

// Version — версия сборки.
var Version = "dev"
