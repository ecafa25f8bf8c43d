// Package app — верхний уровень планировщика: выбор сессии, сборка клиента gotd,
// вход в аккаунт и запуск сценария Workflow внутри client.Run.
// Здесь же стоит общий обработчик: прерывание и сбои печатаются пользователю,
// а MTProto-соединение закрывается на любом пути выхода.
package app

import (
	"context"
	"errors"
	goruntime "runtime"
	"strconv"
	"strings"

	"tg-scheduler/internal/adapters/cli"
	tgauth "tg-scheduler/internal/adapters/telegram/auth"
	"tg-scheduler/internal/adapters/telegram/gateway"
	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/domain/schedule"
	"tg-scheduler/internal/infra/apptime"
	"tg-scheduler/internal/infra/config"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
	"tg-scheduler/internal/infra/telegram/peersmgr"
	"tg-scheduler/internal/support/version"

	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Prompter — терминальный ввод всех этапов.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
	ReadPassword(ctx context.Context, prompt string) (string, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// App агрегирует окружение и терминал. Одноразовый: Run вызывается один раз.
type App struct {
	env config.EnvConfig
	in  Prompter
}

// NewApp создаёт приложение.
func NewApp(env config.EnvConfig, in Prompter) *App {
	return &App{env: env, in: in}
}

// Run выполняет весь сценарий и сам сообщает пользователю об исходе.
// Прерывание, отказ авторизации и сбои сценария ошибкой не считаются.
func (a *App) Run(ctx context.Context) error {
	err := a.run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrInterrupted), errors.Is(err, context.Canceled):
		logger.Info("app: interrupted by user")
		pr.Println()
		pr.Fail("🚫 Interrupted by user!")
	default:
		logger.Error("app: critical error", zap.Error(err))
		pr.Println()
		pr.Fail("💥 Critical error: %v", err)
	}
	return nil
}

func (a *App) run(ctx context.Context) error {
	choice, err := chooseSession(ctx, a.in, a.env.SessionFile)
	if err != nil {
		return err
	}

	client := telegram.NewClient(choice.storage.Credentials.AppID, choice.storage.Credentials.AppHash, a.clientOptions(choice))

	peers, err := peersmgr.New(client.API(), a.env.PeersCacheFile)
	if err != nil {
		logger.Warnf("app: peer cache disabled: %v", err)
	} else {
		defer func() {
			if closeErr := peers.Close(); closeErr != nil {
				logger.Warnf("app: close peer cache: %v", closeErr)
			}
		}()
	}

	// client.Run закрывает соединение при любом возврате из колбэка.
	return client.Run(ctx, func(ctx context.Context) error {
		self, ok, err := a.authorize(ctx, client.Auth(), choice.reused)
		if err != nil || !ok {
			return err
		}
		pr.Success("✓ Logged in as %s", displayName(self))

		var resolver gateway.PeerResolver
		if peers != nil {
			if err := peers.Init(ctx); err != nil {
				logger.Warnf("app: %v", err)
			}
			if err := peers.LoadFromStorage(ctx); err != nil {
				logger.Warnf("app: load peer cache: %v", err)
			}
			resolver = peers
		}

		gw := gateway.New(client.API(), resolver)
		wf := &Workflow{
			Picker:  chats.NewSelector(gw, a.in, apptime.Now, config.TopicsPageLimit),
			Counter: gw,
			Sender:  gw,
			In:      a.in,
			Quota:   schedule.NewQuota(config.MaxScheduledMessages),
			Now:     apptime.Now,
		}
		return wf.Run(ctx)
	})
}

// authorize проверяет сохранённую сессию или проводит интерактивный вход.
// ok == false — авторизация не удалась, пользователь уже уведомлён.
func (a *App) authorize(ctx context.Context, authz tgauth.Authorizer, reused bool) (*tg.User, bool, error) {
	if reused {
		status, err := authz.Status(ctx)
		if err != nil {
			return nil, false, err
		}
		if !status.Authorized {
			logger.Warn("app: saved session is not authorized")
			pr.Fail("🚫 Authorization failed!")
			return nil, false, nil
		}
		return status.User, true, nil
	}

	ta := tgauth.NewTerminalAuthenticator(a.in)
	self, err := tgauth.Login(ctx, authz, ta, config.LoginAttempts)
	if errors.Is(err, cli.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return nil, false, err
	}
	if err != nil {
		logger.Error("app: login failed", zap.Error(err))
		pr.Fail("🚫 Authorization failed!")
		return nil, false, nil
	}
	return self, true, nil
}

func (a *App) clientOptions(choice sessionChoice) telegram.Options {
	opts := telegram.Options{
		SessionStorage: choice.storage,
		Device: telegram.DeviceConfig{
			DeviceModel:   version.Name,
			SystemVersion: goruntime.GOOS + "/" + goruntime.GOARCH,
			AppVersion:    version.Version,
		},
	}
	if rps := a.env.ThrottleRPS; rps > 0 {
		opts.Middlewares = append(opts.Middlewares, ratelimit.New(rate.Limit(rps), rps*2)) //nolint:mnd // burst = 2*rate
	}
	if a.env.TestDC {
		opts.DCList = dcs.Test()
	}
	if logger.IsDebugEnabled() {
		opts.Logger = logger.Logger().Named("mtproto")
	}
	return opts
}

func displayName(u *tg.User) string {
	if u == nil {
		return "unknown user"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		if name == "" {
			return "@" + u.Username
		}
		return name + " (@" + u.Username + ")"
	}
	if name == "" {
		return "user " + strconv.FormatInt(u.ID, 10)
	}
	return name
}
