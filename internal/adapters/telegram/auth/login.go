package auth

import (
	"context"
	"fmt"

	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"

	"github.com/go-faster/errors"
	tdauth "github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

var (
	// ErrAttemptsExhausted — все попытки входа израсходованы.
	ErrAttemptsExhausted = errors.New("login attempts exhausted")
	// ErrUnauthorized — после входа сессия всё ещё не авторизована.
	ErrUnauthorized = errors.New("authorization failed")
)

// Authorizer — часть *auth.Client, которой пользуется Login.
type Authorizer interface {
	IfNecessary(ctx context.Context, flow tdauth.Flow) error
	Status(ctx context.Context) (*tdauth.Status, error)
}

// RPC-ошибки ввода, на которые тратится попытка.
var retryableInput = []string{
	"PHONE_CODE_INVALID",
	"PHONE_CODE_EXPIRED",
	"PHONE_CODE_EMPTY",
	"PHONE_NUMBER_INVALID",
	"PASSWORD_HASH_INVALID",
}

func isRetryable(err error) bool {
	return errors.Is(err, tdauth.ErrPasswordInvalid) || tgerr.Is(err, retryableInput...)
}

// Login проходит интерактивный вход не более attempts раз и проверяет статус.
// Повторяются только ошибки ввода; остальные возвращаются сразу.
// При успехе возвращает текущего пользователя (может быть nil, если платформа его не отдала).
func Login(ctx context.Context, authz Authorizer, ta *TerminalAuthenticator, attempts int) (*tg.User, error) {
	if attempts < 1 {
		attempts = 1
	}

	flow := tdauth.NewFlow(ta, tdauth.SendCodeOptions{})
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = authz.IfNecessary(ctx, flow)
		if lastErr == nil {
			break
		}
		if !isRetryable(lastErr) {
			return nil, errors.Wrap(lastErr, "login")
		}

		logger.Warn("auth: login attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max", attempts),
			zap.Error(lastErr),
		)
		if tgerr.Is(lastErr, "PHONE_NUMBER_INVALID") {
			ta.ResetPhone()
		}
		if left := attempts - attempt; left > 0 {
			pr.Fail("🚫 %s, attempts left: %d", describe(lastErr), left)
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttemptsExhausted, lastErr)
	}

	status, err := authz.Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "auth status")
	}
	if !status.Authorized {
		return nil, ErrUnauthorized
	}
	return status.User, nil
}

// describe превращает ошибку ввода в короткое сообщение для пользователя.
func describe(err error) string {
	switch {
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return "Invalid phone number"
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return "Code expired"
	case tgerr.Is(err, "PHONE_CODE_INVALID", "PHONE_CODE_EMPTY"):
		return "Invalid code"
	default:
		return "Invalid password"
	}
}
