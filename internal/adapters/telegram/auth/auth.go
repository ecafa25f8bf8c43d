// Package auth — интерактивный вход в аккаунт поверх gotd.
// TerminalAuthenticator реализует tdauth.UserAuthenticator: номер телефона, код,
// пароль 2FA, согласие с ToS и регистрация читаются из терминала.
// Login прогоняет tdauth.Flow с ограниченным числом попыток.
package auth

import (
	"context"
	"strings"

	"tg-scheduler/internal/infra/pr"

	"github.com/go-faster/errors"
	tdauth "github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// Prompter — терминальный ввод, нужный для входа.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
	ReadPassword(ctx context.Context, prompt string) (string, error)
}

// ErrTermsDeclined — пользователь не принял условия использования.
var ErrTermsDeclined = errors.New("user did not accept terms of service")

// TerminalAuthenticator собирает данные для входа из терминала.
// Номер телефона запрашивается один раз и переиспользуется между попытками,
// пока платформа не отвергнет его.
type TerminalAuthenticator struct {
	in    Prompter
	phone string
}

var _ tdauth.UserAuthenticator = (*TerminalAuthenticator)(nil)

// NewTerminalAuthenticator создаёт аутентификатор поверх in.
func NewTerminalAuthenticator(in Prompter) *TerminalAuthenticator {
	return &TerminalAuthenticator{in: in}
}

// Phone возвращает номер телефона, при первом вызове спрашивая его.
func (t *TerminalAuthenticator) Phone(ctx context.Context) (string, error) {
	for t.phone == "" {
		phone, err := t.in.ReadLine(ctx, pr.Prompt("📱 Phone number (+7...): "))
		if err != nil {
			return "", err
		}
		t.phone = strings.ReplaceAll(phone, " ", "")
	}
	return t.phone, nil
}

// ResetPhone забывает номер: следующая попытка спросит его заново.
func (t *TerminalAuthenticator) ResetPhone() {
	t.phone = ""
}

// Code запрашивает код подтверждения. sentCode здесь не используется.
func (t *TerminalAuthenticator) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	return t.in.ReadLine(ctx, pr.Prompt("🔑 Code from Telegram: "))
}

// Password читает пароль 2FA без эха.
func (t *TerminalAuthenticator) Password(ctx context.Context) (string, error) {
	return t.in.ReadPassword(ctx, pr.Prompt("🔒 2FA password: "))
}

// AcceptTermsOfService показывает ToS и принимает только ответ "y".
func (t *TerminalAuthenticator) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	pr.Printf("Telegram Terms of Service: %s\n", tos.Text)
	resp, err := t.in.ReadLine(ctx, pr.Prompt("Do you accept? (y/n): "))
	if err != nil {
		return err
	}
	if !strings.EqualFold(resp, "y") {
		return ErrTermsDeclined
	}
	return nil
}

// SignUp собирает имя и необязательную фамилию для незарегистрированного номера.
func (t *TerminalAuthenticator) SignUp(ctx context.Context) (tdauth.UserInfo, error) {
	firstName, err := t.in.ReadLine(ctx, pr.Prompt("Enter your first name: "))
	if err != nil {
		return tdauth.UserInfo{}, err
	}
	lastName, err := t.in.ReadLine(ctx, pr.Prompt("Enter your last name (optional): "))
	if err != nil {
		return tdauth.UserInfo{}, err
	}
	return tdauth.UserInfo{FirstName: firstName, LastName: lastName}, nil
}
