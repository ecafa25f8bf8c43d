// Package cli — терминальный ввод планировщика поверх общего readline из pr.
// Terminal читает строки с приглашением, пароль без эха и ответы y/n.
// Ctrl-C и закрытый stdin превращаются в ErrInterrupted; отмена контекста
// прерывает ожидающий Readline через cancelable stdin.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"tg-scheduler/internal/infra/logger"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrInterrupted — пользователь прервал ввод (Ctrl-C или EOF).
var ErrInterrupted = errors.New("interrupted by user")

// lineReader — то, что нужно Terminal от *readline.Instance.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
}

// Terminal реализует построчный ввод для всех интерактивных этапов.
type Terminal struct {
	rl        lineReader
	interrupt func()
	// masked — stdin является TTY и пароль можно читать без эха.
	masked bool
}

// NewTerminal создаёт Terminal. interrupt вызывается при отмене контекста
// во время чтения и должен разблокировать Readline (обычно pr.InterruptReadline).
func NewTerminal(rl *readline.Instance, interrupt func()) *Terminal {
	return newTerminal(rl, interrupt, term.IsTerminal(int(os.Stdin.Fd())))
}

func newTerminal(rl lineReader, interrupt func(), masked bool) *Terminal {
	if interrupt == nil {
		interrupt = func() {}
	}
	return &Terminal{rl: rl, interrupt: interrupt, masked: masked}
}

// ReadLine печатает приглашение и возвращает строку без пробелов по краям.
func (t *Terminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	var line string
	err := t.withContext(ctx, func() error {
		t.rl.SetPrompt(prompt)
		var err error
		line, err = t.rl.Readline()
		return err
	})
	return strings.TrimSpace(line), err
}

// ReadPassword читает секрет. На TTY ввод не отображается.
func (t *Terminal) ReadPassword(ctx context.Context, prompt string) (string, error) {
	if !t.masked {
		logger.Debug("cli: stdin is not a terminal, password is read as a plain line")
		return t.ReadLine(ctx, prompt)
	}
	var secret []byte
	err := t.withContext(ctx, func() error {
		var err error
		secret, err = t.rl.ReadPassword(prompt)
		return err
	})
	return string(secret), err
}

// Confirm задаёт вопрос и возвращает true только на ответ "y" (без учёта регистра).
func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := t.ReadLine(ctx, prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

// withContext выполняет блокирующее чтение и переводит его ошибки в ErrInterrupted
// или ctx.Err().
func (t *Terminal) withContext(ctx context.Context, read func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.interrupt()
		case <-done:
		}
	}()

	err := read()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrInterrupted
	}
	return err
}
