package app

import (
	"context"
	"errors"
	"strconv"

	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
	"tg-scheduler/internal/infra/telegram/session"
)

// sessionChoice — итог этапа выбора сессии.
type sessionChoice struct {
	storage *session.FileStorage
	// reused — пользователь согласился на сохранённую сессию, интерактивный вход не нужен.
	reused bool
}

// chooseSession предлагает сохранённую сессию, а при отказе или её отсутствии
// запрашивает api_id/api_hash для нового входа. Старый файл не трогается,
// пока новый вход не сохранит свою сессию.
func chooseSession(ctx context.Context, in Prompter, path string) (sessionChoice, error) {
	creds, err := session.ReadCredentials(path)
	switch {
	case err == nil:
		use, confirmErr := in.Confirm(ctx, pr.Prompt("Saved session found. Use it? (y/n): "))
		if confirmErr != nil {
			return sessionChoice{}, confirmErr
		}
		if use {
			logger.Debugf("app: reusing session %s (app_id %d)", path, creds.AppID)
			return sessionChoice{
				storage: &session.FileStorage{Path: path, Credentials: creds},
				reused:  true,
			}, nil
		}
	case errors.Is(err, session.ErrNoSession):
		logger.Debugf("app: no saved session at %s", path)
	default:
		logger.Warnf("app: saved session is unusable: %v", err)
		pr.Fail("🚫 Failed to load session: %v", err)
	}

	creds, err = readCredentials(ctx, in)
	if err != nil {
		return sessionChoice{}, err
	}
	return sessionChoice{
		storage: &session.FileStorage{Path: path, Credentials: creds, Fresh: true},
	}, nil
}

// readCredentials спрашивает api_id (целое > 0) и api_hash (непустой), повторяя при ошибке.
func readCredentials(ctx context.Context, in Prompter) (session.Credentials, error) {
	var creds session.Credentials
	for creds.AppID <= 0 {
		line, err := in.ReadLine(ctx, pr.Prompt("Enter API ID: "))
		if err != nil {
			return session.Credentials{}, err
		}
		id, err := strconv.Atoi(line)
		if err != nil || id <= 0 {
			pr.Fail("🚫 API ID must be a positive integer!")
			continue
		}
		creds.AppID = id
	}
	for creds.AppHash == "" {
		line, err := in.ReadLine(ctx, pr.Prompt("Enter API Hash: "))
		if err != nil {
			return session.Credentials{}, err
		}
		if line == "" {
			pr.Fail("🚫 API Hash is empty!")
			continue
		}
		creds.AppHash = line
	}
	return creds, nil
}
