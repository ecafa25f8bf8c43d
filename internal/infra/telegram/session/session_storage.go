// Package session хранит MTProto‑сессию gotd в одном локальном файле.
//
// Файл — это JSON‑конверт: байты сессии gotd плюс api_id/api_hash, с которыми она
// создана. Без них повторное подключение по сохранённой сессии невозможно, а
// спрашивать их заново при каждом запуске не хочется. Запись атомарная.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"tg-scheduler/internal/infra/storage"

	tdsession "github.com/gotd/td/session"
)

// Credentials — параметры приложения Telegram (my.telegram.org).
type Credentials struct {
	AppID   int    `json:"app_id"`
	AppHash string `json:"app_hash"`
}

// Valid проверяет, что обе части заданы.
func (c Credentials) Valid() bool {
	return c.AppID > 0 && c.AppHash != ""
}

// artifact — формат файла сессии на диске.
type artifact struct {
	Credentials
	Session []byte `json:"session,omitempty"`
}

// ErrNoSession означает, что файла нет или в нём нет пригодной сессии.
var ErrNoSession = errors.New("no saved session")

// FileStorage реализует tdsession.Storage поверх файла Path.
//
// Credentials записываются в файл вместе с каждой сессией. Fresh заставляет
// LoadSession игнорировать сохранённые данные: так новый логин перезаписывает
// старую сессию только после успешной авторизации. Потокобезопасен.
type FileStorage struct {
	Path        string
	Credentials Credentials
	Fresh       bool

	mux sync.Mutex
}

var _ tdsession.Storage = (*FileStorage)(nil)

// ReadCredentials читает файл сессии и возвращает сохранённые учётные данные.
// ErrNoSession — файла нет, сессия пуста или учётные данные неполны.
func ReadCredentials(path string) (Credentials, error) {
	a, err := readArtifact(path)
	if err != nil {
		return Credentials{}, err
	}
	if len(a.Session) == 0 || !a.Credentials.Valid() {
		return Credentials{}, ErrNoSession
	}
	return a.Credentials, nil
}

func readArtifact(path string) (artifact, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return artifact{}, ErrNoSession
	}
	if err != nil {
		return artifact{}, fmt.Errorf("read session file: %w", err)
	}
	var a artifact
	if err = json.Unmarshal(data, &a); err != nil {
		return artifact{}, fmt.Errorf("decode session file: %w", err)
	}
	return a, nil
}

// LoadSession отдаёт gotd сохранённые байты сессии.
func (f *FileStorage) LoadSession(_ context.Context) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.Fresh {
		return nil, tdsession.ErrNotFound
	}
	a, err := readArtifact(f.Path)
	if errors.Is(err, ErrNoSession) {
		return nil, tdsession.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(a.Session) == 0 {
		return nil, tdsession.ErrNotFound
	}
	return a.Session, nil
}

// StoreSession атомарно записывает конверт с сессией и учётными данными.
func (f *FileStorage) StoreSession(_ context.Context, data []byte) error {
	if f == nil {
		return errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	payload, err := json.Marshal(artifact{Credentials: f.Credentials, Session: data})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err = storage.AtomicWriteFile(f.Path, payload); err != nil {
		return fmt.Errorf("atomic write session: %w", err)
	}
	// После первой записи файл снова источник истины для последующих LoadSession.
	f.Fresh = false
	return nil
}
