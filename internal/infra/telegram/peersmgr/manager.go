// Package peersmgr — обёртка над gotd peers.Manager с персистентным хранилищем на bbolt.
// Сервис отвечает за:
//   - открытие/закрытие базы данных кэша пиров;
//   - подготовку менеджера пиров (в памяти) и доступ к нему;
//   - загрузку сохранённых peers из файла в менеджер при старте;
//   - запоминание сущностей из списка диалогов, чтобы access_hash пережил перезапуск.
package peersmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/storage"

	bboltdb "github.com/gotd/contrib/bbolt"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"
)

const (
	peersBucketName = "peers"
	dbOpenTimeout   = time.Second
)

var peersBucketBytes = []byte(peersBucketName)

// DialogKind — тип сущности пира.
type DialogKind string

const (
	DialogKindUser    DialogKind = "user"
	DialogKindChat    DialogKind = "chat"
	DialogKindChannel DialogKind = "channel"
)

// Service инкапсулирует менеджер пиров и bbolt-хранилище.
type Service struct {
	db    *bbolt.DB
	store contribstorage.PeerStorage
	Mgr   *peers.Manager
}

// New создаёт сервис пиров поверх bbolt и gotd peers.Manager.
// Сетевых запросов не выполняет.
func New(api *tg.Client, dbPath string) (*Service, error) {
	if api == nil {
		return nil, errors.New("peersmgr: api client is nil")
	}
	path := strings.TrimSpace(dbPath)
	if path == "" {
		return nil, errors.New("peersmgr: db path is empty")
	}
	if err := storage.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("peersmgr: %w", err)
	}
	if existed, statErr := storage.Exists(path); statErr == nil && !existed {
		logger.Debugf("peersmgr: creating peer cache %s", path)
	}

	db, err := bbolt.Open(path, storage.FilePerm, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("peersmgr: open db: %w", err)
	}

	return &Service{
		db:    db,
		store: bboltdb.NewPeerStorage(db, peersBucketBytes),
		Mgr:   (peers.Options{}).Build(api),
	}, nil
}

// Close закрывает файл базы данных.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init загружает в менеджер текущего пользователя. Требует авторизованной сессии.
func (s *Service) Init(ctx context.Context) error {
	if err := s.Mgr.Init(ctx); err != nil {
		return fmt.Errorf("peersmgr: init manager: %w", err)
	}
	return nil
}

// LoadFromStorage прогружает сохранённые peers из bbolt в оперативный peers.Manager.
// Повреждённый бакет (невалидный JSON) сбрасывается: кэш восстановится при следующем списке диалогов.
func (s *Service) LoadFromStorage(ctx context.Context) error {
	iter, exists, err := s.iterateStoredPeers(ctx)
	if err != nil {
		if isJSONUnmarshalError(err) {
			logger.Warnf("peersmgr: stored peers are corrupted, resetting: %v", err)
			return s.resetPeersBucket()
		}
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	if !exists {
		return nil
	}
	defer func() {
		_ = iter.Close()
	}()

	users := make([]tg.UserClass, 0)
	chats := make([]tg.ChatClass, 0)

	for iter.Next(ctx) {
		value := iter.Value()
		switch value.Key.Kind {
		case dialogs.User:
			user := value.User
			if user == nil {
				user = &tg.User{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			users = append(users, user)
		case dialogs.Chat:
			chat := value.Chat
			if chat == nil {
				chat = &tg.Chat{ID: value.Key.ID}
			}
			chats = append(chats, chat)
		case dialogs.Channel:
			channel := value.Channel
			if channel == nil {
				channel = &tg.Channel{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			chats = append(chats, channel)
		}
	}

	if err = iter.Err(); err != nil {
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	logger.Debugf("peersmgr: loaded %d users and %d chats from cache", len(users), len(chats))
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	return s.Mgr.Apply(ctx, users, chats)
}

// Remember применяет сущности к менеджеру и сохраняет их в bbolt.
// Сбой записи одной сущности не мешает остальным; ошибки объединяются.
func (s *Service) Remember(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) error {
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	if err := s.Mgr.Apply(ctx, users, chats); err != nil {
		return fmt.Errorf("peersmgr: apply entities: %w", err)
	}

	var errs []error
	for _, u := range users {
		var p contribstorage.Peer
		if !p.FromUser(u) {
			continue
		}
		if err := s.store.Add(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("peersmgr: store user %d: %w", p.Key.ID, err))
		}
	}
	for _, c := range chats {
		var p contribstorage.Peer
		if !p.FromChat(c) {
			continue
		}
		if err := s.store.Add(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("peersmgr: store chat %d: %w", p.Key.ID, err))
		}
	}
	return errors.Join(errs...)
}

// LookupPeer возвращает сохранённую сущность из персистентного хранилища.
func (s *Service) LookupPeer(ctx context.Context, kind DialogKind, id int64) (contribstorage.Peer, bool, error) {
	key, err := peerKey(kind, id)
	if err != nil {
		return contribstorage.Peer{}, false, err
	}

	value, err := s.store.Find(ctx, key)
	if errors.Is(err, contribstorage.ErrPeerNotFound) {
		return contribstorage.Peer{}, false, nil
	}
	if err != nil {
		return contribstorage.Peer{}, false, fmt.Errorf("lookup peer: %w", err)
	}
	return value, true, nil
}

// InputPeer подбирает tg.InputPeerClass по типу и идентификатору.
// Сначала спрашивает peers.Manager, затем сохранённый в bbolt access_hash.
func (s *Service) InputPeer(ctx context.Context, kind DialogKind, id int64) (tg.InputPeerClass, error) {
	peer, err := s.resolve(ctx, kind, id)
	if err == nil {
		return peer, nil
	}
	logger.Debugf("peersmgr: resolve %s %d via manager: %v", kind, id, err)

	stored, ok, lookupErr := s.LookupPeer(ctx, kind, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if !ok {
		return nil, fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	return storedInputPeer(stored.Key), nil
}

func (s *Service) resolve(ctx context.Context, kind DialogKind, id int64) (tg.InputPeerClass, error) {
	switch kind {
	case DialogKindUser:
		user, err := s.Mgr.ResolveUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		return user.InputPeer(), nil
	case DialogKindChat:
		chat, err := s.Mgr.ResolveChatID(ctx, id)
		if err != nil {
			return nil, err
		}
		return chat.InputPeer(), nil
	case DialogKindChannel:
		channel, err := s.Mgr.ResolveChannelID(ctx, id)
		if err != nil {
			return nil, err
		}
		return channel.InputPeer(), nil
	default:
		return nil, fmt.Errorf("peersmgr: unsupported peer kind %q", kind)
	}
}

func peerKey(kind DialogKind, id int64) (contribstorage.PeerKey, error) {
	switch kind {
	case DialogKindUser:
		return contribstorage.PeerKey{Kind: dialogs.User, ID: id}, nil
	case DialogKindChat:
		return contribstorage.PeerKey{Kind: dialogs.Chat, ID: id}, nil
	case DialogKindChannel:
		return contribstorage.PeerKey{Kind: dialogs.Channel, ID: id}, nil
	default:
		return contribstorage.PeerKey{}, fmt.Errorf("peersmgr: unsupported peer kind %q", kind)
	}
}

func storedInputPeer(key dialogs.DialogKey) tg.InputPeerClass {
	switch key.Kind {
	case dialogs.User:
		return &tg.InputPeerUser{UserID: key.ID, AccessHash: key.AccessHash}
	case dialogs.Chat:
		return &tg.InputPeerChat{ChatID: key.ID}
	case dialogs.Channel:
		return &tg.InputPeerChannel{ChannelID: key.ID, AccessHash: key.AccessHash}
	default:
		return &tg.InputPeerEmpty{}
	}
}

func (s *Service) iterateStoredPeers(ctx context.Context) (contribstorage.PeerIterator, bool, error) {
	exists := false
	if err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(peersBucketBytes) != nil
		return nil
	}); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	iter, err := s.store.Iterate(ctx)
	if err != nil {
		return nil, false, err
	}
	return iter, true, nil
}

func isJSONUnmarshalError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	return strings.Contains(err.Error(), "json:")
}

func (s *Service) resetPeersBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(peersBucketBytes); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(peersBucketBytes)
		return err
	})
}
