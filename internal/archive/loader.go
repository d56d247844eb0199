// Package archive читает выгрузку рабочего пространства: users.json, channels.json
// и по директории на канал с файлами сообщений (*.json).
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/model"
)

const (
	usersFile    = "users.json"
	channelsFile = "channels.json"
)

var (
	ErrMissingUsers    = errors.New("users.json not found in export")
	ErrMissingChannels = errors.New("channels.json not found in export")
)

// Export — открытая выгрузка. Сообщения каналов читаются по запросу, чтобы не держать весь архив в памяти.
type Export struct {
	Path     string
	Users    map[string]string
	Channels []model.Channel
	src      source
}

// Open открывает zip-архив или директорию выгрузки и читает справочники.
// Отсутствие users.json или channels.json — фатальная ошибка.
func Open(path string) (*Export, error) {
	defer logger.DeferLogDuration("archive.Open", time.Now())()
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	e := &Export{Path: path, src: src}
	if err := e.loadUsers(); err != nil {
		src.Close()
		return nil, err
	}
	if err := e.loadChannels(); err != nil {
		src.Close()
		return nil, err
	}
	logger.Infof("archive: %s: users=%d channels=%d", path, len(e.Users), len(e.Channels))
	return e, nil
}

func (e *Export) loadUsers() error {
	data, err := e.src.ReadFile(usersFile)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive.Open %s: %w", e.Path, ErrMissingUsers)
	}
	if err != nil {
		return fmt.Errorf("archive.Open read users: %w", err)
	}
	var users []model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("archive.Open parse users: %w", err)
	}
	e.Users = make(map[string]string, len(users))
	for _, u := range users {
		e.Users[u.ID] = u.Name
	}
	return nil
}

func (e *Export) loadChannels() error {
	data, err := e.src.ReadFile(channelsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive.Open %s: %w", e.Path, ErrMissingChannels)
	}
	if err != nil {
		return fmt.Errorf("archive.Open read channels: %w", err)
	}
	if err := json.Unmarshal(data, &e.Channels); err != nil {
		return fmt.Errorf("archive.Open parse channels: %w", err)
	}
	return nil
}

// DisplayName возвращает имя пользователя из users.json или сам id.
func (e *Export) DisplayName(userID string) string {
	if name, ok := e.Users[userID]; ok && name != "" {
		return name
	}
	return userID
}

// Messages читает все файлы сообщений канала в порядке имён файлов (для Slack — по дням).
// ok=false, если директории канала нет в выгрузке.
func (e *Export) Messages(channel string) (msgs []model.Message, ok bool, err error) {
	names, ok, err := e.src.List(channel)
	if err != nil {
		return nil, false, fmt.Errorf("archive.Messages %s: %w", channel, err)
	}
	if !ok {
		return nil, false, nil
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := e.src.ReadFile(channel + "/" + name)
		if err != nil {
			return nil, true, fmt.Errorf("archive.Messages %s/%s: %w", channel, name, err)
		}
		var batch []model.Message
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, true, fmt.Errorf("archive.Messages parse %s/%s: %w", channel, name, err)
		}
		msgs = append(msgs, batch...)
	}
	return msgs, true, nil
}

// Close освобождает архив.
func (e *Export) Close() error {
	return e.src.Close()
}
