package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User — запись из users.json выгрузки.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Channel — запись из channels.json. Имя совпадает с директорией канала в архиве.
type Channel struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Reaction — эмодзи и пользователи, которые его поставили.
type Reaction struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
	Count int      `json:"count,omitempty"`
}

// Reactors возвращает различные непустые id в порядке появления.
func (r Reaction) Reactors() []string {
	if len(r.Users) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Users))
	out := make([]string, 0, len(r.Users))
	for _, id := range r.Users {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Message — сообщение из файла канала. Timestamp пустой, если поле ts отсутствовало.
type Message struct {
	Timestamp       string     `json:"ts"`
	ThreadTimestamp string     `json:"thread_ts,omitempty"`
	UserID          string     `json:"user,omitempty"`
	Subtype         string     `json:"subtype,omitempty"`
	Reactions       []Reaction `json:"reactions,omitempty"`
}

// Timestamp — ts в выгрузке: строка ("1700000000.000100") или число. Число
// сохраняется текстом литерала, без преобразования через float64.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model.Timestamp: %s: %w", data, err)
	}
	*t = Timestamp(n.String())
	return nil
}

// UnmarshalJSON разбирает сообщение, принимая ts и thread_ts строкой или числом.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		TS       Timestamp `json:"ts"`
		ThreadTS Timestamp `json:"thread_ts"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Timestamp = string(aux.TS)
	m.ThreadTimestamp = string(aux.ThreadTS)
	return nil
}

// RootTimestamp — ts корня треда; без thread_ts сообщение само является корнем.
func (m *Message) RootTimestamp() string {
	if m.ThreadTimestamp != "" {
		return m.ThreadTimestamp
	}
	return m.Timestamp
}

// IsThreadRoot сообщает, начинает ли сообщение тред.
func (m *Message) IsThreadRoot() bool {
	return m.Timestamp == m.RootTimestamp()
}
