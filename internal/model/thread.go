package model

// Thread — сообщения канала с общим корневым ts, в порядке появления в файле.
type Thread struct {
	Root     string
	Messages []Message
}

// OwnerID — автор корневого сообщения. Пусто, если корня нет в выгрузке или у него нет автора.
func (t *Thread) OwnerID() string {
	for i := range t.Messages {
		if t.Messages[i].Timestamp == t.Root {
			return t.Messages[i].UserID
		}
	}
	return ""
}

// ParticipantIDs — различные непустые авторы треда в порядке первого появления.
func (t *Thread) ParticipantIDs() []string {
	seen := make(map[string]struct{}, len(t.Messages))
	out := make([]string, 0, len(t.Messages))
	for i := range t.Messages {
		id := t.Messages[i].UserID
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
