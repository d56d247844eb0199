package stats

import "github.com/wrapped/internal/model"

// GroupThreads собирает сообщения канала в треды по корневому ts.
// Треды идут в порядке первого появления, сообщения внутри — в порядке файла.
// Сообщения без ts отбрасываются; ответы без корня в выгрузке всё равно группируются.
func GroupThreads(msgs []model.Message) []*model.Thread {
	index := make(map[string]*model.Thread)
	var threads []*model.Thread
	for _, m := range msgs {
		if m.Timestamp == "" {
			continue
		}
		root := m.RootTimestamp()
		t, ok := index[root]
		if !ok {
			t = &model.Thread{Root: root}
			index[root] = t
			threads = append(threads, t)
		}
		t.Messages = append(t.Messages, m)
	}
	return threads
}
