package stats

import (
	"sort"

	"github.com/wrapped/internal/model"
)

const leaderboardSize = 5

// BuildLeaderboard выбирает пять лучших авторов тредов и пять лучших отвечающих.
// В рейтинге отвечающих считается каждое сообщение не первым в треде, ответы в своих
// тредах тоже. Исключённые пользователи и нулевые значения в рейтинг не попадают;
// равные идут в порядке base.
func BuildLeaderboard(base []model.BaseStats, excluded map[string]struct{}) model.Leaderboard {
	return model.Leaderboard{
		TopThreadCreators: topBy(base, excluded, threadsStarted),
		TopRepliers:       topBy(base, excluded, allReplies),
	}
}

func threadsStarted(b *model.BaseStats) int { return b.ThreadsStarted }

func allReplies(b *model.BaseStats) int { return b.Replies + b.SelfReplies }

func topBy(base []model.BaseStats, excluded map[string]struct{}, value func(*model.BaseStats) int) []model.UserCount {
	out := make([]model.UserCount, 0, leaderboardSize)
	for i := range base {
		b := &base[i]
		if _, skip := excluded[b.UserID]; skip {
			continue
		}
		if v := value(b); v > 0 {
			out = append(out, model.UserCount{UserID: b.UserID, Name: b.Name, Count: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > leaderboardSize {
		out = out[:leaderboardSize]
	}
	return out
}
