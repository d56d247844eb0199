package stats

import (
	"math"

	"github.com/wrapped/internal/model"
)

const (
	topChannels  = 5
	topCoPosters = 3
)

// NameFunc возвращает отображаемое имя пользователя.
type NameFunc func(userID string) string

// Finalize сводит накопленные счётчики к BaseStats в порядке первого появления пользователей.
func Finalize(set *model.CounterSet, name NameFunc) []model.BaseStats {
	out := make([]model.BaseStats, 0, set.Len())
	set.Each(func(c *model.UserCounters) {
		out = append(out, FinalizeUser(c, name))
	})
	return out
}

// FinalizeUser сводит счётчики одного пользователя. engagement_received пересчитывается
// здесь из replies и полученных реакций, а не накапливается по ходу.
func FinalizeUser(c *model.UserCounters, name NameFunc) model.BaseStats {
	b := model.BaseStats{
		UserID:                c.UserID,
		Name:                  name(c.UserID),
		ThreadsStarted:        c.ThreadsStarted,
		Replies:               c.Replies,
		SelfReplies:           c.SelfReplies,
		EngagementReceived:    c.EngagementReceived(),
		TopChannels:           c.ChannelPosts.Top(topChannels),
		MostUsedReaction:      c.ReactionsGiven.MostCommon(),
		MostReactionsReceived: c.ReactionsReceived.MostCommon(),
	}
	if c.ThreadsStarted > 0 {
		b.AverageRepliesToThreadsStarted = math.Round(float64(c.SelfReplies)/float64(c.ThreadsStarted)*100) / 100
	}
	top := c.CoPosters.Top(topCoPosters)
	b.TopCoPosters = make([]model.UserCount, 0, len(top))
	for _, r := range top {
		b.TopCoPosters = append(b.TopCoPosters, model.UserCount{UserID: r.Name, Name: name(r.Name), Count: r.Count})
	}
	return b
}
