// Package stats — расчёт Wrapped: сборка тредов, накопление счётчиков по пользователям,
// перцентили и итоговые отчёты.
package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/model"
)

// Aggregator накапливает счётчики пользователей по тредам одного или нескольких каналов.
// Не потокобезопасен: для параллельной обработки у каждого канала свой Aggregator.
type Aggregator struct {
	excluded map[string]struct{}
	counters *model.CounterSet
}

// NewAggregator создаёт накопитель. excluded не попадают в соавторы других пользователей.
func NewAggregator(excluded map[string]struct{}) *Aggregator {
	return &Aggregator{excluded: excluded, counters: model.NewCounterSet()}
}

// Counters возвращает накопленные счётчики.
func (a *Aggregator) Counters() *model.CounterSet {
	return a.counters
}

// AddChannel учитывает все треды канала.
func (a *Aggregator) AddChannel(channel string, msgs []model.Message) {
	for _, t := range GroupThreads(msgs) {
		a.AddThread(channel, t)
	}
}

// AddThread учитывает один тред.
//
// Каждое сообщение с автором относится ровно к одному виду: начало треда,
// ответ в своём треде (self-reply, в replies не входит) или ответ в чужом треде.
// Реакции на любое сообщение треда засчитываются владельцу треда как полученные,
// поставившим — как отданные.
func (a *Aggregator) AddThread(channel string, t *model.Thread) {
	owner := t.OwnerID()
	started := false
	for i := range t.Messages {
		m := &t.Messages[i]
		author := m.UserID
		if author == "" {
			continue
		}
		c := a.counters.User(author)
		c.ChannelPosts.Add(channel, 1)

		switch {
		case author == owner && m.Timestamp == t.Root && !started:
			c.ThreadsStarted++
			started = true
		case author == owner:
			c.SelfReplies++
		default:
			c.Replies++
		}

		for _, r := range m.Reactions {
			reactors := r.Reactors()
			for _, id := range reactors {
				a.counters.User(id).ReactionsGiven.Add(r.Name, 1)
			}
			if owner != "" && len(reactors) > 0 {
				a.counters.User(owner).ReactionsReceived.Add(r.Name, len(reactors))
			}
		}
	}

	participants := t.ParticipantIDs()
	for _, u := range participants {
		c := a.counters.User(u)
		for _, v := range participants {
			if u == v {
				continue
			}
			if _, skip := a.excluded[v]; skip {
				continue
			}
			c.CoPosters.Add(v, 1)
		}
	}
}

// ChannelSource отдаёт сообщения канала; ok=false, если канала нет в выгрузке.
type ChannelSource interface {
	Messages(channel string) (msgs []model.Message, ok bool, err error)
}

// ChannelResult — итог обработки одного канала.
type ChannelResult struct {
	Channel  string
	Skipped  bool
	Messages int
	Threads  int
}

// AggregateChannels обрабатывает каналы параллельно (до workers одновременно), каждый в свой
// набор счётчиков, и складывает наборы в порядке channels. Порядок слияния фиксирован,
// поэтому результат (включая tie-break по порядку появления) совпадает с последовательным проходом.
func AggregateChannels(ctx context.Context, src ChannelSource, channels []model.Channel, excluded map[string]struct{}, workers int) (*model.CounterSet, []ChannelResult, error) {
	defer logger.DeferLogDuration("stats.AggregateChannels", time.Now())()
	if workers <= 0 {
		workers = 1
	}
	partial := make([]*model.CounterSet, len(channels))
	results := make([]ChannelResult, len(channels))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ch := range channels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msgs, ok, err := src.Messages(ch.Name)
			if err != nil {
				return fmt.Errorf("stats.AggregateChannels %s: %w", ch.Name, err)
			}
			results[i] = ChannelResult{Channel: ch.Name, Skipped: !ok, Messages: len(msgs)}
			if !ok {
				logger.Debugf("channel %s: no directory in export, skipped", ch.Name)
				return nil
			}
			agg := NewAggregator(excluded)
			threads := GroupThreads(msgs)
			for _, t := range threads {
				agg.AddThread(ch.Name, t)
			}
			results[i].Threads = len(threads)
			partial[i] = agg.Counters()
			logger.Debugf("channel %s: messages=%d threads=%d", ch.Name, len(msgs), len(threads))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	total := model.NewCounterSet()
	for _, p := range partial {
		total.Merge(p)
	}
	return total, results, nil
}

// ExclusionSet строит множество из списка id.
func ExclusionSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
