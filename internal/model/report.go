package model

import "time"

// Metric — показатель, по которому считаются перцентили.
type Metric string

const (
	MetricThreadsStarted     Metric = "threads_started"
	MetricReplies            Metric = "replies"
	MetricEngagementReceived Metric = "engagement_received"
)

// Metrics — показатели в порядке хранения.
var Metrics = []Metric{MetricThreadsStarted, MetricReplies, MetricEngagementReceived}

// UserCount — пользователь и счётчик (соавтор тредов, лидер рейтинга).
type UserCount struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// BaseStats — итоги пользователя до расчёта перцентилей (хранилище base stats).
type BaseStats struct {
	UserID                         string      `json:"user_id"`
	Name                           string      `json:"user"`
	ThreadsStarted                 int         `json:"threads_started"`
	Replies                        int         `json:"replies"`
	SelfReplies                    int         `json:"self_replies"`
	AverageRepliesToThreadsStarted float64     `json:"average_replies_to_threads_started"`
	EngagementReceived             int         `json:"engagement_received"`
	TopChannels                    []Ranked    `json:"top_channels"`
	MostUsedReaction               *Ranked     `json:"most_used_reaction"`
	MostReactionsReceived          *Ranked     `json:"most_reactions_received"`
	TopCoPosters                   []UserCount `json:"top_co_posters"`
}

// Active — пользователь начинал треды или отвечал другим.
func (b *BaseStats) Active() bool {
	return b.ThreadsStarted > 0 || b.Replies > 0
}

// Value возвращает значение показателя m.
func (b *BaseStats) Value(m Metric) int {
	switch m {
	case MetricThreadsStarted:
		return b.ThreadsStarted
	case MetricReplies:
		return b.Replies
	case MetricEngagementReceived:
		return b.EngagementReceived
	}
	return 0
}

// FinalReport — итоговый Wrapped пользователя (хранилище final stats).
//
// Перцентиль — «топ N%»: меньше значит лучше. Значение 100 хранится и для неактивных
// пользователей (совместимость со схемой), поэтому рядом отдаётся IsActive.
type FinalReport struct {
	BaseStats
	ThreadsStartedPercentile     int  `json:"threads_started_percentile"`
	RepliesPercentile            int  `json:"replies_percentile"`
	EngagementReceivedPercentile int  `json:"engagement_received_percentile"`
	IsActive                     bool `json:"is_active"`
}

// Percentile возвращает перцентиль по показателю m.
func (r *FinalReport) Percentile(m Metric) int {
	switch m {
	case MetricThreadsStarted:
		return r.ThreadsStartedPercentile
	case MetricReplies:
		return r.RepliesPercentile
	case MetricEngagementReceived:
		return r.EngagementReceivedPercentile
	}
	return 0
}

// SetPercentile записывает перцентиль по показателю m.
func (r *FinalReport) SetPercentile(m Metric, p int) {
	switch m {
	case MetricThreadsStarted:
		r.ThreadsStartedPercentile = p
	case MetricReplies:
		r.RepliesPercentile = p
	case MetricEngagementReceived:
		r.EngagementReceivedPercentile = p
	}
}

// Leaderboard — самые активные авторы тредов и ответов.
type Leaderboard struct {
	TopThreadCreators []UserCount `json:"top_thread_creators"`
	TopRepliers       []UserCount `json:"top_repliers"`
}

// Run — запись о прогоне пайплайна.
type Run struct {
	ID         string     `json:"id"`
	ExportPath string     `json:"export_path"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Users      int        `json:"users"`
}
