package model

// UserCounters — накопитель статистики одного пользователя за прогон.
// Все поля складываются, поэтому частичные наборы (по каналам) объединяются через Merge.
type UserCounters struct {
	UserID            string
	ThreadsStarted    int
	Replies           int
	SelfReplies       int
	ReactionsGiven    *Tally
	ReactionsReceived *Tally
	CoPosters         *Tally
	ChannelPosts      *Tally
}

// NewUserCounters создаёт пустой накопитель для userID.
func NewUserCounters(userID string) *UserCounters {
	return &UserCounters{
		UserID:            userID,
		ReactionsGiven:    NewTally(),
		ReactionsReceived: NewTally(),
		CoPosters:         NewTally(),
		ChannelPosts:      NewTally(),
	}
}

// Merge прибавляет other к c.
func (c *UserCounters) Merge(other *UserCounters) {
	c.ThreadsStarted += other.ThreadsStarted
	c.Replies += other.Replies
	c.SelfReplies += other.SelfReplies
	c.ReactionsGiven.Merge(other.ReactionsGiven)
	c.ReactionsReceived.Merge(other.ReactionsReceived)
	c.CoPosters.Merge(other.CoPosters)
	c.ChannelPosts.Merge(other.ChannelPosts)
}

// EngagementReceived — ответы пользователя плюс все полученные реакции.
func (c *UserCounters) EngagementReceived() int {
	return c.Replies + c.ReactionsReceived.Total()
}

// CounterSet — накопители всех пользователей в порядке первого появления.
type CounterSet struct {
	order []string
	users map[string]*UserCounters
}

// NewCounterSet создаёт пустой набор.
func NewCounterSet() *CounterSet {
	return &CounterSet{users: make(map[string]*UserCounters)}
}

// User возвращает накопитель userID, создавая его при первом обращении.
func (s *CounterSet) User(userID string) *UserCounters {
	c, ok := s.users[userID]
	if !ok {
		c = NewUserCounters(userID)
		s.users[userID] = c
		s.order = append(s.order, userID)
	}
	return c
}

// Lookup возвращает накопитель без создания.
func (s *CounterSet) Lookup(userID string) (*UserCounters, bool) {
	c, ok := s.users[userID]
	return c, ok
}

// Len — число пользователей.
func (s *CounterSet) Len() int {
	return len(s.order)
}

// Each обходит накопители в порядке первого появления.
func (s *CounterSet) Each(fn func(c *UserCounters)) {
	for _, id := range s.order {
		fn(s.users[id])
	}
}

// Merge прибавляет other к s; новые пользователи дописываются в порядке other.
func (s *CounterSet) Merge(other *CounterSet) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		s.User(id).Merge(other.users[id])
	}
}
