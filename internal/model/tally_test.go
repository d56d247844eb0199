package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyTopKeepsDiscoveryOrderOnTies(t *testing.T) {
	tl := NewTally()
	tl.Add("b", 2)
	tl.Add("a", 3)
	tl.Add("c", 2)
	tl.Add("d", 1)

	assert.Equal(t, []Ranked{{"a", 3}, {"b", 2}, {"c", 2}}, tl.Top(3))
	assert.Equal(t, &Ranked{Name: "a", Count: 3}, tl.MostCommon())
	assert.Equal(t, 8, tl.Total())
	assert.Equal(t, 4, tl.Len())
	assert.Len(t, tl.Top(10), 4)
}

func TestTallyEmpty(t *testing.T) {
	tl := NewTally()
	assert.Nil(t, tl.MostCommon())
	assert.Empty(t, tl.Top(5))
	assert.Equal(t, 0, tl.Get("x"))
}

func TestTallyMergeAppendsNewKeys(t *testing.T) {
	a := NewTally()
	a.Add("x", 1)
	b := NewTally()
	b.Add("y", 5)
	b.Add("x", 2)

	a.Merge(b)
	assert.Equal(t, []string{"x", "y"}, a.Keys())
	assert.Equal(t, 3, a.Get("x"))
	assert.Equal(t, 5, a.Get("y"))
}

func TestCounterSetMerge(t *testing.T) {
	left := NewCounterSet()
	left.User("U1").ThreadsStarted = 1
	left.User("U1").ChannelPosts.Add("general", 2)

	right := NewCounterSet()
	right.User("U2").Replies = 4
	right.User("U1").ChannelPosts.Add("random", 1)
	right.User("U1").ReactionsReceived.Add("fire", 3)
	right.User("U1").Replies = 1

	left.Merge(right)
	assert.Equal(t, 2, left.Len())

	var order []string
	left.Each(func(c *UserCounters) { order = append(order, c.UserID) })
	assert.Equal(t, []string{"U1", "U2"}, order)

	u1, ok := left.Lookup("U1")
	assert.True(t, ok)
	assert.Equal(t, 1, u1.ThreadsStarted)
	assert.Equal(t, []string{"general", "random"}, u1.ChannelPosts.Keys())
	assert.Equal(t, 4, u1.EngagementReceived())

	_, ok = left.Lookup("U3")
	assert.False(t, ok)
}

func TestThreadOwnerAndParticipants(t *testing.T) {
	th := Thread{Root: "1.0", Messages: []Message{
		{Timestamp: "1.1", ThreadTimestamp: "1.0", UserID: "B"},
		{Timestamp: "1.0", UserID: "A"},
		{Timestamp: "1.2", ThreadTimestamp: "1.0"},
		{Timestamp: "1.3", ThreadTimestamp: "1.0", UserID: "B"},
	}}
	assert.Equal(t, "A", th.OwnerID())
	assert.Equal(t, []string{"B", "A"}, th.ParticipantIDs())

	orphan := Thread{Root: "9.0", Messages: []Message{{Timestamp: "9.1", ThreadTimestamp: "9.0", UserID: "C"}}}
	assert.Equal(t, "", orphan.OwnerID())
}

func TestReactorsDeduplicated(t *testing.T) {
	r := Reaction{Name: "fire", Users: []string{"A", "", "B", "A"}}
	assert.Equal(t, []string{"A", "B"}, r.Reactors())
	assert.Nil(t, Reaction{Name: "x"}.Reactors())
}
