// Package present превращает FinalReport в текст Slack (mrkdwn). Случайный выбор
// заголовка и финальной строки живёт только здесь; расчёты пайплайна детерминированы.
package present

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/wrapped/internal/model"
)

const userPlaceholder = "<@USERID>"

const (
	favoriteChannels = 3
	minBuddyCount    = 5
)

// %[1]d — год отчёта, %[2]d — следующий год.
var titleTemplates = []string{
	"Hey <@USERID>! Here's your Slack Wrapped for %[1]d:",
	"Here it is! Slack Wrapped for <@USERID>!",
	"Hope you enjoyed the %[1]d, <@USERID>! Here's your Slack Wrapped:",
	"Slack Wrapped for <@USERID>! Check it out!",
	"And the Slack Wrapped for <@USERID> is here!",
	"Okay, let's see what you did in %[1]d, <@USERID>!",
	"Slack Wrapped for <@USERID>! Drumroll please!",
}

var closingTemplates = []string{
	"Hope you enjoyed your %[1]d, <@USERID>! Here's to an even better %[2]d!",
	"That's all for now, <@USERID>! Here's to a great %[2]d!",
	"And that's a wrap! Hope you had a great %[1]d, <@USERID>!",
	"What a year, <@USERID>! Can't wait to see what you do in %[2]d!",
	"And it all went by so fast! Hope you had a great %[1]d, <@USERID>!",
	"See you next year, <@USERID>!",
}

type threshold struct {
	limit int
	text  string
}

// Перцентиль «топ N%»: чем меньше, тем ярче эмодзи.
var emojiThresholds = []threshold{
	{2, ":heart_on_fire:"},
	{5, ":fire:"},
	{10, ":star:"},
	{25, ":sunglasses:"},
	{50, ":grin:"},
}

var buddyLines = []threshold{
	{45, "must be bound by fate"},
	{30, "were pals"},
	{15, "must get along well"},
	{10, "bumped into eachother a lot"},
}

// EmojiFor подбирает эмодзи к перцентилю.
func EmojiFor(percentile int) string {
	for _, t := range emojiThresholds {
		if percentile <= t.limit {
			return t.text
		}
	}
	return ":smile:"
}

// BuddyLineFor описывает, насколько часто двое писали в одних тредах.
func BuddyLineFor(count int) string {
	for _, t := range buddyLines {
		if count >= t.limit {
			return t.text
		}
	}
	return "crossed paths"
}

// NoDataText — ответ пользователю, для которого нет отчёта.
func NoDataText(userID string) string {
	return fmt.Sprintf("Sorry, <@%s>, we don't seem to have any data for you. :thinking_face: "+
		"Maybe you weren't very active, or maybe we made a mistake somewhere.", userID)
}

// Renderer собирает текст отчёта. Безопасен для параллельного использования.
type Renderer struct {
	year int
	mu   sync.Mutex
	rnd  *rand.Rand
}

// New создаёт Renderer для года year со случайным зерном.
func New(year int) *Renderer {
	seed := uint64(time.Now().UnixNano())
	return NewWithSource(year, rand.NewPCG(seed, seed>>1|1))
}

// NewWithSource — Renderer с заданным источником случайности (для воспроизводимых тестов).
func NewWithSource(year int, src rand.Source) *Renderer {
	return &Renderer{year: year, rnd: rand.New(src)}
}

func (r *Renderer) pick(templates []string) string {
	r.mu.Lock()
	i := r.rnd.IntN(len(templates))
	r.mu.Unlock()
	return templates[i]
}

func (r *Renderer) fill(tmpl, userID string) string {
	s := tmpl
	if strings.Contains(s, "%[") {
		s = fmt.Sprintf(s, r.year, r.year+1)
	}
	return strings.ReplaceAll(s, userPlaceholder, "<@"+userID+">")
}

// Render возвращает текст Wrapped для отчёта rep.
func (r *Renderer) Render(rep *model.FinalReport) string {
	var b strings.Builder
	id := rep.UserID

	b.WriteString(r.fill(r.pick(titleTemplates), id))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "You were in the top *%d%%* of conversation starters, creating *%d threads*. %s \n",
		rep.ThreadsStartedPercentile, rep.ThreadsStarted, EmojiFor(rep.ThreadsStartedPercentile))
	fmt.Fprintf(&b, "You replied to other members *%d times*, putting you in the top *%d%%* of repliers. %s \n",
		rep.Replies, rep.RepliesPercentile, EmojiFor(rep.RepliesPercentile))

	writeReactions(&b, rep.MostReactionsReceived, rep.MostUsedReaction)

	if len(rep.TopChannels) > 0 {
		b.WriteString("\nYour favorite channels to post in were: ")
		for i, ch := range rep.TopChannels {
			if i == favoriteChannels {
				break
			}
			fmt.Fprintf(&b, "\n- #%s (%d posts)", ch.Name, ch.Count)
		}
	}

	if len(rep.TopCoPosters) > 0 && rep.TopCoPosters[0].Count >= minBuddyCount {
		buddy := rep.TopCoPosters[0]
		fmt.Fprintf(&b, "\n\nYou and <@%s> %s, posting in the same thread *%d times*.\n",
			buddy.UserID, BuddyLineFor(buddy.Count), buddy.Count)
	}

	fmt.Fprintf(&b, "\nAs far as engagement goes, your threads received a total of *%d reactions & replies*, putting you in the top *%d%%*. %s \n",
		rep.EngagementReceived, rep.EngagementReceivedPercentile, EmojiFor(rep.EngagementReceivedPercentile))

	b.WriteString("\n")
	b.WriteString(r.fill(r.pick(closingTemplates), id))
	b.WriteString("\nThanks for being one of us! :sparkles:")
	return b.String()
}

func writeReactions(b *strings.Builder, received, used *model.Ranked) {
	if received == nil {
		return
	}
	if used != nil && used.Name == received.Name {
		fmt.Fprintf(b, "\nYour posts received a :%s: more than any other reaction, and you gave it right back, using it *%d times*!\n",
			received.Name, used.Count)
		return
	}
	fmt.Fprintf(b, "\nYour posts received a :%s: more than any other reaction.\n", received.Name)
	if used != nil {
		fmt.Fprintf(b, "But you preferred :%s: and used it *%d times*.\n", used.Name, used.Count)
	}
}
