package model

import "sort"

// Ranked — ключ и его счётчик (канал, эмодзи).
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Tally — счётчик по ключам, помнящий порядок первого появления ключа.
// Порядок используется как tie-break в Top, поэтому результат воспроизводим.
type Tally struct {
	keys   []string
	counts map[string]int
}

// NewTally создаёт пустой счётчик.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add прибавляет n к ключу.
func (t *Tally) Add(key string, n int) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.counts[key] += n
}

// Get возвращает счётчик ключа (0, если ключа нет).
func (t *Tally) Get(key string) int {
	return t.counts[key]
}

// Len — число различных ключей.
func (t *Tally) Len() int {
	return len(t.keys)
}

// Total — сумма всех счётчиков.
func (t *Tally) Total() int {
	sum := 0
	for _, k := range t.keys {
		sum += t.counts[k]
	}
	return sum
}

// Keys возвращает ключи в порядке появления.
func (t *Tally) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Merge прибавляет other к t. Новые ключи дописываются в порядке их появления в other.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		t.Add(k, other.counts[k])
	}
}

// Top возвращает до n ключей по убыванию счётчика; равные — в порядке появления.
func (t *Tally) Top(n int) []Ranked {
	out := make([]Ranked, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, Ranked{Name: k, Count: t.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MostCommon — ключ с наибольшим счётчиком или nil для пустого счётчика.
func (t *Tally) MostCommon() *Ranked {
	top := t.Top(1)
	if len(top) == 0 {
		return nil
	}
	return &top[0]
}
