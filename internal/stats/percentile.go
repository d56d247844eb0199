package stats

import (
	"math"
	"sort"

	"github.com/wrapped/internal/model"
)

const (
	// breakpointCount — перцентили 0..100 включительно.
	breakpointCount = 101
)

// PercentileTable — границы перцентилей по каждому показателю. Строится один раз после
// накопления всех счётчиков и дальше не меняется.
type PercentileTable struct {
	breakpoints map[model.Metric][]float64
	population  int
}

// BuildPercentileTable считает границы по активным (начинали треды или отвечали)
// и не исключённым пользователям. Пустая популяция даёт пустую таблицу.
func BuildPercentileTable(base []model.BaseStats, excluded map[string]struct{}) *PercentileTable {
	values := make(map[model.Metric][]float64, len(model.Metrics))
	n := 0
	for i := range base {
		b := &base[i]
		if _, skip := excluded[b.UserID]; skip || !b.Active() {
			continue
		}
		n++
		for _, m := range model.Metrics {
			values[m] = append(values[m], float64(b.Value(m)))
		}
	}
	t := &PercentileTable{breakpoints: make(map[model.Metric][]float64, len(model.Metrics)), population: n}
	for _, m := range model.Metrics {
		t.breakpoints[m] = percentiles(values[m])
	}
	return t
}

// Population — число пользователей, по которым построена таблица.
func (t *PercentileTable) Population() int {
	return t.population
}

// Breakpoints возвращает границы показателя m (nil для пустой популяции).
func (t *PercentileTable) Breakpoints(m model.Metric) []float64 {
	return t.breakpoints[m]
}

// Rank — «топ N%» для значения: 101 минус позиция вставки справа среди границ.
// Чем больше значение, тем меньше ранг. Без границ ранг 0. Значение ниже минимума
// популяции (бывает только у исключённых) даёт 101.
func (t *PercentileTable) Rank(m model.Metric, value int) int {
	bp := t.breakpoints[m]
	if len(bp) == 0 {
		return 0
	}
	v := float64(value)
	idx := sort.Search(len(bp), func(i int) bool { return bp[i] > v })
	return breakpointCount - idx
}

// percentiles считает перцентили 0..100 линейной интерполяцией между порядковыми
// статистиками (метод "linear", как numpy.percentile по умолчанию).
func percentiles(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	out := make([]float64, breakpointCount)
	for p := 0; p < breakpointCount; p++ {
		q := float64(p) / 100
		virtual := float64(n-1) * q
		switch {
		case virtual >= float64(n-1):
			out[p] = sorted[n-1]
		case virtual < 0:
			out[p] = sorted[0]
		default:
			lo := math.Floor(virtual)
			gamma := virtual - lo
			i := int(lo)
			out[p] = lerp(sorted[i], sorted[i+1], gamma)
		}
	}
	return out
}

// lerp интерполирует от a к b; при t >= 0.5 считает от b, чтобы точно попадать в концы.
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

// AssignPercentiles строит итоговые отчёты: неактивные получают 0 по всем показателям,
// активные (в том числе исключённые из популяции) получают Rank как есть; затем FixZeros.
//
// Ранг хранится без ограничения сверху: исключённый активный пользователь со значением
// ниже минимума популяции получает 101. Это значение вне шкалы 0..100; в хранимой
// схеме оно остаётся, потребители отличают его по IsActive и самому числу.
func AssignPercentiles(base []model.BaseStats, table *PercentileTable) []model.FinalReport {
	out := make([]model.FinalReport, len(base))
	for i := range base {
		r := model.FinalReport{BaseStats: base[i], IsActive: base[i].Active()}
		for _, m := range model.Metrics {
			if r.IsActive {
				r.SetPercentile(m, table.Rank(m, r.Value(m)))
			} else {
				r.SetPercentile(m, 0)
			}
		}
		FixZeros(&r)
		out[i] = r
	}
	return out
}

// FixZeros убирает нулевые перцентили: при ненулевом значении ставит 1 (любая активность
// лучше нулевой), при нулевом — 100.
//
// 100 для нулевого значения — контракт хранимой схемы: потребители читают его как
// «нет осмысленного ранга», хотя то же число означает и последнюю сотую. Различить
// случаи можно по IsActive.
func FixZeros(r *model.FinalReport) {
	for _, m := range model.Metrics {
		if r.Percentile(m) != 0 {
			continue
		}
		if r.Value(m) > 0 {
			r.SetPercentile(m, 1)
		} else {
			r.SetPercentile(m, 100)
		}
	}
}
