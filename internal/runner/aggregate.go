package runner

import (
	"time"

	"github.com/shopspring/decimal"

	"llmbench/internal/model"
)

// Stamp identifies a finished run.
type Stamp struct {
	ID          string
	CompletedAt time.Time
}

// Aggregate builds the run record for items evaluated against modelName.
// Averages are rounded to one decimal and are 0 when there is nothing to
// average; metric averages only consider items that carry metrics.
func Aggregate(modelName string, datasets []string, items []model.ItemRecord, stamp Stamp) model.RunRecord {
	var scores, durations, rates, lengths mean
	for _, item := range items {
		scores.add(decimal.NewFromInt(int64(item.Score)))
		if item.Metrics == nil {
			continue
		}
		durations.add(decimal.NewFromFloat(item.Metrics.DurationSeconds))
		rates.add(decimal.NewFromFloat(item.Metrics.TokensPerSecond))
		lengths.add(decimal.NewFromInt(int64(item.Metrics.ResponseLength)))
	}

	details := make([]model.ItemRecord, len(items))
	copy(details, items)
	names := make([]string, len(datasets))
	copy(names, datasets)

	return model.RunRecord{
		ID:                stamp.ID,
		Timestamp:         FormatTimestamp(stamp.CompletedAt),
		Model:             modelName,
		Datasets:          names,
		AvgScore:          scores.value(),
		AvgDuration:       model.Float(durations.value()),
		AvgTPS:            model.Float(rates.value()),
		AvgResponseLength: model.Float(lengths.value()),
		Details:           details,
	}
}

type mean struct {
	sum   decimal.Decimal
	count int64
}

func (m *mean) add(v decimal.Decimal) {
	m.sum = m.sum.Add(v)
	m.count++
}

// value is the mean rounded half away from zero to one decimal.
func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum.DivRound(decimal.NewFromInt(m.count), 1).InexactFloat64()
}
