package recurrence

import (
	"testing"
	"time"
)

func BenchmarkEngine_NextOccurrence(b *testing.B) {
	engine := NewEngine(time.UTC)
	today := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = engine.NextOccurrence(today, time.February, 29)
	}
}

func BenchmarkEngine_ElapsedYears(b *testing.B) {
	engine := NewEngine(time.UTC)
	reference := time.Date(2000, time.November, 21, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = engine.ElapsedYears(reference, today)
	}
}
