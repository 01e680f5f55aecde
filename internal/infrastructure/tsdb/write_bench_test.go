package tsdb

import "testing"

func BenchmarkFormatLineProtocol_Power(b *testing.B) {
	fields := map[string]any{"current": 163.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("power", fields)
	}
}

func BenchmarkEscapeKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		escapeKey("device=meter,room 01")
	}
}
