package xsnow

import (
	"testing"

	"github.com/sony/sonyflake/v2"
)

func BenchmarkNextID(b *testing.B) {
	g, err := New(1, 1)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := g.NextID(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNextID_Parallel(b *testing.B) {
	g, err := New(1, 1)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := g.NextID(); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkComparison 与 sonyflake 对比：xsnow 每毫秒 4096 个上限，
// sonyflake 默认每 10ms 256 个，持续压测时差距主要来自等待时钟。
func BenchmarkComparison(b *testing.B) {
	b.Run("xsnow/NextID", func(b *testing.B) {
		g, err := New(1, 1)
		if err != nil {
			b.Fatal(err)
		}
		for b.Loop() {
			_, _ = g.NextID() //nolint:errcheck // benchmark
		}
	})

	b.Run("sonyflake/NextID", func(b *testing.B) {
		sf, err := sonyflake.New(sonyflake.Settings{
			MachineID: func() (int, error) { return 1, nil },
		})
		if err != nil {
			b.Fatal(err)
		}
		for b.Loop() {
			_, _ = sf.NextID() //nolint:errcheck // benchmark
		}
	})
}
