package alloc

import (
	"math/rand"
	"testing"
)

func BenchmarkFreeList_AllocFree(b *testing.B) {
	for _, strategy := range []FitStrategy{FirstFit, BestFit, WorstFit} {
		b.Run(strategy.String(), func(b *testing.B) {
			fl := newTestFreeList(b, 1<<20, &Config{Strategy: strategy})
			b.ReportAllocs()
			for b.Loop() {
				p, err := fl.Allocate(64, 8)
				if err != nil {
					b.Fatal(err)
				}
				fl.Deallocate(p)
			}
		})
	}
}

// BenchmarkFreeList_Fragmented measures the chain scan with many free blocks.
func BenchmarkFreeList_Fragmented(b *testing.B) {
	for _, strategy := range []FitStrategy{FirstFit, BestFit, WorstFit} {
		b.Run(strategy.String(), func(b *testing.B) {
			fl := newTestFreeList(b, 1<<20, &Config{Strategy: strategy})
			rng := rand.New(rand.NewSource(1))
			var held [][]byte
			for range 2000 {
				p, err := fl.Allocate(16+rng.Intn(256), 8)
				if err != nil {
					break
				}
				held = append(held, p)
			}
			for i := 0; i < len(held); i += 2 {
				fl.Deallocate(held[i])
			}

			b.ResetTimer()
			for b.Loop() {
				p, err := fl.Allocate(128, 16)
				if err != nil {
					b.Fatal(err)
				}
				fl.Deallocate(p)
			}
		})
	}
}

func BenchmarkLinear_Allocate(b *testing.B) {
	l := NewLinear(alignedArena(b, 1<<20), nil)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := l.Allocate(64, 8); err != nil {
			l.Reset()
		}
	}
}
