package chunker

import (
	"errors"
	"testing"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		pages      int
		size       int
		wantLabels []string
	}{
		{"five pages by two", 5, 2, []string{"1-2", "3-4", "5"}},
		{"exact multiple", 6, 3, []string{"1-3", "4-6"}},
		{"single page chunks", 3, 1, []string{"1", "2", "3"}},
		{"chunk larger than document", 2, 10, []string{"1-2"}},
		{"empty document", 0, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Plan(tt.pages, tt.size)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if len(chunks) != len(tt.wantLabels) {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(tt.wantLabels))
			}
			for i, c := range chunks {
				if c.Label() != tt.wantLabels[i] {
					t.Errorf("chunk %d label = %q, want %q", i, c.Label(), tt.wantLabels[i])
				}
				if c.Index != i+1 {
					t.Errorf("chunk %d index = %d, want %d", i, c.Index, i+1)
				}
			}
		})
	}
}

func TestPlan_CoversEveryPageOnce(t *testing.T) {
	for pages := 0; pages <= 40; pages++ {
		for size := 1; size <= 7; size++ {
			chunks, err := Plan(pages, size)
			if err != nil {
				t.Fatalf("Plan(%d, %d) error = %v", pages, size, err)
			}

			wantCount := (pages + size - 1) / size
			if len(chunks) != wantCount {
				t.Errorf("Plan(%d, %d) gave %d chunks, want %d", pages, size, len(chunks), wantCount)
			}

			seen := make([]int, pages+1)
			for _, c := range chunks {
				if c.Pages() < 1 || c.Pages() > size {
					t.Errorf("Plan(%d, %d) chunk %d has %d pages", pages, size, c.Index, c.Pages())
				}
				for p := c.FirstPage; p <= c.LastPage; p++ {
					seen[p]++
				}
			}
			for p := 1; p <= pages; p++ {
				if seen[p] != 1 {
					t.Errorf("Plan(%d, %d) page %d covered %d times", pages, size, p, seen[p])
				}
			}
		}
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	if _, err := Plan(5, 0); !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("Plan(5, 0) error = %v, want ErrInvalidChunkSize", err)
	}
	if _, err := Plan(-1, 2); err == nil {
		t.Error("Plan(-1, 2) expected error")
	}
}

func TestWhole(t *testing.T) {
	c := Whole(4)
	if c.Index != 1 || c.FirstPage != 1 || c.LastPage != 4 {
		t.Errorf("Whole(4) = %+v", c)
	}
	if Whole(0).LastPage != 1 {
		t.Error("Whole(0) should still describe one page")
	}
}
