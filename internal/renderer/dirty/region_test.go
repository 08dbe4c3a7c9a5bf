package dirty

import "testing"

func TestNewRange(t *testing.T) {
	r := NewRange(10, 4)
	if r.Start != 4 || r.End != 10 {
		t.Errorf("NewRange(10, 4) = %+v, want {4 10}", r)
	}
	if r.Len() != 6 {
		t.Errorf("Len() = %d, want 6", r.Len())
	}

	p := Point(7)
	if p.Len() != 0 || !p.Contains(7) {
		t.Errorf("Point(7) = %+v", p)
	}

	if n := NewRange(-3, 2); n.Start != 0 {
		t.Errorf("negative start not clamped: %+v", n)
	}
}

func TestRangeMerge(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Range
		want   Range
		merged bool
	}{
		{"overlapping", Range{0, 5}, Range{3, 8}, Range{0, 8}, true},
		{"touching", Range{0, 5}, Range{5, 8}, Range{0, 8}, true},
		{"contained", Range{0, 10}, Range{3, 4}, Range{0, 10}, true},
		{"point inside", Range{2, 6}, Point(4), Range{2, 6}, true},
		{"disjoint", Range{0, 2}, Range{5, 8}, Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Merge(tt.b)
			if ok != tt.merged {
				t.Fatalf("Merge ok = %v, want %v", ok, tt.merged)
			}
			if ok && got != tt.want {
				t.Errorf("Merge = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRangeShift(t *testing.T) {
	tests := []struct {
		name      string
		r         Range
		at, delta int
		want      Range
	}{
		{"insert before", Range{10, 20}, 5, 3, Range{13, 23}},
		{"insert inside", Range{10, 20}, 15, 3, Range{10, 23}},
		{"insert after", Range{10, 20}, 25, 3, Range{10, 20}},
		{"insert at start", Range{10, 20}, 10, 2, Range{12, 22}},
		{"delete before", Range{10, 20}, 0, -5, Range{5, 15}},
		{"delete overlapping start", Range{10, 20}, 8, -4, Range{8, 16}},
		{"delete covering", Range{10, 20}, 5, -20, Range{5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.shift(tt.at, tt.delta); got != tt.want {
				t.Errorf("shift(%d, %d) = %+v, want %+v", tt.at, tt.delta, got, tt.want)
			}
		})
	}
}
