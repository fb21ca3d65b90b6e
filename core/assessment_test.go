package core

import (
	"math"
	"testing"
)

func TestParseTestType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    TestType
		wantErr bool
	}{
		{name: "letter code K", in: "K", want: TestTypeKnowledge},
		{name: "lowercase p", in: "p", want: TestTypePersonality},
		{name: "long form", in: "Knowledge & Skills", want: TestTypeKnowledge},
		{name: "long form US spelling", in: "Personality & Behavior", want: TestTypePersonality},
		{name: "padded", in: "  k ", want: TestTypeKnowledge},
		{name: "unknown", in: "Cognitive", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTestType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTestType(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTestType(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTestType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeightNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Weight
		want Weight
	}{
		{name: "already normalized", in: Weight{K: 0.6, P: 0.4}, want: Weight{K: 0.6, P: 0.4}},
		{name: "scales down", in: Weight{K: 2, P: 2}, want: Weight{K: 0.5, P: 0.5}},
		{name: "zero mass falls back to even", in: Weight{}, want: Weight{K: 0.5, P: 0.5}},
		{name: "negative clipped", in: Weight{K: -1, P: 1}, want: Weight{K: 0, P: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if math.Abs(got.K-tt.want.K) > 1e-9 || math.Abs(got.P-tt.want.P) > 1e-9 {
				t.Fatalf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWeightMajority(t *testing.T) {
	if got := (Weight{K: 0.4, P: 0.6}).Majority(); got != TestTypePersonality {
		t.Fatalf("Majority() = %q, want P", got)
	}
	// Ties go to K, the larger catalog family.
	if got := EvenWeight().Majority(); got != TestTypeKnowledge {
		t.Fatalf("Majority() on even weight = %q, want K", got)
	}
}

func TestNewCatalog(t *testing.T) {
	items := []*Assessment{
		{ID: "java-8", Name: "Java 8", Category: TestTypeKnowledge},
		{ID: "opq32", Name: "OPQ32", Category: TestTypePersonality},
		{ID: "python-new", Name: "Python (New)", Category: TestTypeKnowledge},
	}
	c, err := NewCatalog(items)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.Count(TestTypeKnowledge); got != 2 {
		t.Fatalf("Count(K) = %d, want 2", got)
	}
	if _, ok := c.Get("opq32"); !ok {
		t.Fatal("Get(opq32) not found")
	}
	// Insertion order preserved.
	for i, want := range []string{"java-8", "opq32", "python-new"} {
		if got := c.Items()[i].ID; got != want {
			t.Fatalf("Items()[%d] = %q, want %q", i, got, want)
		}
	}
	prior := c.Prior()
	if math.Abs(prior.K-2.0/3.0) > 1e-9 {
		t.Fatalf("Prior().K = %g, want 2/3", prior.K)
	}
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		items []*Assessment
	}{
		{
			name: "duplicate id",
			items: []*Assessment{
				{ID: "a", Category: TestTypeKnowledge},
				{ID: "a", Category: TestTypePersonality},
			},
		},
		{
			name:  "empty id",
			items: []*Assessment{{Name: "x", Category: TestTypeKnowledge}},
		},
		{
			name:  "invalid category",
			items: []*Assessment{{ID: "a", Category: TestType("X")}},
		},
		{
			name:  "nil entry",
			items: []*Assessment{nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.items); err == nil {
				t.Fatal("NewCatalog accepted invalid input")
			}
		})
	}
}
