package review

import (
	"math"
	"testing"

	"github.com/trezcool/confeval/core"
)

func TestComputeTotal(t *testing.T) {
	crits := []Criterion{
		{ID: "clarity", Name: "Clarity", MaxScore: 10, Weight: 2},
		{ID: "rigor", Name: "Rigor", MaxScore: 5, Weight: 1},
		{ID: "impact", Name: "Impact", MaxScore: 20, Weight: 3},
	}

	tests := []struct {
		name    string
		scores  []CriterionScore
		crits   []Criterion
		want    float64
		wantErr bool
	}{
		{
			name: "full marks yield 100",
			scores: []CriterionScore{
				{CriterionID: "clarity", Score: 10},
				{CriterionID: "rigor", Score: 5},
				{CriterionID: "impact", Score: 20},
			},
			crits: crits,
			want:  100,
		},
		{
			name: "zero scores yield 0",
			scores: []CriterionScore{
				{CriterionID: "clarity", Score: 0},
				{CriterionID: "rigor", Score: 0},
			},
			crits: crits,
			want:  0,
		},
		{
			name: "weights favor heavier criteria",
			// (8/10)*2 + (4/5)*1 + (10/20)*3 = 1.6 + 0.8 + 1.5 = 3.9
			// 3.9 / 6 * 100 = 65
			scores: []CriterionScore{
				{CriterionID: "clarity", Score: 8},
				{CriterionID: "rigor", Score: 4},
				{CriterionID: "impact", Score: 10},
			},
			crits: crits,
			want:  65,
		},
		{
			name: "partial scoring only weighs scored criteria",
			// (5/10)*2 / 2 * 100 = 50
			scores: []CriterionScore{
				{CriterionID: "clarity", Score: 5},
			},
			crits: crits,
			want:  50,
		},
		{
			name:   "no scores yield 0",
			scores: nil,
			crits:  crits,
			want:   0,
		},
		{
			name: "unknown criterion rejected",
			scores: []CriterionScore{
				{CriterionID: "nope", Score: 1},
			},
			crits:   crits,
			wantErr: true,
		},
		{
			name: "score above max rejected",
			scores: []CriterionScore{
				{CriterionID: "rigor", Score: 6},
			},
			crits:   crits,
			wantErr: true,
		},
		{
			name: "negative score rejected",
			scores: []CriterionScore{
				{CriterionID: "clarity", Score: -1},
			},
			crits:   crits,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.scores, tt.crits)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				if _, ok := err.(*core.ValidationError); !ok {
					t.Errorf("expected a *core.ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeTotal() failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeTotal() = %v, expected %v", got, tt.want)
			}
		})
	}
}
