package assign

import (
	"reflect"
	"testing"
)

func pairs(ps ...Pair) []Pair { return ps }

func TestComputePlan(t *testing.T) {
	tests := []struct {
		name      string
		projects  []Project
		reviewers []Reviewer
		opts      Options
		want      []Pair
		wantErr   error
	}{
		{
			name:     "no reviewers",
			projects: []Project{{ID: "p1"}},
			wantErr:  ErrNoReviewers,
		},
		{
			name:      "no projects",
			reviewers: []Reviewer{{ID: "r1"}},
			want:      nil,
		},
		{
			name: "tag affinity wins",
			projects: []Project{
				{ID: "p1", TagIDs: []string{"ml", "nlp"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TagIDs: []string{"db"}},
				{ID: "r2", TagIDs: []string{"ml", "nlp"}},
			},
			opts: Options{ReviewersPerProject: 1},
			want: pairs(Pair{"p1", "r2"}),
		},
		{
			name: "load penalty favors busy matching reviewer over idle mismatch",
			// P1{A,B} -> R1 (tag 2). P2{A}: R1 now at load 1 scores 1-0.5=0.5,
			// still above R2's 0; R1 is reused across projects.
			projects: []Project{
				{ID: "p1", TagIDs: []string{"a", "b"}},
				{ID: "p2", TagIDs: []string{"a"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TagIDs: []string{"a", "b"}},
				{ID: "r2"},
			},
			opts: Options{ReviewersPerProject: 1},
			want: pairs(Pair{"p1", "r1"}, Pair{"p2", "r1"}),
		},
		{
			name: "load penalty eventually spreads work",
			projects: []Project{
				{ID: "p1"}, {ID: "p2"}, {ID: "p3"}, {ID: "p4"},
			},
			reviewers: []Reviewer{
				{ID: "r1"},
				{ID: "r2"},
			},
			opts: Options{ReviewersPerProject: 1},
			want: pairs(Pair{"p1", "r1"}, Pair{"p2", "r2"}, Pair{"p3", "r1"}, Pair{"p4", "r2"}),
		},
		{
			name: "already assigned reviewer is not proposed again for the same project",
			projects: []Project{
				{ID: "p1", TagIDs: []string{"a"}, ReviewerIDs: []string{"r1"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TagIDs: []string{"a"}, TotalCount: 1},
				{ID: "r2"},
			},
			opts: Options{ReviewersPerProject: 2},
			want: pairs(Pair{"p1", "r2"}),
		},
		{
			name: "fully staffed project produces no proposals",
			projects: []Project{
				{ID: "p1", ReviewerIDs: []string{"r1", "r2"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TotalCount: 1}, {ID: "r2", TotalCount: 1}, {ID: "r3"},
			},
			opts: Options{ReviewersPerProject: 2},
			want: nil,
		},
		{
			name: "over-assigned project is left alone",
			projects: []Project{
				{ID: "p1", ReviewerIDs: []string{"r1", "r2", "r3"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TotalCount: 1}, {ID: "r2", TotalCount: 1}, {ID: "r3", TotalCount: 1},
			},
			opts: Options{ReviewersPerProject: 2},
			want: nil,
		},
		{
			name: "session cap excludes reviewer outright regardless of tag score",
			projects: []Project{
				{ID: "p1", SessionID: "s1", TagIDs: []string{"a", "b", "c"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TagIDs: []string{"a", "b", "c"}, SessionCount: 4, TotalCount: 4},
				{ID: "r2"},
			},
			opts: Options{SessionID: "s1", ReviewersPerProject: 1},
			want: pairs(Pair{"p1", "r2"}),
		},
		{
			name: "session cap counts same-run proposals",
			projects: []Project{
				{ID: "p1", SessionID: "s1"}, {ID: "p2", SessionID: "s1"},
				{ID: "p3", SessionID: "s1"}, {ID: "p4", SessionID: "s1"},
				{ID: "p5", SessionID: "s1"},
			},
			reviewers: []Reviewer{{ID: "r1"}},
			opts:      Options{SessionID: "s1", ReviewersPerProject: 1},
			want: pairs(
				Pair{"p1", "r1"}, Pair{"p2", "r1"}, Pair{"p3", "r1"}, Pair{"p4", "r1"},
			),
		},
		{
			name: "projects without a session are not capped",
			projects: []Project{
				{ID: "p1"}, {ID: "p2"}, {ID: "p3"},
				{ID: "p4"}, {ID: "p5"}, {ID: "p6"},
			},
			reviewers: []Reviewer{{ID: "r1", TotalCount: 4}},
			opts:      Options{ReviewersPerProject: 1},
			want: pairs(
				Pair{"p1", "r1"}, Pair{"p2", "r1"}, Pair{"p3", "r1"},
				Pair{"p4", "r1"}, Pair{"p5", "r1"}, Pair{"p6", "r1"},
			),
		},
		{
			name: "equal scores keep reviewer input order",
			projects: []Project{
				{ID: "p1", TagIDs: []string{"a"}},
			},
			reviewers: []Reviewer{
				{ID: "r1", TagIDs: []string{"a"}},
				{ID: "r2", TagIDs: []string{"a"}},
				{ID: "r3", TagIDs: []string{"a"}},
			},
			opts: Options{ReviewersPerProject: 2},
			want: pairs(Pair{"p1", "r1"}, Pair{"p1", "r2"}),
		},
		{
			name: "default target is two reviewers",
			projects: []Project{
				{ID: "p1"},
			},
			reviewers: []Reviewer{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}},
			want:      pairs(Pair{"p1", "r1"}, Pair{"p1", "r2"}),
		},
		{
			name: "fewer candidates than needed",
			projects: []Project{
				{ID: "p1"},
			},
			reviewers: []Reviewer{{ID: "r1"}},
			opts:      Options{ReviewersPerProject: 3},
			want:      pairs(Pair{"p1", "r1"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputePlan(tt.projects, tt.reviewers, tt.opts)
			if err != tt.wantErr {
				t.Fatalf("ComputePlan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(plan.Proposed, tt.want) {
				t.Errorf("ComputePlan() = %v, want %v", plan.Proposed, tt.want)
			}
			if plan.Count() != len(tt.want) {
				t.Errorf("Count() = %d, want %d", plan.Count(), len(tt.want))
			}
		})
	}
}

func TestComputePlanIsDeterministic(t *testing.T) {
	projects := []Project{
		{ID: "p1", SessionID: "s1", TagIDs: []string{"a", "b"}},
		{ID: "p2", SessionID: "s1", TagIDs: []string{"b", "c"}, ReviewerIDs: []string{"r2"}},
		{ID: "p3", SessionID: "s1", TagIDs: []string{"c"}},
	}
	reviewers := []Reviewer{
		{ID: "r1", TagIDs: []string{"a", "c"}, SessionCount: 1, TotalCount: 2},
		{ID: "r2", TagIDs: []string{"b"}, SessionCount: 1, TotalCount: 1},
		{ID: "r3", TagIDs: []string{"a", "b", "c"}},
	}
	opts := Options{SessionID: "s1", ReviewersPerProject: 2}

	first, err := ComputePlan(projects, reviewers, opts)
	if err != nil {
		t.Fatalf("ComputePlan() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ComputePlan(projects, reviewers, opts)
		if err != nil {
			t.Fatalf("ComputePlan() failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v != %v", i, again.Proposed, first.Proposed)
		}
	}
}

// TestComputePlanInvariants stress-checks the hard constraints on a bigger
// snapshot: no duplicate pairs, no same-run reviewer duplication on one
// project, and no reviewer pushed past the per-session cap.
func TestComputePlanInvariants(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e"}
	var projects []Project
	for i := 0; i < 20; i++ {
		projects = append(projects, Project{
			ID:        string(rune('A' + i)),
			SessionID: "s1",
			TagIDs:    tags[i%len(tags) : i%len(tags)+1],
		})
	}
	reviewers := []Reviewer{
		{ID: "r1", TagIDs: []string{"a", "b"}, SessionCount: 2, TotalCount: 3},
		{ID: "r2", TagIDs: []string{"c"}, SessionCount: 3, TotalCount: 3},
		{ID: "r3", TagIDs: tags},
		{ID: "r4"},
	}
	opts := Options{SessionID: "s1", ReviewersPerProject: 2}

	plan, err := ComputePlan(projects, reviewers, opts)
	if err != nil {
		t.Fatalf("ComputePlan() failed: %v", err)
	}

	seen := make(map[Pair]bool)
	counts := map[string]int{"r1": 2, "r2": 3}
	for _, pair := range plan.Proposed {
		if seen[pair] {
			t.Errorf("duplicate pair proposed: %v", pair)
		}
		seen[pair] = true
		counts[pair.ReviewerID]++
	}
	for id, count := range counts {
		if count > MaxPerSession {
			t.Errorf("reviewer %s ends at %d assignments; cap is %d", id, count, MaxPerSession)
		}
	}
}
