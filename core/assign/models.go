package assign

// Assignment parameters.
const (
	// DefaultReviewersPerProject is the target number of reviewers per project
	// when the caller does not request one.
	DefaultReviewersPerProject = 2

	// MaxPerSession caps a reviewer's assignments within a single session.
	MaxPerSession = 4

	// loadPenaltyWeight penalizes reviewers per assignment already held,
	// balancing load against tag affinity.
	loadPenaltyWeight = 0.5
)

type (
	// Project is the engine's read-only view of an approved project.
	Project struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		SessionID   string   `json:"session_id,omitempty"` // empty when unscheduled
		SessionName string   `json:"session_name,omitempty"`
		StudentName string   `json:"student_name,omitempty"`
		TagIDs      []string `json:"tag_ids"`
		ReviewerIDs []string `json:"reviewer_ids"` // already assigned
	}

	// Reviewer is the engine's read-only view of an approved, active reviewer.
	Reviewer struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Email        string   `json:"email"`
		TagIDs       []string `json:"tag_ids"` // interest tags
		SessionCount int      `json:"assigned_projects_count"`
		TotalCount   int      `json:"total_assigned_projects"`
	}

	// Pair is a proposed (project, reviewer) assignment.
	Pair struct {
		ProjectID  string `json:"project_id"`
		ReviewerID string `json:"reviewer_id"`
	}

	// Plan is the ordered set of assignments one engine run proposes.
	Plan struct {
		Proposed []Pair `json:"proposed_assignments"`
	}

	// Options controls one engine run.
	Options struct {
		// SessionID restricts the run to one session's projects and scopes
		// load counts to that session. Empty means all approved projects.
		SessionID string
		// ReviewersPerProject is the target per project; defaults to
		// DefaultReviewersPerProject when <= 0.
		ReviewersPerProject int
		// Preview computes the plan without committing it.
		Preview bool
	}

	// Result is what one AutoAssign run reports back.
	Result struct {
		AssignmentsMade int    `json:"assignments_made"`
		Proposed        []Pair `json:"proposed_assignments"`
		Preview         bool   `json:"preview"`
	}
)

func (p Plan) Count() int { return len(p.Proposed) }
