package report

type (
	UserStats struct {
		Total             int `json:"total"`
		Students          int `json:"students"`
		InternalReviewers int `json:"internal_reviewers"`
		ExternalReviewers int `json:"external_reviewers"`
		Admins            int `json:"admins"`
		PendingApproval   int `json:"pending_approval"`
	}

	SessionStats struct {
		Total     int `json:"total"`
		Upcoming  int `json:"upcoming"`
		Active    int `json:"active"`
		Completed int `json:"completed"`
	}

	ProjectStats struct {
		Total    int `json:"total"`
		Pending  int `json:"pending"`
		Approved int `json:"approved"`
		Rejected int `json:"rejected"`
	}

	ReviewStats struct {
		Total        int     `json:"total"`
		Completed    int     `json:"completed"`
		Pending      int     `json:"pending"`
		AverageScore float64 `json:"average_score"`
	}

	// Overview aggregates system-wide statistics for the admin dashboard.
	Overview struct {
		Users    UserStats    `json:"users"`
		Sessions SessionStats `json:"sessions"`
		Projects ProjectStats `json:"projects"`
		Reviews  ReviewStats  `json:"reviews"`
	}
)
