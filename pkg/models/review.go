package models

import "time"

// ReviewState represents the lifecycle state of a review request.
type ReviewState string

const (
	ReviewOpen     ReviewState = "open"
	ReviewMerged   ReviewState = "merged"
	ReviewDeclined ReviewState = "declined"
)

// Reviewer is one participant on a review request.
type Reviewer struct {
	Username     string     `json:"username"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CommentCount int        `json:"comment_count"`
}

// ReviewRequest is a pull/merge request fetched from the code-review system.
type ReviewRequest struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	CreatedAt     time.Time   `json:"created_at"`
	FirstReviewAt *time.Time  `json:"first_review_at,omitempty"`
	MergedAt      *time.Time  `json:"merged_at,omitempty"`
	State         ReviewState `json:"state"`
	Reviewers     []Reviewer  `json:"reviewers"`
	Revisions     int         `json:"revisions"`
	IssueKeys     []string    `json:"issue_keys,omitempty"`
}

// IsOpen reports whether the request is still awaiting review.
func (r ReviewRequest) IsOpen() bool {
	return r.State == ReviewOpen
}

// LatencyHours returns created-to-merged latency in hours, or 0 when the
// request has not merged.
func (r ReviewRequest) LatencyHours() float64 {
	if r.MergedAt == nil {
		return 0
	}
	return r.MergedAt.Sub(r.CreatedAt).Hours()
}

// TimeToFirstReviewHours returns created-to-first-review time in hours, or 0
// when no review has happened yet.
func (r ReviewRequest) TimeToFirstReviewHours() float64 {
	if r.FirstReviewAt == nil {
		return 0
	}
	return r.FirstReviewAt.Sub(r.CreatedAt).Hours()
}

// OpenReviewerLoad counts pending open review requests per reviewer username.
func OpenReviewerLoad(reviews []ReviewRequest) map[string]int {
	load := make(map[string]int)
	for _, r := range reviews {
		if !r.IsOpen() {
			continue
		}
		for _, rv := range r.Reviewers {
			load[rv.Username]++
		}
	}
	return load
}
