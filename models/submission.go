package models

import (
	"time"
)

// Submission statuses. A submission starts as pending and leaves pending
// exactly once; needs_revision, approved and advanced are all terminal for
// that submission instance.
const (
	StatusPending       = "pending"
	StatusNeedsRevision = "needs_revision"
	StatusApproved      = "approved"
	StatusAdvanced      = "advanced"
)

// Submission is one versioned draft a student sent for review. Rows are
// never deleted; the submissions table is the audit trail for the whole
// supervision workflow.
//
// The schema is managed by external migrations; the index tags document
// the unique (thesis_id, version) key those migrations create.
type Submission struct {
	SubmissionID   int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ThesisID       int        `gorm:"column:thesis_id;index:idx_thesis_version,unique" json:"thesis_id"`
	StudentID      int        `gorm:"column:student_id;index" json:"student_id"`
	Version        int        `gorm:"column:version;index:idx_thesis_version,unique" json:"version"`
	Title          string     `gorm:"column:title" json:"title"`
	FileID         string     `gorm:"column:file_id" json:"file_id"`
	Note           string     `gorm:"column:note" json:"note"`
	Status         string     `gorm:"column:status;index:idx_thesis_status" json:"status"`
	Feedback       string     `gorm:"column:feedback" json:"feedback"`
	FeedbackFileID *string    `gorm:"column:feedback_file_id" json:"feedback_file_id,omitempty"`
	ReviewerID     *int       `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	// Relations
	Thesis   *Thesis `gorm:"foreignKey:ThesisID" json:"thesis,omitempty"`
	Student  *User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Reviewer *User   `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// IsPending reports whether the submission still awaits review.
func (s *Submission) IsPending() bool {
	return s.Status == StatusPending
}

// IsValidDecision reports whether a review decision is one of the three
// verdicts a supervisor may give.
func IsValidDecision(decision string) bool {
	switch decision {
	case StatusNeedsRevision, StatusApproved, StatusAdvanced:
		return true
	}
	return false
}

// TableName specifies the table for Submission.
func (Submission) TableName() string {
	return "submissions"
}
