package services

import (
	"errors"

	"gorm.io/gorm"

	"thesis-supervision-api/models"
)

// QueryService is the read side for dashboards. It never mutates the
// ledger. Reads go straight to the primary database, so results are
// strongly consistent with workflow writes; there is no replica and no
// staleness window to account for.
type QueryService struct {
	db *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// ListForStudent returns all of a student's submissions, newest version
// first.
func (s *QueryService) ListForStudent(studentID int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := s.db.Preload("Reviewer", func(db *gorm.DB) *gorm.DB {
		return db.Select("user_id", "name", "email")
	}).
		Where("student_id = ?", studentID).
		Order("version DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// SupervisorListOptions filters the supervisor worklist.
type SupervisorListOptions struct {
	OnlyPending bool
}

// SupervisorListItem pairs a submission with the owning student's summary.
type SupervisorListItem struct {
	Submission models.Submission     `json:"submission"`
	Student    models.StudentSummary `json:"student"`
}

// ListForSupervisor returns submissions on every thesis the reviewer
// supervises, grouped by student (ordered student, then newest version).
// OnlyPending restricts the list to drafts still awaiting review.
func (s *QueryService) ListForSupervisor(reviewerID int, opts SupervisorListOptions) ([]SupervisorListItem, error) {
	query := s.db.Model(&models.Submission{}).
		Joins("JOIN thesis_supervisors ts ON ts.thesis_id = submissions.thesis_id").
		Where("ts.supervisor_id = ?", reviewerID)
	if opts.OnlyPending {
		query = query.Where("submissions.status = ?", models.StatusPending)
	}

	var submissions []models.Submission
	if err := query.Order("submissions.student_id ASC, submissions.version DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	if len(submissions) == 0 {
		return []SupervisorListItem{}, nil
	}

	studentIDs := make([]int, 0, len(submissions))
	seen := make(map[int]bool)
	for _, sub := range submissions {
		if !seen[sub.StudentID] {
			seen[sub.StudentID] = true
			studentIDs = append(studentIDs, sub.StudentID)
		}
	}

	var students []models.StudentSummary
	if err := s.db.Model(&models.User{}).
		Select("user_id", "name", "email", "student_no").
		Where("user_id IN ?", studentIDs).
		Find(&students).Error; err != nil {
		return nil, err
	}
	byID := make(map[int]models.StudentSummary, len(students))
	for _, st := range students {
		byID[st.UserID] = st
	}

	items := make([]SupervisorListItem, 0, len(submissions))
	for _, sub := range submissions {
		items = append(items, SupervisorListItem{
			Submission: sub,
			Student:    byID[sub.StudentID],
		})
	}
	return items, nil
}

// GetSubmission loads a single submission with its thesis and supervisor
// assignments, for detail pages and access checks.
func (s *QueryService) GetSubmission(submissionID int) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.Preload("Thesis.Supervisors").
		Preload("Reviewer", func(db *gorm.DB) *gorm.DB {
			return db.Select("user_id", "name", "email")
		}).
		Where("submission_id = ?", submissionID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("submission %d not found", submissionID)
		}
		return nil, err
	}
	return &submission, nil
}
