package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"thesis-supervision-api/models"
	"thesis-supervision-api/utils"
)

// SupervisionService is the workflow engine over the submissions ledger.
// It owns every mutation: students submit drafts through Submit, and
// supervisors settle them through Review. Nothing else writes the
// submissions table.
//
// All Submit/Review calls for one thesis are serialized by a per-thesis
// lock; the transaction re-checks state after acquiring it, so the
// "at most one pending submission" and "gapless versions" invariants hold
// under concurrent requests. Across different theses there is no ordering.
type SupervisionService struct {
	db       *gorm.DB
	notifier *NotificationService

	locksMu sync.Mutex
	locks   map[int]*sync.Mutex
}

func NewSupervisionService(db *gorm.DB, notifier *NotificationService) *SupervisionService {
	return &SupervisionService{
		db:       db,
		notifier: notifier,
		locks:    make(map[int]*sync.Mutex),
	}
}

func (s *SupervisionService) thesisLock(thesisID int) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[thesisID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[thesisID] = mu
	}
	return mu
}

// SubmitDraftInput carries a student's draft upload.
type SubmitDraftInput struct {
	ThesisID int    `json:"thesis_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	FileID   string `json:"file_id" binding:"required"`
	Note     string `json:"note"`
}

// Submit appends a new draft version to the ledger. It fails with a
// conflict error while an earlier draft is still pending, and with a
// validation error for empty input or a caller who does not own the
// thesis. The supervisor notification is emitted after commit and never
// affects the result.
func (s *SupervisionService) Submit(ctx context.Context, studentID int, in SubmitDraftInput) (*models.Submission, error) {
	in.Title = utils.SanitizeInput(in.Title)
	in.FileID = strings.TrimSpace(in.FileID)
	if in.Title == "" {
		return nil, ValidationError("title is required")
	}
	if in.FileID == "" {
		return nil, ValidationError("file is required")
	}

	var thesis models.Thesis
	if err := s.db.WithContext(ctx).Preload("Supervisors").
		Where("thesis_id = ? AND delete_at IS NULL", in.ThesisID).
		First(&thesis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("thesis %d not found", in.ThesisID)
		}
		return nil, err
	}
	if thesis.StudentID != studentID {
		return nil, ValidationError("caller is not the owning student of thesis %d", in.ThesisID)
	}

	mu := s.thesisLock(in.ThesisID)
	mu.Lock()
	defer mu.Unlock()

	var submission models.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pendingCount int64
		if err := tx.Model(&models.Submission{}).
			Where("thesis_id = ? AND status = ?", in.ThesisID, models.StatusPending).
			Count(&pendingCount).Error; err != nil {
			return err
		}
		if pendingCount > 0 {
			return ConflictError("a draft is already awaiting review for thesis %d", in.ThesisID)
		}

		var maxVersion int64
		if err := tx.Model(&models.Submission{}).
			Where("thesis_id = ?", in.ThesisID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		submission = models.Submission{
			ThesisID:  in.ThesisID,
			StudentID: studentID,
			Version:   int(maxVersion) + 1,
			Title:     in.Title,
			FileID:    in.FileID,
			Note:      utils.SanitizeInput(in.Note),
			Status:    models.StatusPending,
			CreatedAt: time.Now(),
		}
		return tx.Create(&submission).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateProgress(in.ThesisID)

	supervisorIDs := make([]int, 0, len(thesis.Supervisors))
	for _, sup := range thesis.Supervisors {
		supervisorIDs = append(supervisorIDs, sup.SupervisorID)
	}
	if len(supervisorIDs) > 0 {
		s.notifier.Notify(ctx, EventNewSubmission, supervisorIDs, &submission, notifyContext{
			StudentName: s.studentName(ctx, studentID),
			Title:       submission.Title,
			Version:     submission.Version,
		})
	}

	return &submission, nil
}

// ReviewDraftInput carries a supervisor's verdict.
type ReviewDraftInput struct {
	Decision       string  `json:"decision" binding:"required"`
	Feedback       string  `json:"feedback" binding:"required"`
	FeedbackFileID *string `json:"feedback_file_id"`
}

// Review settles a pending submission with exactly one decision. The
// status check runs again inside the per-thesis lock and transaction, so
// of two concurrent reviews one wins and the other gets a state error.
// An advanced decision bumps the thesis chapter in the same transaction.
func (s *SupervisionService) Review(ctx context.Context, submissionID, reviewerID int, in ReviewDraftInput) (*models.Submission, error) {
	in.Decision = strings.TrimSpace(in.Decision)
	in.Feedback = strings.TrimSpace(in.Feedback)
	if !models.IsValidDecision(in.Decision) {
		return nil, ValidationError("decision must be one of %s, %s, %s",
			models.StatusNeedsRevision, models.StatusApproved, models.StatusAdvanced)
	}
	if in.Feedback == "" {
		return nil, ValidationError("feedback is required")
	}

	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("submission %d not found", submissionID)
		}
		return nil, err
	}

	var thesis models.Thesis
	if err := s.db.WithContext(ctx).Preload("Supervisors").
		Where("thesis_id = ?", submission.ThesisID).
		First(&thesis).Error; err != nil {
		return nil, err
	}
	if !thesis.IsSupervisedBy(reviewerID) {
		return nil, AuthorizationError("user %d is not a supervisor of thesis %d", reviewerID, submission.ThesisID)
	}

	mu := s.thesisLock(submission.ThesisID)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Submission
		if err := tx.Where("submission_id = ?", submissionID).First(&current).Error; err != nil {
			return err
		}
		if current.Status != models.StatusPending {
			return StateError("submission %d has already been reviewed", submissionID)
		}

		updates := map[string]interface{}{
			"status":      in.Decision,
			"feedback":    in.Feedback,
			"reviewer_id": reviewerID,
			"reviewed_at": now,
		}
		var feedbackFileID *string
		if in.FeedbackFileID != nil {
			if ref := strings.TrimSpace(*in.FeedbackFileID); ref != "" {
				feedbackFileID = &ref
				updates["feedback_file_id"] = ref
			}
		}

		// The status guard on the UPDATE backstops the re-check above when
		// another process settles the submission between the two.
		res := tx.Model(&models.Submission{}).
			Where("submission_id = ? AND status = ?", submissionID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return StateError("submission %d has already been reviewed", submissionID)
		}

		if in.Decision == models.StatusAdvanced {
			if err := tx.Model(&models.Thesis{}).
				Where("thesis_id = ?", submission.ThesisID).
				Updates(map[string]interface{}{
					"current_chapter": gorm.Expr("current_chapter + 1"),
					"update_at":       now,
				}).Error; err != nil {
				return err
			}
		}

		submission = current
		submission.Status = in.Decision
		submission.Feedback = in.Feedback
		submission.FeedbackFileID = feedbackFileID
		submission.ReviewerID = &reviewerID
		submission.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	InvalidateProgress(submission.ThesisID)

	data := notifyContext{
		Title:   submission.Title,
		Version: submission.Version,
	}
	if in.Decision == models.StatusAdvanced {
		data.Chapter = models.ChapterLabel(thesis.CurrentChapter + 1)
	}
	s.notifier.Notify(ctx, DecisionToEvent(in.Decision), []int{submission.StudentID}, &submission, data)

	return &submission, nil
}

func (s *SupervisionService) studentName(ctx context.Context, studentID int) string {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", studentID).
		Limit(1).
		Pluck("name", &names).Error; err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
