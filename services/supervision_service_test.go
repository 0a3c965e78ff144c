package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"thesis-supervision-api/models"
)

var (
	thesisQueryPattern      = regexp.MustCompile("SELECT \\* FROM .theses. WHERE thesis_id = \\?")
	supervisorsQueryPattern = regexp.MustCompile("FROM .thesis_supervisors. WHERE")
	submissionQueryPattern  = regexp.MustCompile("SELECT \\* FROM .submissions. WHERE submission_id = \\?")
	pendingCountPattern     = regexp.MustCompile("SELECT count\\(\\*\\) FROM .submissions. WHERE thesis_id = \\? AND status = \\?")
	maxVersionPattern       = regexp.MustCompile("SELECT COALESCE\\(MAX\\(version\\), 0\\) FROM .submissions. WHERE thesis_id = \\?")
	insertSubmissionPattern = regexp.MustCompile("INSERT INTO .submissions.")
	updateSubmissionPattern = regexp.MustCompile("UPDATE .submissions. SET")
	updateThesisPattern     = regexp.MustCompile("UPDATE .theses. SET")
	insertNotificationStmt  = regexp.MustCompile("INSERT INTO .notifications.")
	emailPluckPattern       = regexp.MustCompile("SELECT .email. FROM .users.")
	namePluckPattern        = regexp.MustCompile("SELECT .name. FROM .users.")
)

func thesisRow(thesisID, studentID, chapter int) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: thesisQueryPattern,
		columns: []string{"thesis_id", "student_id", "title", "current_chapter"},
		rows: [][]driver.Value{
			{int64(thesisID), int64(studentID), "Sistem Informasi Akademik", int64(chapter)},
		},
	}
}

func supervisorRows(thesisID int, supervisorIDs ...int) *queryStep {
	rows := make([][]driver.Value, 0, len(supervisorIDs))
	for i, id := range supervisorIDs {
		rows = append(rows, []driver.Value{int64(i + 1), int64(thesisID), int64(id), models.SupervisorRoleMain})
	}
	return &queryStep{
		kind:    kindQuery,
		pattern: supervisorsQueryPattern,
		columns: []string{"thesis_supervisor_id", "thesis_id", "supervisor_id", "supervisor_role"},
		rows:    rows,
	}
}

func submissionRow(submissionID, thesisID, studentID, version int, status string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: submissionQueryPattern,
		columns: []string{"submission_id", "thesis_id", "student_id", "version", "title", "file_id", "status", "created_at"},
		rows: [][]driver.Value{
			{int64(submissionID), int64(thesisID), int64(studentID), int64(version), "Draft BAB I", "f1", status, time.Now()},
		},
	}
}

func newTestSupervisionService(t *testing.T, steps []*queryStep) (*SupervisionService, *scriptedDB, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)
	svc := NewSupervisionService(db, NewNotificationService(db))
	return svc, state, cleanup
}

func TestSubmitAssignsNextVersion(t *testing.T) {
	steps := []*queryStep{
		thesisRow(3, 7, 1),
		supervisorRows(3), // no supervisors assigned yet, no notification
		{
			kind:    kindQuery,
			pattern: pendingCountPattern,
			args:    []driver.Value{int64(3), models.StatusPending},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: maxVersionPattern,
			args:    []driver.Value{int64(3)},
			columns: []string{"coalesce"},
			rows:    [][]driver.Value{{int64(2)}},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 11, rowsAffected: 1},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	submission, err := svc.Submit(context.Background(), 7, SubmitDraftInput{
		ThesisID: 3,
		Title:    "Draft BAB I",
		FileID:   "f1",
		Note:     "Mohon review",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if submission.Version != 3 {
		t.Fatalf("expected version 3, got %d", submission.Version)
	}
	if submission.Status != models.StatusPending {
		t.Fatalf("expected pending status, got %s", submission.Status)
	}
	if submission.StudentID != 7 || submission.ThesisID != 3 {
		t.Fatalf("unexpected ownership: %+v", submission)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitFirstVersionStartsAtOne(t *testing.T) {
	steps := []*queryStep{
		thesisRow(4, 8, 1),
		supervisorRows(4),
		{
			kind:    kindQuery,
			pattern: pendingCountPattern,
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: maxVersionPattern,
			columns: []string{"coalesce"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	submission, err := svc.Submit(context.Background(), 8, SubmitDraftInput{
		ThesisID: 4,
		Title:    "Draft BAB I",
		FileID:   "f9",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if submission.Version != 1 {
		t.Fatalf("expected version 1, got %d", submission.Version)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitNotifiesAssignedSupervisors(t *testing.T) {
	steps := []*queryStep{
		thesisRow(3, 7, 1),
		supervisorRows(3, 9, 10),
		{
			kind:    kindQuery,
			pattern: pendingCountPattern,
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: maxVersionPattern,
			columns: []string{"coalesce"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 21, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: namePluckPattern,
			columns: []string{"name"},
			rows:    [][]driver.Value{{"Budi Santoso"}},
		},
		{
			kind:    kindExec,
			pattern: insertNotificationStmt,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertNotificationStmt,
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: emailPluckPattern,
			columns: []string{"email"},
			rows:    [][]driver.Value{},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	if _, err := svc.Submit(context.Background(), 7, SubmitDraftInput{
		ThesisID: 3,
		Title:    "Draft BAB I",
		FileID:   "f1",
	}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitSanitizesTitleAndNote(t *testing.T) {
	steps := []*queryStep{
		thesisRow(3, 7, 1),
		supervisorRows(3),
		{
			kind:    kindQuery,
			pattern: pendingCountPattern,
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: maxVersionPattern,
			columns: []string{"coalesce"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	submission, err := svc.Submit(context.Background(), 7, SubmitDraftInput{
		ThesisID: 3,
		Title:    "  Draft BAB I\x00  ",
		FileID:   " f1 ",
		Note:     "Mohon review\x00",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if submission.Title != "Draft BAB I" {
		t.Fatalf("expected cleaned title, got %q", submission.Title)
	}
	if submission.Note != "Mohon review" {
		t.Fatalf("expected cleaned note, got %q", submission.Note)
	}
	if submission.FileID != "f1" {
		t.Fatalf("expected trimmed file id, got %q", submission.FileID)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitStopsOnCancelledContext(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: thesisQueryPattern,
			delay:   100 * time.Millisecond,
			columns: []string{"thesis_id", "student_id", "title", "current_chapter"},
			rows: [][]driver.Value{
				{int64(3), int64(7), "Sistem Informasi Akademik", int64(1)},
			},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := svc.Submit(ctx, 7, SubmitDraftInput{
		ThesisID: 3,
		Title:    "Draft BAB I",
		FileID:   "f1",
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitRejectsWhilePendingExists(t *testing.T) {
	steps := []*queryStep{
		thesisRow(3, 7, 1),
		supervisorRows(3),
		{
			kind:    kindQuery,
			pattern: pendingCountPattern,
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Submit(context.Background(), 7, SubmitDraftInput{
		ThesisID: 3,
		Title:    "Draft BAB I ulang",
		FileID:   "f2",
	})
	if !IsKind(err, KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	svc, _, cleanup := newTestSupervisionService(t, nil)
	defer cleanup()

	cases := []SubmitDraftInput{
		{ThesisID: 3, Title: "", FileID: "f1"},
		{ThesisID: 3, Title: "Draft", FileID: "   "},
	}
	for _, in := range cases {
		if _, err := svc.Submit(context.Background(), 7, in); !IsKind(err, KindValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestSubmitRejectsNonOwner(t *testing.T) {
	steps := []*queryStep{
		thesisRow(3, 7, 1),
		supervisorRows(3),
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Submit(context.Background(), 99, SubmitDraftInput{
		ThesisID: 3,
		Title:    "Draft BAB I",
		FileID:   "f1",
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewNeedsRevision(t *testing.T) {
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
		submissionRow(11, 3, 7, 1, models.StatusPending), // re-check inside the transaction
		{
			kind:    kindExec,
			pattern: updateSubmissionPattern,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertNotificationStmt,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: emailPluckPattern,
			columns: []string{"email"},
			rows:    [][]driver.Value{}, // no address on file, mail skipped
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	submission, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: models.StatusNeedsRevision,
		Feedback: "Fix chapter intro",
	})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}

	if submission.Status != models.StatusNeedsRevision {
		t.Fatalf("expected needs_revision, got %s", submission.Status)
	}
	if submission.Feedback != "Fix chapter intro" {
		t.Fatalf("unexpected feedback: %q", submission.Feedback)
	}
	if submission.ReviewerID == nil || *submission.ReviewerID != 9 {
		t.Fatalf("expected reviewer 9, got %v", submission.ReviewerID)
	}
	if submission.ReviewedAt == nil {
		t.Fatal("expected reviewed_at to be set")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewBlankFeedbackFileIgnored(t *testing.T) {
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
		submissionRow(11, 3, 7, 1, models.StatusPending),
		{
			kind:    kindExec,
			pattern: updateSubmissionPattern,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertNotificationStmt,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: emailPluckPattern,
			columns: []string{"email"},
			rows:    [][]driver.Value{},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	blank := "   "
	submission, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision:       models.StatusNeedsRevision,
		Feedback:       "Perbaiki daftar pustaka",
		FeedbackFileID: &blank,
	})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}

	// A blank reference is never stored, so the response must not carry one.
	if submission.FeedbackFileID != nil {
		t.Fatalf("expected nil feedback file, got %q", *submission.FeedbackFileID)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewAdvancedBumpsChapter(t *testing.T) {
	steps := []*queryStep{
		submissionRow(12, 3, 7, 2, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
		submissionRow(12, 3, 7, 2, models.StatusPending),
		{
			kind:    kindExec,
			pattern: updateSubmissionPattern,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: updateThesisPattern,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertNotificationStmt,
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: emailPluckPattern,
			columns: []string{"email"},
			rows:    [][]driver.Value{},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	submission, err := svc.Review(context.Background(), 12, 9, ReviewDraftInput{
		Decision: models.StatusAdvanced,
		Feedback: "BAB I selesai, lanjut BAB II",
	})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if submission.Status != models.StatusAdvanced {
		t.Fatalf("expected advanced, got %s", submission.Status)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewAlreadySettledFailsWithStateError(t *testing.T) {
	// A settled submission never re-enters review; the caller is told the
	// data moved and nothing is written.
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusApproved),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: models.StatusApproved,
		Feedback: "Bagus",
	})
	if !IsKind(err, KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewRaceSecondWriterLoses(t *testing.T) {
	// Two reviews raced on the same pending submission. The first one's
	// transaction committed; the loser's in-transaction re-check sees the
	// settled status and must back out with a state error, no writes.
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
		submissionRow(11, 3, 7, 1, models.StatusNeedsRevision),
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: models.StatusApproved,
		Feedback: "Bagus",
	})
	if !IsKind(err, KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewUpdateGuardCatchesExternalSettle(t *testing.T) {
	// The in-transaction re-check still saw pending, but another writer
	// (a second process, not covered by the in-memory lock) settled the
	// row before the UPDATE landed. The status guard makes the UPDATE
	// touch zero rows and the review backs out with a state error.
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9),
		submissionRow(11, 3, 7, 1, models.StatusPending),
		{
			kind:    kindExec,
			pattern: updateSubmissionPattern,
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: models.StatusApproved,
		Feedback: "Bagus",
	})
	if !IsKind(err, KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewUnassignedReviewerFailsWithAuthorizationError(t *testing.T) {
	steps := []*queryStep{
		submissionRow(11, 3, 7, 1, models.StatusPending),
		thesisRow(3, 7, 1),
		supervisorRows(3, 9), // only lecturer 9 is assigned
	}

	svc, state, cleanup := newTestSupervisionService(t, steps)
	defer cleanup()

	_, err := svc.Review(context.Background(), 11, 42, ReviewDraftInput{
		Decision: models.StatusApproved,
		Feedback: "Bagus",
	})
	if !IsKind(err, KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewValidatesDecisionAndFeedback(t *testing.T) {
	svc, _, cleanup := newTestSupervisionService(t, nil)
	defer cleanup()

	if _, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: "maybe",
		Feedback: "x",
	}); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error for bad decision, got %v", err)
	}

	if _, err := svc.Review(context.Background(), 11, 9, ReviewDraftInput{
		Decision: models.StatusApproved,
		Feedback: "   ",
	}); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error for empty feedback, got %v", err)
	}
}

func TestThesisLockIsSharedPerThesis(t *testing.T) {
	svc := &SupervisionService{locks: map[int]*sync.Mutex{}}
	if svc.thesisLock(1) != svc.thesisLock(1) {
		t.Fatal("expected same mutex for same thesis")
	}
	if svc.thesisLock(1) == svc.thesisLock(2) {
		t.Fatal("expected different mutexes for different theses")
	}
}
