package services

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"thesis-supervision-api/models"
)

// PendingStatus values answered for dashboards. Everything except
// PendingNone mirrors the latest submission's status.
const (
	PendingNone = "none"
)

var (
	progressCacheMu sync.RWMutex
	progressCache   = map[int]*progressCacheEntry{}
	progressTTL     = 30 * time.Second
)

type progressCacheEntry struct {
	chapter   int
	fetchedAt time.Time
}

// ProgressService answers "what chapter is this thesis on, and is a draft
// awaiting review". It is a projection over the submissions ledger: the
// cached chapter is always recomputable by counting advanced decisions, so
// losing the cache (or the theses.current_chapter column) loses nothing.
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// InvalidateProgress drops the cached chapter for a thesis. Called by the
// workflow engine after each committed transition.
func InvalidateProgress(thesisID int) {
	progressCacheMu.Lock()
	defer progressCacheMu.Unlock()
	delete(progressCache, thesisID)
}

func (s *ProgressService) cachedChapter(thesisID int) (int, bool) {
	progressCacheMu.RLock()
	defer progressCacheMu.RUnlock()
	entry, ok := progressCache[thesisID]
	if !ok || time.Since(entry.fetchedAt) >= progressTTL {
		return 0, false
	}
	return entry.chapter, true
}

func (s *ProgressService) storeChapter(thesisID, chapter int) {
	progressCacheMu.Lock()
	defer progressCacheMu.Unlock()
	progressCache[thesisID] = &progressCacheEntry{chapter: chapter, fetchedAt: time.Now()}
}

// CurrentChapter returns the thesis's current chapter number.
func (s *ProgressService) CurrentChapter(thesisID int) (int, error) {
	if chapter, ok := s.cachedChapter(thesisID); ok {
		return chapter, nil
	}

	var thesis models.Thesis
	if err := s.db.Select("thesis_id", "current_chapter").
		Where("thesis_id = ? AND delete_at IS NULL", thesisID).
		First(&thesis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NotFoundError("thesis %d not found", thesisID)
		}
		return 0, err
	}

	chapter := thesis.CurrentChapter
	if chapter < models.FirstChapter {
		chapter = models.FirstChapter
	}
	s.storeChapter(thesisID, chapter)
	return chapter, nil
}

// CurrentProgress returns the human progress label for a thesis.
func (s *ProgressService) CurrentProgress(thesisID int) (string, error) {
	chapter, err := s.CurrentChapter(thesisID)
	if err != nil {
		return "", err
	}
	return models.ChapterLabel(chapter), nil
}

// PendingStatus reports the latest-version submission's status for badge
// rendering, or "none" when the student has not submitted anything yet.
func (s *ProgressService) PendingStatus(studentID, thesisID int) (string, error) {
	var submission models.Submission
	err := s.db.Select("submission_id", "status").
		Where("student_id = ? AND thesis_id = ?", studentID, thesisID).
		Order("version DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PendingNone, nil
		}
		return "", err
	}
	return submission.Status, nil
}

// RebuildProgress recomputes the chapter purely from the ledger and
// repairs theses.current_chapter if it drifted. Returns the rebuilt
// chapter number. This is the offline recovery path that makes the
// projector safe to treat as a cache.
func (s *ProgressService) RebuildProgress(thesisID int) (int, error) {
	var thesis models.Thesis
	if err := s.db.Where("thesis_id = ? AND delete_at IS NULL", thesisID).
		First(&thesis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NotFoundError("thesis %d not found", thesisID)
		}
		return 0, err
	}

	var advanced int64
	if err := s.db.Model(&models.Submission{}).
		Where("thesis_id = ? AND status = ?", thesisID, models.StatusAdvanced).
		Count(&advanced).Error; err != nil {
		return 0, err
	}

	chapter := models.FirstChapter + int(advanced)
	if thesis.CurrentChapter != chapter {
		if err := s.db.Model(&models.Thesis{}).
			Where("thesis_id = ?", thesisID).
			Updates(map[string]interface{}{
				"current_chapter": chapter,
				"update_at":       time.Now(),
			}).Error; err != nil {
			return 0, err
		}
	}

	InvalidateProgress(thesisID)
	s.storeChapter(thesisID, chapter)
	return chapter, nil
}
