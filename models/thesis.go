package models

import (
	"time"
)

// Supervisor roles on a thesis. A thesis carries at most two supervisors.
const (
	SupervisorRoleMain = "main"
	SupervisorRoleCo   = "co"

	MaxSupervisorsPerThesis = 2
)

// FirstChapter is where every thesis starts. CompletedChapter is the first
// chapter number past the written chapters; reaching it means the thesis
// text is complete.
const (
	FirstChapter     = 1
	CompletedChapter = 6
)

var chapterLabels = [...]string{"BAB I", "BAB II", "BAB III", "BAB IV", "BAB V"}

type Thesis struct {
	ThesisID       int        `gorm:"primaryKey;column:thesis_id" json:"thesis_id"`
	StudentID      int        `gorm:"column:student_id;unique" json:"student_id"`
	Title          string     `gorm:"column:title" json:"title"`
	CurrentChapter int        `gorm:"column:current_chapter" json:"current_chapter"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Student     *User              `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Supervisors []ThesisSupervisor `gorm:"foreignKey:ThesisID" json:"supervisors,omitempty"`
}

type ThesisSupervisor struct {
	ThesisSupervisorID int        `gorm:"primaryKey;column:thesis_supervisor_id" json:"thesis_supervisor_id"`
	ThesisID           int        `gorm:"column:thesis_id;index:idx_thesis_supervisor,unique" json:"thesis_id"`
	SupervisorID       int        `gorm:"column:supervisor_id;index:idx_thesis_supervisor,unique" json:"supervisor_id"`
	SupervisorRole     string     `gorm:"column:supervisor_role" json:"supervisor_role"`
	CreateAt           *time.Time `gorm:"column:create_at" json:"create_at"`

	Supervisor *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

// ChapterLabel renders a chapter number as the label shown on dashboards.
// Chapters past the last written chapter render as "Selesai" (complete).
func ChapterLabel(chapter int) string {
	if chapter < FirstChapter {
		chapter = FirstChapter
	}
	if chapter >= CompletedChapter {
		return "Selesai"
	}
	return chapterLabels[chapter-1]
}

// ProgressLabel is the thesis's current chapter label.
func (t *Thesis) ProgressLabel() string {
	return ChapterLabel(t.CurrentChapter)
}

// IsSupervisedBy reports whether the given user is assigned as a supervisor.
// Requires Supervisors to be preloaded.
func (t *Thesis) IsSupervisedBy(userID int) bool {
	for _, s := range t.Supervisors {
		if s.SupervisorID == userID {
			return true
		}
	}
	return false
}

// TableName overrides
func (Thesis) TableName() string {
	return "theses"
}

func (ThesisSupervisor) TableName() string {
	return "thesis_supervisors"
}
