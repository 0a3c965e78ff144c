package models

import "testing"

func TestIsValidDecision(t *testing.T) {
	valid := []string{StatusNeedsRevision, StatusApproved, StatusAdvanced}
	for _, decision := range valid {
		if !IsValidDecision(decision) {
			t.Fatalf("expected %q to be a valid decision", decision)
		}
	}

	invalid := []string{StatusPending, "", "rejected", "Approved"}
	for _, decision := range invalid {
		if IsValidDecision(decision) {
			t.Fatalf("expected %q to be invalid", decision)
		}
	}
}

func TestIsPending(t *testing.T) {
	s := Submission{Status: StatusPending}
	if !s.IsPending() {
		t.Fatal("expected pending submission")
	}
	s.Status = StatusApproved
	if s.IsPending() {
		t.Fatal("approved submission must not report pending")
	}
}

func TestChapterLabel(t *testing.T) {
	cases := map[int]string{
		0: "BAB I", // clamped to the first chapter
		1: "BAB I",
		2: "BAB II",
		3: "BAB III",
		4: "BAB IV",
		5: "BAB V",
		6: "Selesai",
		9: "Selesai",
	}
	for chapter, want := range cases {
		if got := ChapterLabel(chapter); got != want {
			t.Fatalf("ChapterLabel(%d) = %q, want %q", chapter, got, want)
		}
	}
}

func TestIsSupervisedBy(t *testing.T) {
	thesis := Thesis{
		ThesisID: 3,
		Supervisors: []ThesisSupervisor{
			{ThesisID: 3, SupervisorID: 9, SupervisorRole: SupervisorRoleMain},
			{ThesisID: 3, SupervisorID: 10, SupervisorRole: SupervisorRoleCo},
		},
	}
	if !thesis.IsSupervisedBy(9) || !thesis.IsSupervisedBy(10) {
		t.Fatal("expected assigned supervisors to be recognized")
	}
	if thesis.IsSupervisedBy(42) {
		t.Fatal("unassigned user must not count as supervisor")
	}
}
