package docs

import (
	"errors"
	"testing"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
)

func draftDoc(reviewers ...models.Reviewer) *models.Document {
	return &models.Document{
		ID:        "doc-1",
		Type:      models.TypeReport,
		Status:    models.StatusDraft,
		Reviewers: reviewers,
		CreatedBy: "creator-1",
	}
}

func TestAssignReviewers(t *testing.T) {
	a := NewReviewAggregator(testLogger())

	doc := draftDoc()
	if err := a.AssignReviewers(doc, []string{"u1", "u2"}); err != nil {
		t.Fatalf("AssignReviewers() error: %v", err)
	}

	if len(doc.Reviewers) != 2 {
		t.Fatalf("Reviewers length = %d, want 2", len(doc.Reviewers))
	}
	for _, r := range doc.Reviewers {
		if r.Judgment != models.JudgmentPending {
			t.Errorf("reviewer %s judgment = %s, want pending", r.UserID, r.Judgment)
		}
	}
	if doc.Status != models.StatusInReview {
		t.Errorf("Status = %s, want in_review", doc.Status)
	}
}

func TestAssignReviewersPreservesStanding(t *testing.T) {
	a := NewReviewAggregator(testLogger())

	doc := draftDoc(models.Reviewer{UserID: "u1", Judgment: models.JudgmentApproved})
	doc.Status = models.StatusInReview

	if err := a.AssignReviewers(doc, []string{"u1", "u2"}); err != nil {
		t.Fatalf("AssignReviewers() error: %v", err)
	}

	if len(doc.Reviewers) != 2 {
		t.Fatalf("Reviewers length = %d, want 2", len(doc.Reviewers))
	}
	if doc.FindReviewer("u1").Judgment != models.JudgmentApproved {
		t.Error("re-assignment reset an existing reviewer's judgment")
	}
	if doc.FindReviewer("u2").Judgment != models.JudgmentPending {
		t.Error("new reviewer should start pending")
	}
}

func TestAssignReviewersValidation(t *testing.T) {
	a := NewReviewAggregator(testLogger())

	tests := []struct {
		name    string
		doc     *models.Document
		userIDs []string
		wantErr error
	}{
		{"empty list", draftDoc(), nil, domain.ErrValidation},
		{"empty user id", draftDoc(), []string{""}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.AssignReviewers(tt.doc, tt.userIDs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AssignReviewers() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("finalized document", func(t *testing.T) {
		doc := draftDoc()
		doc.Status = models.StatusFinal
		var stateErr *domain.StateError
		if err := a.AssignReviewers(doc, []string{"u1"}); !errors.As(err, &stateErr) {
			t.Errorf("AssignReviewers() error = %v, want *domain.StateError", err)
		}
	})
}

func TestRecordJudgmentAggregation(t *testing.T) {
	reviewer := func(id string) models.Identity {
		return models.Identity{UserID: id, Role: "associate"}
	}

	tests := []struct {
		name       string
		judgments  map[string]models.Judgment // applied in reviewer order u1..u3
		wantStatus models.LifecycleStatus
	}{
		{
			name:       "one approval of three stays in review",
			judgments:  map[string]models.Judgment{"u1": models.JudgmentApproved},
			wantStatus: models.StatusInReview,
		},
		{
			name: "any needs_revision wins",
			judgments: map[string]models.Judgment{
				"u1": models.JudgmentApproved,
				"u2": models.JudgmentNeedsRevision,
			},
			wantStatus: models.StatusNeedsRevision,
		},
		{
			name: "all approved finalizes",
			judgments: map[string]models.Judgment{
				"u1": models.JudgmentApproved,
				"u2": models.JudgmentApproved,
				"u3": models.JudgmentApproved,
			},
			wantStatus: models.StatusFinal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewReviewAggregator(testLogger())
			doc := draftDoc()
			if err := a.AssignReviewers(doc, []string{"u1", "u2", "u3"}); err != nil {
				t.Fatalf("AssignReviewers() error: %v", err)
			}

			for _, id := range []string{"u1", "u2", "u3"} {
				judgment, ok := tt.judgments[id]
				if !ok {
					continue
				}
				if err := a.RecordJudgment(doc, reviewer(id), judgment, ""); err != nil {
					t.Fatalf("RecordJudgment(%s) error: %v", id, err)
				}
			}

			if doc.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", doc.Status, tt.wantStatus)
			}
		})
	}
}

// A reviewer retracting an approval after the holdout flips to
// needs_revision must not resurrect the old standing: the rule is
// recomputed from the full set on every change.
func TestRecordJudgmentRecomputesFromScratch(t *testing.T) {
	a := NewReviewAggregator(testLogger())
	doc := draftDoc()
	_ = a.AssignReviewers(doc, []string{"u1", "u2"})

	u1 := models.Identity{UserID: "u1", Role: "associate"}
	u2 := models.Identity{UserID: "u2", Role: "associate"}

	_ = a.RecordJudgment(doc, u1, models.JudgmentApproved, "")
	_ = a.RecordJudgment(doc, u2, models.JudgmentNeedsRevision, "needs work")
	if doc.Status != models.StatusNeedsRevision {
		t.Fatalf("Status = %s, want needs_revision", doc.Status)
	}

	// u2 withdraws the objection back to pending: not final, not
	// needs_revision, just an open review again.
	_ = a.RecordJudgment(doc, u2, models.JudgmentPending, "")
	if doc.Status != models.StatusInReview {
		t.Errorf("Status = %s, want in_review after retraction", doc.Status)
	}

	// And approving closes it.
	_ = a.RecordJudgment(doc, u2, models.JudgmentApproved, "")
	if doc.Status != models.StatusFinal {
		t.Errorf("Status = %s, want final once all approve", doc.Status)
	}
}

func TestRecordJudgmentAuthorization(t *testing.T) {
	a := NewReviewAggregator(testLogger())

	t.Run("unassigned non-privileged caller is forbidden", func(t *testing.T) {
		doc := draftDoc(models.Reviewer{UserID: "u1", Judgment: models.JudgmentPending})
		doc.Status = models.StatusInReview
		err := a.RecordJudgment(doc, models.Identity{UserID: "intruder", Role: "associate"}, models.JudgmentApproved, "")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("RecordJudgment() error = %v, want forbidden", err)
		}
	})

	t.Run("no reviewers at all is a state error", func(t *testing.T) {
		doc := draftDoc()
		err := a.RecordJudgment(doc, models.Identity{UserID: "u1", Role: "associate"}, models.JudgmentApproved, "")
		var stateErr *domain.StateError
		if !errors.As(err, &stateErr) {
			t.Errorf("RecordJudgment() error = %v, want *domain.StateError", err)
		}
	})

	t.Run("privileged caller joins the reviewer set", func(t *testing.T) {
		doc := draftDoc(models.Reviewer{UserID: "u1", Judgment: models.JudgmentApproved})
		doc.Status = models.StatusInReview
		partner := models.Identity{UserID: "partner-1", Role: "partner"}
		if err := a.RecordJudgment(doc, partner, models.JudgmentApproved, "looks good"); err != nil {
			t.Fatalf("RecordJudgment() error: %v", err)
		}
		if len(doc.Reviewers) != 2 {
			t.Fatalf("Reviewers length = %d, want 2", len(doc.Reviewers))
		}
		if doc.Status != models.StatusFinal {
			t.Errorf("Status = %s, want final", doc.Status)
		}

		// Re-judging updates in place, never duplicates.
		_ = a.RecordJudgment(doc, partner, models.JudgmentApproved, "still good")
		if len(doc.Reviewers) != 2 {
			t.Errorf("re-judging duplicated the reviewer entry: %d entries", len(doc.Reviewers))
		}
	})

	t.Run("invalid judgment", func(t *testing.T) {
		doc := draftDoc(models.Reviewer{UserID: "u1", Judgment: models.JudgmentPending})
		err := a.RecordJudgment(doc, models.Identity{UserID: "u1", Role: "associate"}, "maybe", "")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("RecordJudgment() error = %v, want validation", err)
		}
	})
}

func TestForceFinalize(t *testing.T) {
	a := NewReviewAggregator(testLogger())

	tests := []struct {
		name    string
		role    string
		status  models.LifecycleStatus
		wantErr bool
	}{
		{"admin may finalize", "admin", models.StatusInReview, false},
		{"partner may finalize", "partner", models.StatusDraft, false},
		{"manager may not", "manager", models.StatusInReview, true},
		{"associate may not", "associate", models.StatusInReview, true},
		{"archived refused", "admin", models.StatusArchived, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := draftDoc()
			doc.Status = tt.status

			err := a.ForceFinalize(doc, models.Identity{UserID: "u1", Role: tt.role})
			if tt.wantErr {
				if err == nil {
					t.Fatal("ForceFinalize() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForceFinalize() error: %v", err)
			}
			if doc.Status != models.StatusFinal {
				t.Errorf("Status = %s, want final", doc.Status)
			}
		})
	}
}
