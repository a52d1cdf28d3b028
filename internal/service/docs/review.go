package docs

import (
	"fmt"
	"log/slog"
	"time"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
)

// ReviewAggregator folds the set of per-reviewer judgments into one
// authoritative lifecycle status. It mutates documents in memory only;
// persistence belongs to the orchestrator, which also holds the
// per-document lock.
type ReviewAggregator struct {
	logger *slog.Logger
}

// NewReviewAggregator creates a new review aggregator.
func NewReviewAggregator(logger *slog.Logger) *ReviewAggregator {
	return &ReviewAggregator{logger: logger}
}

// AssignReviewers adds each user not already present with a Pending
// judgment. Users already assigned keep their standing untouched. A Draft
// document with at least one reviewer moves to InReview.
func (a *ReviewAggregator) AssignReviewers(doc *models.Document, userIDs []string) error {
	if len(userIDs) == 0 {
		return &domain.ValidationError{Message: "no reviewers to assign"}
	}

	switch doc.Status {
	case models.StatusFinal:
		return &domain.StateError{Message: "document is finalized; review is closed"}
	case models.StatusArchived:
		return &domain.StateError{Message: "document is archived; review is closed"}
	}

	added := 0
	for _, userID := range userIDs {
		if userID == "" {
			return &domain.ValidationError{Message: "reviewer id cannot be empty"}
		}
		if doc.FindReviewer(userID) != nil {
			continue
		}
		doc.Reviewers = append(doc.Reviewers, models.Reviewer{
			UserID:   userID,
			Judgment: models.JudgmentPending,
		})
		added++
	}

	if doc.Status == models.StatusDraft && len(doc.Reviewers) > 0 {
		doc.Status = models.StatusInReview
	}

	a.logger.Info("reviewers assigned",
		"document_id", doc.ID,
		"added", added,
		"total", len(doc.Reviewers),
	)

	return nil
}

// RecordJudgment updates the caller's judgment in place and recomputes
// the aggregate status. Callers who are not assigned reviewers need a
// privileged role, in which case they are inserted as a new reviewer
// entry rather than duplicated.
func (a *ReviewAggregator) RecordJudgment(doc *models.Document, caller models.Identity, judgment models.Judgment, comment string) error {
	if !judgment.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown judgment '%s'", judgment)}
	}

	switch doc.Status {
	case models.StatusFinal:
		return &domain.StateError{Message: "document is finalized; review is closed"}
	case models.StatusArchived:
		return &domain.StateError{Message: "document is archived; review is closed"}
	}

	reviewer := doc.FindReviewer(caller.UserID)
	if reviewer == nil {
		if !caller.Privileged() {
			if len(doc.Reviewers) == 0 {
				return &domain.StateError{Message: "document has no assigned reviewers"}
			}
			return &domain.ForbiddenError{Message: "caller is not an assigned reviewer"}
		}
		doc.Reviewers = append(doc.Reviewers, models.Reviewer{UserID: caller.UserID})
		reviewer = &doc.Reviewers[len(doc.Reviewers)-1]
	}

	now := time.Now().UTC()
	reviewer.Judgment = judgment
	reviewer.Comment = comment
	reviewer.JudgedAt = &now

	doc.Status = a.aggregate(doc)

	a.logger.Info("judgment recorded",
		"document_id", doc.ID,
		"reviewer", caller.UserID,
		"judgment", judgment,
		"status", doc.Status,
	)

	return nil
}

// ForceFinalize marks a document Final regardless of reviewer standing.
// Restricted to the two most senior roles; this is the only way a
// zero-reviewer document reaches Final.
func (a *ReviewAggregator) ForceFinalize(doc *models.Document, caller models.Identity) error {
	if !caller.CanForceFinalize() {
		return &domain.ForbiddenError{Message: "caller may not force-finalize documents"}
	}
	if doc.Status == models.StatusArchived {
		return &domain.StateError{Message: "document is archived and cannot be finalized"}
	}

	doc.Status = models.StatusFinal

	a.logger.Info("document force-finalized",
		"document_id", doc.ID,
		"by", caller.UserID,
	)

	return nil
}

// Archive moves a document to Archived. Reachable from any state;
// archived documents are inert.
func (a *ReviewAggregator) Archive(doc *models.Document) {
	doc.Status = models.StatusArchived
}

// aggregate recomputes the lifecycle status from the full reviewer set.
// The rule is total and evaluated from scratch on every judgment change
// so historical orderings can never cause drift:
//
//  1. any NeedsRevision                    -> NeedsRevision
//  2. all Approved and at least one entry  -> Final
//  3. otherwise                            -> InReview
func (a *ReviewAggregator) aggregate(doc *models.Document) models.LifecycleStatus {
	if len(doc.Reviewers) == 0 {
		return doc.Status
	}

	allApproved := true
	for _, reviewer := range doc.Reviewers {
		switch reviewer.Judgment {
		case models.JudgmentNeedsRevision:
			return models.StatusNeedsRevision
		case models.JudgmentApproved:
			// keeps allApproved
		default:
			allApproved = false
		}
	}

	if allApproved {
		return models.StatusFinal
	}

	return models.StatusInReview
}
