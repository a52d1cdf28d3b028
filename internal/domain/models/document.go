package models

import (
	"time"
)

// DocumentType distinguishes the two document families that share the
// lifecycle machinery.
type DocumentType string

const (
	TypeReport   DocumentType = "report"
	TypeTemplate DocumentType = "template"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	return t == TypeReport || t == TypeTemplate
}

// DisplayName returns a human-facing name used as the fallback section
// title when generated text carries no headings.
func (t DocumentType) DisplayName() string {
	switch t {
	case TypeReport:
		return "Report"
	case TypeTemplate:
		return "Template"
	default:
		return "Document"
	}
}

// LifecycleStatus is the derived review state of a document.
type LifecycleStatus string

const (
	StatusDraft         LifecycleStatus = "draft"
	StatusInReview      LifecycleStatus = "in_review"
	StatusNeedsRevision LifecycleStatus = "needs_revision"
	StatusFinal         LifecycleStatus = "final"
	StatusArchived      LifecycleStatus = "archived"
)

// Judgment is a single reviewer's vote on the current content.
type Judgment string

const (
	JudgmentPending       Judgment = "pending"
	JudgmentApproved      Judgment = "approved"
	JudgmentNeedsRevision Judgment = "needs_revision"
)

// Valid reports whether j is a judgment a caller may submit.
// Pending is included so a reviewer can retract an earlier vote.
func (j Judgment) Valid() bool {
	return j == JudgmentPending || j == JudgmentApproved || j == JudgmentNeedsRevision
}

// Section is one titled block of a document body. Sections are an optional
// structured decomposition of Content, usually produced by the segmentation
// heuristic over generated text.
type Section struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Order     int    `json:"order"`
	Generated bool   `json:"generated"`
}

// Revision is one immutable, numbered snapshot of document content.
type Revision struct {
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	Sections  []Section `json:"sections,omitempty"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Note      string    `json:"note,omitempty"`
}

// Reviewer is one reviewer's standing on a document. A user appears at
// most once; re-judging updates the entry in place.
type Reviewer struct {
	UserID   string     `json:"user_id"`
	Judgment Judgment   `json:"judgment"`
	Comment  string     `json:"comment,omitempty"`
	JudgedAt *time.Time `json:"judged_at,omitempty"`
}

// Document is the aggregate for both reports and templates.
//
// Revisions is append-only: version numbers form a contiguous ascending
// sequence starting at 1, and the last entry always matches CurrentVersion.
// The lifecycle services own all mutation; nothing else touches the log.
type Document struct {
	ID             string          `json:"id" db:"id"`
	HumanID        string          `json:"human_id" db:"human_id"`
	Type           DocumentType    `json:"type" db:"doc_type"`
	Title          string          `json:"title" db:"title"`
	Content        string          `json:"content" db:"content"`
	Sections       []Section       `json:"sections,omitempty" db:"sections"`
	CurrentVersion int             `json:"current_version" db:"current_version"`
	Revisions      []Revision      `json:"revisions,omitempty" db:"revisions"`
	Reviewers      []Reviewer      `json:"reviewers" db:"reviewers"`
	Status         LifecycleStatus `json:"status" db:"status"`
	TemplateID     *string         `json:"template_id,omitempty" db:"template_id"`
	CreatedBy      string          `json:"created_by" db:"created_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// CurrentRevision returns the head of the revision log, or nil for a
// document that has never been saved.
func (d *Document) CurrentRevision() *Revision {
	if len(d.Revisions) == 0 {
		return nil
	}
	return &d.Revisions[len(d.Revisions)-1]
}

// FindReviewer returns the reviewer entry for userID, or nil.
func (d *Document) FindReviewer(userID string) *Reviewer {
	for i := range d.Reviewers {
		if d.Reviewers[i].UserID == userID {
			return &d.Reviewers[i]
		}
	}
	return nil
}
