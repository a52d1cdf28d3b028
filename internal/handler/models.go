package handler

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"firmdesk/internal/config"
)

// CreateDocumentRequest is the body of POST /api/documents/{type}.
type CreateDocumentRequest struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	TemplateID *string `json:"template_id,omitempty"`
}

// Validate implements request validation.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
		validation.Field(&r.Content,
			validation.Required,
			validation.Length(1, config.MaxContentLength),
		),
	)
}

// EditDocumentRequest is the body of PUT /api/documents/{id}.
type EditDocumentRequest struct {
	Content string `json:"content"`
	Note    string `json:"note,omitempty"`
}

func (r EditDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required,
			validation.Length(1, config.MaxContentLength),
		),
		validation.Field(&r.Note,
			validation.Length(0, config.MaxChangeNoteLength),
		),
	)
}

// AssignReviewersRequest is the body of POST /api/documents/{id}/reviewers.
type AssignReviewersRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (r AssignReviewersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserIDs,
			validation.Required,
			validation.Length(1, config.MaxReviewersPerDocument),
		),
	)
}

// ReviewRequest is the body of POST /api/documents/{id}/review.
type ReviewRequest struct {
	Judgment string `json:"judgment"`
	Comment  string `json:"comment,omitempty"`
}

func (r ReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Judgment, validation.Required),
		validation.Field(&r.Comment,
			validation.Length(0, config.MaxCommentLength),
		),
	)
}

// GenerateRequest is the body of POST /api/documents/{id}/generate.
type GenerateRequest struct {
	ProviderID    string            `json:"provider_id"`
	ContextFields map[string]string `json:"context_fields,omitempty"`
}

func (r GenerateRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.ProviderID, validation.Required),
	); err != nil {
		return err
	}
	for key, value := range r.ContextFields {
		if err := validation.Validate(value, validation.Length(0, config.MaxContextFieldLength)); err != nil {
			return validation.Errors{key: err}
		}
	}
	return nil
}
