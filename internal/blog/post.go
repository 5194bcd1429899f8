// Package blog coordinates the two-file blog persistence protocol: a
// JSON index of post metadata plus one Markdown body per post. The
// package owns the invariant that every index entry has a matching
// content file and vice versa.
package blog

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/harlan/vitrin/internal/apperr"
)

const dateLayout = "2006-01-02"

// Post is one entry in the blog index. Content lives in a separate
// <slug>.md file and is never stored here.
type Post struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	UpdatedDate   string   `json:"updatedDate,omitempty"`
	Author        string   `json:"author"`
	Tags          []string `json:"tags"`
	Published     bool     `json:"published"`
	ReadingTime   string   `json:"readingTime"`
	FeaturedImage string   `json:"featuredImage,omitempty"`
}

// Validate checks the metadata's required fields and date syntax. The
// slug is validated separately by the slug package before any path is
// built from it.
func (p Post) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&p.Description, validation.Required, validation.Length(1, 1000)),
		validation.Field(&p.Author, validation.Required),
		validation.Field(&p.PublishedDate, validation.Required, validation.Date(dateLayout)),
		validation.Field(&p.UpdatedDate, validation.Date(dateLayout)),
	)
	return asValidationError(err)
}

// asValidationError converts ozzo's error map into the shared
// field-level ValidationError so handlers can translate it uniformly.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		out := make(map[string]string, len(fields))
		for f, e := range fields {
			out[f] = e.Error()
		}
		return &apperr.ValidationError{Fields: out}
	}
	return apperr.Validation("metadata", fmt.Sprintf("invalid: %v", err))
}
