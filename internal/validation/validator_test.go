package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
)

type askRequest struct {
	Title       string   `json:"title" validate:"notblank,max=20"`
	Description string   `json:"description,omitempty" validate:"required"`
	Tags        []string `json:"tags" validate:"min=1,max=3,unique,dive,notblank"`
	Email       string   `json:"email" validate:"omitempty,email"`
}

func TestValidator_Valid(t *testing.T) {
	v := New()
	err := v.Validate(askRequest{
		Title:       "How to use hooks",
		Description: "details",
		Tags:        []string{"react"},
	})
	assert.NoError(t, err)
}

func TestValidator_FieldDetails(t *testing.T) {
	v := New()
	err := v.Validate(askRequest{
		Title: "   ",
		Tags:  []string{"a", "a", "b", "c"},
		Email: "not-an-email",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
	assert.Equal(t, "validation failed", domainErr.Message)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "is required", details["description"])
	assert.Equal(t, "must not contain more than 3 items", details["tags"])
	assert.Equal(t, "must be a valid email address", details["email"])
}

func TestValidator_DiveIntoSlice(t *testing.T) {
	v := New()
	err := v.Validate(askRequest{Title: "t", Description: "d", Tags: []string{"ok", " "}})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "is required", details["tags[1]"])
}

func TestValidator_CustomMessage(t *testing.T) {
	v := New()
	err := v.ValidateWithMessage(askRequest{}, "All fields are required.")

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "All fields are required.", domainErr.Message)
	assert.Contains(t, domainErr.Details, "tags")
}

func TestValidator_StringLengthMessages(t *testing.T) {
	v := New()
	err := v.Validate(askRequest{Title: "this title is far too long for the rule", Description: "d", Tags: []string{"x"}})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "must not exceed 20 characters", domainErr.Details.(map[string]string)["title"])
}
