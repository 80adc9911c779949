package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("create loan: %w", New(ToolAlreadyLoaned, "tool 3 already has an active loan"))

	assert.True(t, errors.Is(err, ToolAlreadyLoaned))
	assert.False(t, errors.Is(err, ToolUnavailable))
	assert.Equal(t, ToolAlreadyLoaned, KindOf(err))
}

func TestInvalid_KeepsAllViolations(t *testing.T) {
	err := Invalid("category is required", "name is required")

	assert.Equal(t, Validation, err.Kind)
	assert.Equal(t, []string{"category is required", "name is required"}, err.Details)
	assert.Equal(t, "category is required, name is required", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")

	err := Wrap(cause, "find tool")
	assert.Equal(t, Storage, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find tool: connection refused", err.Error())

	domain := New(LoanNotFound, "loan 9 not found")
	assert.Same(t, domain, Wrap(domain, "ignored"))

	assert.NoError(t, Wrap(nil, "noop"))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Storage, KindOf(errors.New("boom")))
}

func TestIsNotFoundAndConflict(t *testing.T) {
	assert.True(t, IsNotFound(New(NeighborNotFound, "x")))
	assert.True(t, IsNotFound(New(LoanNotFound, "x")))
	assert.False(t, IsNotFound(New(HasActiveLoans, "x")))

	assert.True(t, IsConflict(New(HasActiveLoans, "x")))
	assert.True(t, IsConflict(New(DuplicateDocument, "x")))
	assert.False(t, IsConflict(New(Validation, "x")))
	assert.False(t, IsConflict(errors.New("raw")))
}
