package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolbank/apperr"
	"toolbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioA_LoanMakesToolUnavailable(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	drill, err := e.tools.Create(ctx, models.NewTool("electric", "drill", "new"))
	require.NoError(t, err)
	assert.True(t, drill.Available)

	ana, err := e.neighbors.Create(ctx, &models.Neighbor{FullName: "Ana Ruiz", Document: "123"})
	require.NoError(t, err)

	loan, err := e.loans.Create(ctx, NewLoan{NeighborID: ana.ID, ToolID: drill.ID})
	require.NoError(t, err)
	assert.True(t, loan.IsActive())
	assert.True(t, e.clock.Now().Equal(loan.LoanDate))

	assert.False(t, e.available(t, drill.ID))
}

func TestScenarioB_SecondLoanRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	drill := e.tool(t, "drill")
	ana := e.neighbor(t, "Ana Ruiz", "123")
	bob := e.neighbor(t, "Bob", "456")
	e.loan(t, ana, drill)

	_, err := e.loans.Create(ctx, NewLoan{NeighborID: bob.ID, ToolID: drill.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ToolUnavailable) || errors.Is(err, apperr.ToolAlreadyLoaned), err)
}

func TestScenarioC_ReturnFreesToolOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	drill := e.tool(t, "drill")
	ana := e.neighbor(t, "Ana Ruiz", "123")
	loan := e.loan(t, ana, drill)

	e.clock.Advance(time.Hour)
	returned, err := e.loans.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	stamped := *returned.ReturnDate
	assert.True(t, e.available(t, drill.ID))

	e.clock.Advance(24 * time.Hour)
	_, err = e.loans.Return(ctx, loan.ID)
	assert.ErrorIs(t, err, apperr.AlreadyReturned)

	got, err := e.loans.Get(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReturnDate)
	assert.True(t, stamped.Equal(*got.ReturnDate), "return date is never stamped twice")
}

func TestScenarioD_NeighborWithActiveLoanCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	drill := e.tool(t, "drill")
	ana := e.neighbor(t, "Ana Ruiz", "123")
	loan := e.loan(t, ana, drill)

	err := e.neighbors.Delete(ctx, ana.ID)
	assert.ErrorIs(t, err, apperr.HasActiveLoans)

	_, err = e.loans.Return(ctx, loan.ID)
	require.NoError(t, err)

	require.NoError(t, e.neighbors.Delete(ctx, ana.ID))
	_, err = e.neighbors.Get(ctx, ana.ID)
	assert.ErrorIs(t, err, apperr.NeighborNotFound)
}

func TestScenarioE_DuplicateDocument(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.neighbor(t, "First", "555")

	_, err := e.neighbors.Create(ctx, &models.Neighbor{FullName: "Second", Document: "555"})
	assert.ErrorIs(t, err, apperr.DuplicateDocument)
}

func TestScenarioF_InvalidConditionListsAllowedValues(t *testing.T) {
	e := newEnv(t)

	_, err := e.tools.Create(context.Background(), models.NewTool("electric", "drill", "extreme"))
	require.ErrorIs(t, err, apperr.Validation)
	for _, c := range models.Conditions {
		assert.Contains(t, err.Error(), string(c))
	}
}
