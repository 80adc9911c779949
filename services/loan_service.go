package services

import (
	"context"
	"errors"
	"time"

	"toolbank/apperr"
	"toolbank/models"
	"toolbank/ports"

	"go.opentelemetry.io/otel/attribute"
)

// LoanService owns the loan state machine NONE -> ACTIVE -> RETURNED and
// keeps each tool's availability flag in step with it. Every write holds the
// per-tool lock and runs in one unit of work.
type LoanService struct {
	uow ports.UnitOfWork
	options
}

func NewLoanService(uow ports.UnitOfWork, opts ...Option) *LoanService {
	return &LoanService{uow: uow, options: newOptions(opts)}
}

type NewLoan struct {
	NeighborID   int64
	ToolID       int64
	Observations *string
	// LoanDate defaults to now.
	LoanDate *time.Time
}

func alreadyLoaned(toolID int64) error {
	return apperr.Newf(apperr.ToolAlreadyLoaned, "tool %d already has an active loan", toolID)
}

func (s *LoanService) Create(ctx context.Context, in NewLoan) (_ *models.Loan, err error) {
	ctx, span := s.start(ctx, "loans.create",
		attribute.Int64("neighbor.id", in.NeighborID), attribute.Int64("tool.id", in.ToolID))
	defer end(span, &err)

	loan := &models.Loan{
		NeighborID:   in.NeighborID,
		ToolID:       in.ToolID,
		LoanDate:     s.clock(),
		Observations: in.Observations,
	}
	if in.LoanDate != nil {
		loan.LoanDate = in.LoanDate.UTC()
		if err := s.checkLoanDate(loan.LoanDate); err != nil {
			return nil, err
		}
	}
	if err := loan.Validate().Err(); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, toolKey(in.ToolID), neighborKey(in.NeighborID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.uow.Do(ctx, func(st ports.Stores) error {
		if _, err := st.Neighbors().FindByID(ctx, in.NeighborID); err != nil {
			return lookupErr(err, apperr.NeighborNotFound, "neighbor", in.NeighborID)
		}
		if err := checkLoanable(ctx, st, in.ToolID); err != nil {
			return err
		}
		if err := st.Loans().Save(ctx, loan); err != nil {
			if errors.Is(err, ports.ErrDuplicate) {
				return alreadyLoaned(in.ToolID)
			}
			return apperr.Wrap(err, "create loan")
		}
		return setAvailability(ctx, st, in.ToolID, false)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "create loan")
	}
	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return loan, nil
}

// checkLoanable locks the tool row, then checks the cached flag and the
// active-loan set, which is the source of truth.
func checkLoanable(ctx context.Context, st ports.Stores, toolID int64) error {
	tool, err := st.Tools().FindByIDForUpdate(ctx, toolID)
	if err != nil {
		return lookupErr(err, apperr.ToolNotFound, "tool", toolID)
	}
	if !tool.IsAvailable() {
		return apperr.Newf(apperr.ToolUnavailable, "tool %d is not available", toolID)
	}
	switch open, err := st.Loans().FindActiveByTool(ctx, toolID); {
	case err == nil:
		return apperr.Newf(apperr.ToolAlreadyLoaned, "tool %d already has an active loan (loan %d)", toolID, open.ID)
	case !errors.Is(err, ports.ErrNotFound):
		return apperr.Wrap(err, "check active loans")
	}
	return nil
}

// checkLoanDate refuses loan dates after now.
func (s *LoanService) checkLoanDate(at time.Time) error {
	if now := s.clock(); at.After(now) {
		return apperr.Invalid("loan date cannot be in the future")
	}
	return nil
}

func setAvailability(ctx context.Context, st ports.Stores, toolID int64, available bool) error {
	rows, err := st.Tools().SetAvailability(ctx, toolID, available)
	if err != nil {
		return apperr.Wrap(err, "set tool availability")
	}
	if rows == 0 {
		return apperr.Newf(apperr.UpdateFailed, "tool %d availability was not updated", toolID)
	}
	return nil
}

// prefetch reads the loan outside the transaction so the right tool can be
// locked first. Callers re-read it under the lock.
func (s *LoanService) prefetch(ctx context.Context, id int64) (*models.Loan, error) {
	if err := checkID(id, "loan"); err != nil {
		return nil, err
	}
	l, err := s.uow.Loans().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperr.LoanNotFound, "loan", id)
	}
	return l, nil
}

func loanMoved(id int64) error {
	return apperr.Newf(apperr.UpdateFailed, "loan %d changed concurrently, retry", id)
}

func (s *LoanService) Return(ctx context.Context, id int64) (_ *models.Loan, err error) {
	ctx, span := s.start(ctx, "loans.return", attribute.Int64("loan.id", id))
	defer end(span, &err)

	pre, err := s.prefetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pre.IsActive() {
		return nil, apperr.Newf(apperr.AlreadyReturned, "loan %d was already returned", id)
	}

	release, err := s.lock(ctx, toolKey(pre.ToolID))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Loan
	err = s.uow.Do(ctx, func(st ports.Stores) error {
		loan, err := st.Loans().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, apperr.LoanNotFound, "loan", id)
		}
		if loan.ToolID != pre.ToolID {
			return loanMoved(id)
		}
		now := s.clock()
		if err := loan.MarkReturned(now); err != nil {
			return err
		}
		switch err := st.Loans().MarkReturned(ctx, id, now); {
		case errors.Is(err, ports.ErrNotActive):
			return apperr.Newf(apperr.AlreadyReturned, "loan %d was already returned", id)
		case err != nil:
			return lookupErr(err, apperr.LoanNotFound, "loan", id)
		}
		if err := setAvailability(ctx, st, loan.ToolID, true); err != nil {
			return err
		}
		out = loan
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "return loan")
	}
	return out, nil
}

// Update changes references, dates or observations. Moving an active loan
// to another tool requires that tool to be loanable and swaps both flags;
// setting a return date closes the loan and frees its tool.
func (s *LoanService) Update(ctx context.Context, id int64, patch models.LoanPatch) (_ *models.Loan, err error) {
	ctx, span := s.start(ctx, "loans.update", attribute.Int64("loan.id", id))
	defer end(span, &err)

	if patch.NeighborID != nil {
		if err := checkID(*patch.NeighborID, "neighbor"); err != nil {
			return nil, err
		}
	}
	if patch.ToolID != nil {
		if err := checkID(*patch.ToolID, "tool"); err != nil {
			return nil, err
		}
	}
	if patch.LoanDate != nil {
		if err := s.checkLoanDate(*patch.LoanDate); err != nil {
			return nil, err
		}
	}
	pre, err := s.prefetch(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := []string{toolKey(pre.ToolID)}
	if patch.ToolID != nil {
		keys = append(keys, toolKey(*patch.ToolID))
	}
	if patch.NeighborID != nil {
		keys = append(keys, neighborKey(*patch.NeighborID))
	}
	release, err := s.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Loan
	err = s.uow.Do(ctx, func(st ports.Stores) error {
		loan, err := st.Loans().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, apperr.LoanNotFound, "loan", id)
		}
		if loan.ToolID != pre.ToolID {
			return loanMoved(id)
		}
		if patch.NeighborID != nil {
			if _, err := st.Neighbors().FindByID(ctx, *patch.NeighborID); err != nil {
				return lookupErr(err, apperr.NeighborNotFound, "neighbor", *patch.NeighborID)
			}
		}
		if patch.ToolID != nil {
			if _, err := st.Tools().FindByIDForUpdate(ctx, *patch.ToolID); err != nil {
				return lookupErr(err, apperr.ToolNotFound, "tool", *patch.ToolID)
			}
		}

		next := patch.Apply(*loan)
		if err := next.Validate().Err(); err != nil {
			return err
		}
		wasActive, nowActive := loan.IsActive(), next.IsActive()
		moved := next.ToolID != loan.ToolID

		if wasActive && nowActive && moved {
			if err := checkLoanable(ctx, st, next.ToolID); err != nil {
				return err
			}
		}

		rows, err := st.Loans().Update(ctx, id, patch)
		if err != nil {
			if errors.Is(err, ports.ErrDuplicate) {
				return alreadyLoaned(next.ToolID)
			}
			return apperr.Wrap(err, "update loan")
		}
		if rows == 0 {
			return apperr.Newf(apperr.UpdateFailed, "loan %d was not updated", id)
		}

		if wasActive && (moved || !nowActive) {
			if err := setAvailability(ctx, st, loan.ToolID, true); err != nil {
				return err
			}
		}
		if wasActive && nowActive && moved {
			if err := setAvailability(ctx, st, next.ToolID, false); err != nil {
				return err
			}
		}

		out, err = st.Loans().FindByID(ctx, id)
		return lookupErr(err, apperr.LoanNotFound, "loan", id)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "update loan")
	}
	return out, nil
}

// Delete removes a loan in any state. An active loan frees its tool first.
func (s *LoanService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "loans.delete", attribute.Int64("loan.id", id))
	defer end(span, &err)

	pre, err := s.prefetch(ctx, id)
	if err != nil {
		return err
	}
	release, err := s.lock(ctx, toolKey(pre.ToolID))
	if err != nil {
		return err
	}
	defer release()

	err = s.uow.Do(ctx, func(st ports.Stores) error {
		loan, err := st.Loans().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, apperr.LoanNotFound, "loan", id)
		}
		if loan.ToolID != pre.ToolID {
			return loanMoved(id)
		}
		if loan.IsActive() {
			if err := setAvailability(ctx, st, loan.ToolID, true); err != nil {
				return err
			}
		}
		rows, err := st.Loans().Delete(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "delete loan")
		}
		if rows == 0 {
			return apperr.Newf(apperr.DeleteFailed, "loan %d was not deleted", id)
		}
		return nil
	})
	return apperr.Wrap(err, "delete loan")
}

func (s *LoanService) Get(ctx context.Context, id int64) (_ *models.Loan, err error) {
	ctx, span := s.start(ctx, "loans.get", attribute.Int64("loan.id", id))
	defer end(span, &err)
	return s.prefetch(ctx, id)
}

func (s *LoanService) List(ctx context.Context) (_ []models.LoanRow, err error) {
	ctx, span := s.start(ctx, "loans.list")
	defer end(span, &err)

	rows, err := s.uow.Loans().FindAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list loans")
	}
	return rows, nil
}

func (s *LoanService) ListActive(ctx context.Context) (_ []models.LoanRow, err error) {
	ctx, span := s.start(ctx, "loans.list_active")
	defer end(span, &err)

	rows, err := s.uow.Loans().FindActive(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list active loans")
	}
	return rows, nil
}

func (s *LoanService) ListByNeighbor(ctx context.Context, neighborID int64) (_ []models.LoanRow, err error) {
	ctx, span := s.start(ctx, "loans.list_by_neighbor", attribute.Int64("neighbor.id", neighborID))
	defer end(span, &err)

	if err := checkID(neighborID, "neighbor"); err != nil {
		return nil, err
	}
	if _, err := s.uow.Neighbors().FindByID(ctx, neighborID); err != nil {
		return nil, lookupErr(err, apperr.NeighborNotFound, "neighbor", neighborID)
	}
	rows, err := s.uow.Loans().FindByNeighbor(ctx, neighborID)
	if err != nil {
		return nil, apperr.Wrap(err, "list loans of neighbor")
	}
	return rows, nil
}

func (s *LoanService) ListByTool(ctx context.Context, toolID int64) (_ []models.LoanRow, err error) {
	ctx, span := s.start(ctx, "loans.list_by_tool", attribute.Int64("tool.id", toolID))
	defer end(span, &err)

	if err := checkID(toolID, "tool"); err != nil {
		return nil, err
	}
	if _, err := s.uow.Tools().FindByID(ctx, toolID); err != nil {
		return nil, lookupErr(err, apperr.ToolNotFound, "tool", toolID)
	}
	rows, err := s.uow.Loans().FindByTool(ctx, toolID)
	if err != nil {
		return nil, apperr.Wrap(err, "list loans of tool")
	}
	return rows, nil
}
