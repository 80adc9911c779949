package services

import (
	"context"
	"strings"

	"toolbank/apperr"
	"toolbank/models"
	"toolbank/ports"

	"go.opentelemetry.io/otel/attribute"
)

type ToolService struct {
	uow ports.UnitOfWork
	options
}

func NewToolService(uow ports.UnitOfWork, opts ...Option) *ToolService {
	return &ToolService{uow: uow, options: newOptions(opts)}
}

func (s *ToolService) List(ctx context.Context) (_ []models.Tool, err error) {
	ctx, span := s.start(ctx, "tools.list")
	defer end(span, &err)

	tools, err := s.uow.Tools().FindAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list tools")
	}
	return tools, nil
}

func (s *ToolService) Get(ctx context.Context, id int64) (_ *models.Tool, err error) {
	ctx, span := s.start(ctx, "tools.get", attribute.Int64("tool.id", id))
	defer end(span, &err)

	if err := checkID(id, "tool"); err != nil {
		return nil, err
	}
	t, err := s.uow.Tools().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperr.ToolNotFound, "tool", id)
	}
	return t, nil
}

func (s *ToolService) Create(ctx context.Context, t *models.Tool) (_ *models.Tool, err error) {
	ctx, span := s.start(ctx, "tools.create")
	defer end(span, &err)

	t.Condition = models.NormalizeCondition(string(t.Condition))
	if err := t.Validate().Err(); err != nil {
		return nil, err
	}
	if err := s.uow.Tools().Save(ctx, t); err != nil {
		return nil, apperr.Wrap(err, "create tool")
	}
	span.SetAttributes(attribute.Int64("tool.id", t.ID))
	return t, nil
}

func validateToolPatch(p *models.ToolPatch) error {
	var violations []string
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		violations = append(violations, "category cannot be blank")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		violations = append(violations, "name cannot be blank")
	}
	if p.Condition != nil {
		c := models.NormalizeCondition(string(*p.Condition))
		if !c.Valid() {
			violations = append(violations, models.ConditionViolation())
		}
		p.Condition = &c
	}
	if len(violations) > 0 {
		return apperr.Invalid(violations...)
	}
	return nil
}

// Update applies a partial update. Setting the tool available goes through
// the same active-loan guard as SetAvailability.
func (s *ToolService) Update(ctx context.Context, id int64, patch models.ToolPatch) (_ *models.Tool, err error) {
	ctx, span := s.start(ctx, "tools.update", attribute.Int64("tool.id", id))
	defer end(span, &err)

	if err := checkID(id, "tool"); err != nil {
		return nil, err
	}
	if err := validateToolPatch(&patch); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, toolKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Tool
	err = s.uow.Do(ctx, func(st ports.Stores) error {
		if _, err := st.Tools().FindByIDForUpdate(ctx, id); err != nil {
			return lookupErr(err, apperr.ToolNotFound, "tool", id)
		}
		if patch.Available != nil && *patch.Available {
			if err := guardAvailable(ctx, st, id); err != nil {
				return err
			}
		}
		rows, err := st.Tools().Update(ctx, id, patch)
		if err != nil {
			return apperr.Wrap(err, "update tool")
		}
		if rows == 0 {
			return apperr.Newf(apperr.UpdateFailed, "tool %d was not updated", id)
		}
		out, err = st.Tools().FindByID(ctx, id)
		return lookupErr(err, apperr.ToolNotFound, "tool", id)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "update tool")
	}
	return out, nil
}

func guardAvailable(ctx context.Context, st ports.Stores, id int64) error {
	active, err := st.Tools().HasActiveLoans(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "check active loans")
	}
	if active {
		return apperr.Newf(apperr.ToolAlreadyLoaned, "tool %d has an active loan and cannot be marked available", id)
	}
	return nil
}

func (s *ToolService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "tools.delete", attribute.Int64("tool.id", id))
	defer end(span, &err)

	if err := checkID(id, "tool"); err != nil {
		return err
	}
	release, err := s.lock(ctx, toolKey(id))
	if err != nil {
		return err
	}
	defer release()

	err = s.uow.Do(ctx, func(st ports.Stores) error {
		if _, err := st.Tools().FindByIDForUpdate(ctx, id); err != nil {
			return lookupErr(err, apperr.ToolNotFound, "tool", id)
		}
		active, err := st.Tools().HasActiveLoans(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "check active loans")
		}
		if active {
			return apperr.Newf(apperr.HasActiveLoans, "tool %d has an active loan", id)
		}
		rows, err := st.Tools().Delete(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "delete tool")
		}
		if rows == 0 {
			return apperr.Newf(apperr.DeleteFailed, "tool %d was not deleted", id)
		}
		return nil
	})
	return apperr.Wrap(err, "delete tool")
}

// SetAvailability toggles the cached flag by hand. Marking a tool available
// while a loan is open is refused; marking it unavailable takes it out of
// service.
func (s *ToolService) SetAvailability(ctx context.Context, id int64, available bool) (_ *models.Tool, err error) {
	ctx, span := s.start(ctx, "tools.set_availability",
		attribute.Int64("tool.id", id), attribute.Bool("tool.available", available))
	defer end(span, &err)

	if err := checkID(id, "tool"); err != nil {
		return nil, err
	}
	release, err := s.lock(ctx, toolKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Tool
	err = s.uow.Do(ctx, func(st ports.Stores) error {
		t, err := st.Tools().FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(err, apperr.ToolNotFound, "tool", id)
		}
		if available {
			if err := guardAvailable(ctx, st, id); err != nil {
				return err
			}
			t.MarkAvailable()
		} else {
			t.MarkUnavailable()
		}
		rows, err := st.Tools().SetAvailability(ctx, id, t.IsAvailable())
		if err != nil {
			return apperr.Wrap(err, "set availability")
		}
		if rows == 0 {
			return apperr.Newf(apperr.UpdateFailed, "tool %d availability was not updated", id)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "set availability")
	}
	return out, nil
}

// Reconcile repairs tools flagged available while an active loan references
// them. It returns the repaired ids and how many tools are out of service
// without a loan.
func (s *ToolService) Reconcile(ctx context.Context) (_ []int64, _ int64, err error) {
	ctx, span := s.start(ctx, "tools.reconcile")
	defer end(span, &err)

	fixed, idle, err := s.uow.Tools().ReconcileAvailability(ctx)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "reconcile availability")
	}
	span.SetAttributes(attribute.Int("tools.fixed", len(fixed)), attribute.Int64("tools.idle", idle))
	return fixed, idle, nil
}
