package services

import (
	"context"
	"errors"
	"strings"

	"toolbank/apperr"
	"toolbank/models"
	"toolbank/ports"

	"go.opentelemetry.io/otel/attribute"
)

type NeighborService struct {
	uow ports.UnitOfWork
	options
}

func NewNeighborService(uow ports.UnitOfWork, opts ...Option) *NeighborService {
	return &NeighborService{uow: uow, options: newOptions(opts)}
}

func duplicateDocument(doc string) error {
	return apperr.Newf(apperr.DuplicateDocument, "a neighbor with document %q already exists", doc)
}

func (s *NeighborService) List(ctx context.Context) (_ []models.Neighbor, err error) {
	ctx, span := s.start(ctx, "neighbors.list")
	defer end(span, &err)

	ns, err := s.uow.Neighbors().FindAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list neighbors")
	}
	return ns, nil
}

func (s *NeighborService) Get(ctx context.Context, id int64) (_ *models.Neighbor, err error) {
	ctx, span := s.start(ctx, "neighbors.get", attribute.Int64("neighbor.id", id))
	defer end(span, &err)

	if err := checkID(id, "neighbor"); err != nil {
		return nil, err
	}
	n, err := s.uow.Neighbors().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperr.NeighborNotFound, "neighbor", id)
	}
	return n, nil
}

func (s *NeighborService) FindByDocument(ctx context.Context, document string) (_ *models.Neighbor, err error) {
	ctx, span := s.start(ctx, "neighbors.find_by_document")
	defer end(span, &err)

	document = strings.TrimSpace(document)
	if document == "" {
		return nil, apperr.Invalid("document is required")
	}
	n, err := s.uow.Neighbors().FindByDocument(ctx, document)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.Newf(apperr.NeighborNotFound, "no neighbor with document %q", document)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "find neighbor by document")
	}
	return n, nil
}

func (s *NeighborService) Create(ctx context.Context, n *models.Neighbor) (_ *models.Neighbor, err error) {
	ctx, span := s.start(ctx, "neighbors.create")
	defer end(span, &err)

	n.Document = strings.TrimSpace(n.Document)
	if err := n.Validate().Err(); err != nil {
		return nil, err
	}

	_, err = s.uow.Neighbors().FindByDocument(ctx, n.Document)
	switch {
	case err == nil:
		return nil, duplicateDocument(n.Document)
	case !errors.Is(err, ports.ErrNotFound):
		return nil, apperr.Wrap(err, "check document")
	}

	// the unique index catches a concurrent insert of the same document
	if err := s.uow.Neighbors().Save(ctx, n); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, duplicateDocument(n.Document)
		}
		return nil, apperr.Wrap(err, "create neighbor")
	}
	span.SetAttributes(attribute.Int64("neighbor.id", n.ID))
	return n, nil
}

func validateNeighborPatch(p *models.NeighborPatch) error {
	var violations []string
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		violations = append(violations, "full name cannot be blank")
	}
	if p.Document != nil {
		doc := strings.TrimSpace(*p.Document)
		if doc == "" {
			violations = append(violations, "document cannot be blank")
		}
		p.Document = &doc
	}
	if p.Email != nil {
		if msg := models.CheckEmail(*p.Email); msg != "" {
			violations = append(violations, msg)
		}
	}
	if p.Phone != nil {
		if msg := models.CheckPhone(*p.Phone); msg != "" {
			violations = append(violations, msg)
		}
	}
	if len(violations) > 0 {
		return apperr.Invalid(violations...)
	}
	return nil
}

func (s *NeighborService) Update(ctx context.Context, id int64, patch models.NeighborPatch) (_ *models.Neighbor, err error) {
	ctx, span := s.start(ctx, "neighbors.update", attribute.Int64("neighbor.id", id))
	defer end(span, &err)

	if err := checkID(id, "neighbor"); err != nil {
		return nil, err
	}
	if err := validateNeighborPatch(&patch); err != nil {
		return nil, err
	}

	current, err := s.uow.Neighbors().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperr.NeighborNotFound, "neighbor", id)
	}

	if patch.Document != nil && *patch.Document != current.Document {
		other, err := s.uow.Neighbors().FindByDocument(ctx, *patch.Document)
		switch {
		case err == nil && other.ID != id:
			return nil, duplicateDocument(*patch.Document)
		case err != nil && !errors.Is(err, ports.ErrNotFound):
			return nil, apperr.Wrap(err, "check document")
		}
	}

	rows, err := s.uow.Neighbors().Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicate) && patch.Document != nil {
			return nil, duplicateDocument(*patch.Document)
		}
		return nil, apperr.Wrap(err, "update neighbor")
	}
	if rows == 0 {
		return nil, apperr.Newf(apperr.UpdateFailed, "neighbor %d was not updated", id)
	}

	n, err := s.uow.Neighbors().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperr.NeighborNotFound, "neighbor", id)
	}
	return n, nil
}

func (s *NeighborService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "neighbors.delete", attribute.Int64("neighbor.id", id))
	defer end(span, &err)

	if err := checkID(id, "neighbor"); err != nil {
		return err
	}
	// loan creation holds the same key while it checks the neighbor
	release, err := s.lock(ctx, neighborKey(id))
	if err != nil {
		return err
	}
	defer release()

	err = s.uow.Do(ctx, func(st ports.Stores) error {
		if _, err := st.Neighbors().FindByID(ctx, id); err != nil {
			return lookupErr(err, apperr.NeighborNotFound, "neighbor", id)
		}
		active, err := st.Neighbors().HasActiveLoans(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "check active loans")
		}
		if active {
			return apperr.Newf(apperr.HasActiveLoans, "neighbor %d has an active loan", id)
		}
		rows, err := st.Neighbors().Delete(ctx, id)
		if err != nil {
			return apperr.Wrap(err, "delete neighbor")
		}
		if rows == 0 {
			return apperr.Newf(apperr.DeleteFailed, "neighbor %d was not deleted", id)
		}
		return nil
	})
	return apperr.Wrap(err, "delete neighbor")
}
