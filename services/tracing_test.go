package services

import (
	"context"
	"errors"
	"testing"

	"toolbank/apperr"
	"toolbank/db"
	"toolbank/db/dbtest"
	"toolbank/models"
	"toolbank/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errConnLost = errors.New("connection lost")

// brokenUoW fails every tool read and every neighbor save.
type brokenUoW struct{ ports.UnitOfWork }

func (u brokenUoW) Tools() ports.ToolStore         { return brokenTools{u.UnitOfWork.Tools()} }
func (u brokenUoW) Neighbors() ports.NeighborStore { return brokenNeighbors{u.UnitOfWork.Neighbors()} }

type brokenTools struct{ ports.ToolStore }

func (brokenTools) FindAll(context.Context) ([]models.Tool, error) { return nil, errConnLost }
func (brokenTools) FindByID(context.Context, int64) (*models.Tool, error) {
	return nil, errConnLost
}

type brokenNeighbors struct{ ports.NeighborStore }

func (brokenNeighbors) Save(context.Context, *models.Neighbor) error { return errConnLost }

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	repo := db.NewRepo(dbtest.Open(t))
	e := newEnvWith(brokenUoW{repo}, repo)

	_, err := e.tools.List(ctx)
	assert.Equal(t, apperr.Storage, apperr.KindOf(err))
	assert.ErrorIs(t, err, errConnLost)

	_, err = e.tools.Get(ctx, 1)
	assert.Equal(t, apperr.Storage, apperr.KindOf(err), "storage failures are not reported as not found")

	_, err = e.neighbors.Create(ctx, &models.Neighbor{FullName: "Ana", Document: "1"})
	assert.Equal(t, apperr.Storage, apperr.KindOf(err))
	assert.ErrorIs(t, err, errConnLost)
}

func TestSpansRecordFailures(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newEnv(t, WithTracerProvider(tp))
	rake := e.tool(t, "Rake")
	_, err := e.tools.Get(context.Background(), rake.ID+1)
	require.ErrorIs(t, err, apperr.ToolNotFound)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "tools.create", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	failed := spans[1]
	assert.Equal(t, "tools.get", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	var kind string
	for _, kv := range failed.Attributes() {
		if kv.Key == "error.kind" {
			kind = kv.Value.AsString()
		}
	}
	assert.Equal(t, string(apperr.ToolNotFound), kind)
}
