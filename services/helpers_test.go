package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"toolbank/db"
	"toolbank/db/dbtest"
	"toolbank/locker"
	"toolbank/models"
	"toolbank/ports"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	repo      *db.Repo
	tools     *ToolService
	neighbors *NeighborService
	loans     *LoanService
	clock     *fakeClock
}

func newEnvWith(uow ports.UnitOfWork, repo *db.Repo, opts ...Option) *env {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithLocker(locker.NewLocalLocker())}, opts...)
	return &env{
		repo:      repo,
		tools:     NewToolService(uow, opts...),
		neighbors: NewNeighborService(uow, opts...),
		loans:     NewLoanService(uow, opts...),
		clock:     clock,
	}
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	repo := db.NewRepo(dbtest.Open(t))
	return newEnvWith(repo, repo, opts...)
}

func ptr[T any](v T) *T { return &v }

func (e *env) tool(t *testing.T, name string) *models.Tool {
	t.Helper()
	tool, err := e.tools.Create(context.Background(), models.NewTool("general", name, "good"))
	require.NoError(t, err)
	return tool
}

func (e *env) neighbor(t *testing.T, name, doc string) *models.Neighbor {
	t.Helper()
	n, err := e.neighbors.Create(context.Background(), &models.Neighbor{FullName: name, Document: doc})
	require.NoError(t, err)
	return n
}

func (e *env) loan(t *testing.T, n *models.Neighbor, tool *models.Tool) *models.Loan {
	t.Helper()
	l, err := e.loans.Create(context.Background(), NewLoan{NeighborID: n.ID, ToolID: tool.ID})
	require.NoError(t, err)
	return l
}

func (e *env) available(t *testing.T, id int64) bool {
	t.Helper()
	tool, err := e.tools.Get(context.Background(), id)
	require.NoError(t, err)
	return tool.Available
}
