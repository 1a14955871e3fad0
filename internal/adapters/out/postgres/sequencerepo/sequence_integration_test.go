package sequencerepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinicalorders/internal/adapters/out/postgres/sequencerepo"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type SequenceIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

func (suite *SequenceIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	pool, err := sequencerepo.NewPool(ctx, connStr, 8, 1)
	suite.Require().NoError(err)
	suite.pool = pool
}

func (suite *SequenceIntegrationTestSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *SequenceIntegrationTestSuite) TestNext_StartsAtConfiguredValue() {
	ctx := context.Background()
	seq, err := sequencerepo.NewPgxSequence(suite.pool, "Order Numbers")
	suite.Require().NoError(err)
	suite.Require().NoError(seq.Ensure(ctx, 100))
	suite.Require().NoError(seq.Ensure(ctx, 100))

	first, err := seq.Next(ctx)
	suite.Require().NoError(err)
	second, err := seq.Next(ctx)
	suite.Require().NoError(err)

	suite.Equal(int64(100), first)
	suite.Equal(int64(101), second)
}

func (suite *SequenceIntegrationTestSuite) TestNext_ConcurrentCallersGetDistinctValues() {
	ctx := context.Background()
	seq, err := sequencerepo.NewPgxSequence(suite.pool, "concurrent_seq")
	suite.Require().NoError(err)
	suite.Require().NoError(seq.Ensure(ctx, 1))

	const callers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]struct{}, callers)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, nextErr := seq.Next(ctx)
			if nextErr != nil {
				return
			}
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	suite.Len(seen, callers)
}

func (suite *SequenceIntegrationTestSuite) TestNext_MissingSequence() {
	seq, err := sequencerepo.NewPgxSequence(suite.pool, "missing_seq")
	suite.Require().NoError(err)

	_, err = seq.Next(context.Background())

	suite.Require().Error(err)
}

func (suite *SequenceIntegrationTestSuite) TestEnsure_RejectsNonPositiveStart() {
	seq, err := sequencerepo.NewPgxSequence(suite.pool, "bad_start_seq")
	suite.Require().NoError(err)

	suite.Require().Error(seq.Ensure(context.Background(), 0))
}

func TestSequenceIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	suite.Run(t, new(SequenceIntegrationTestSuite))
}
