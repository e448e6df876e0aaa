//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/config"
	"github.com/diewo77/ecotrim/internal/db"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ecotrim_test"),
		tcpostgres.WithUsername("ecotrim"),
		tcpostgres.WithPassword("ecotrim"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver: "postgres", Host: host, Port: port.Int(),
		User: "ecotrim", Password: "ecotrim", DBName: "ecotrim_test", SSLMode: "disable",
	}
	gdb, err := db.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, cfg, true))
	return gdb
}

// Two repositories over separate pools stand in for two server processes.
func TestPostgres_ConcurrentProcessesNumberDistinctly(t *testing.T) {
	gdb := setupPostgres(t)
	ctx := context.Background()
	c := seedClient(t, gdb, "Gitabayu")

	repos := []*DocumentRepository{NewDocumentRepository(gdb), NewDocumentRepository(gdb)}
	const perRepo = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]int{}
	)
	for _, repo := range repos {
		for i := 0; i < perRepo; i++ {
			wg.Add(1)
			go func(repo *DocumentRepository) {
				defer wg.Done()
				doc, err := repo.CreateNumbered(ctx, billing.KindInvoice, numberingBuild(c.ID))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[doc.Number]++
				mu.Unlock()
			}(repo)
		}
	}
	wg.Wait()

	require.Len(t, seen, 2*perRepo)
	for i := 0; i < 2*perRepo; i++ {
		assert.Equal(t, 1, seen[fmt.Sprintf("ECX-%d", 792+i)])
	}
}

func TestPostgres_DuplicateAndRestrict(t *testing.T) {
	gdb := setupPostgres(t)
	ctx := context.Background()
	c := seedClient(t, gdb, "Gitabayu")
	docs := NewDocumentRepository(gdb)
	clients := NewClientRepository(gdb)

	require.NoError(t, docs.Create(ctx, newDoc(billing.KindQuote, "8499", c.ID, "2025-03-01")))
	err := docs.Create(ctx, newDoc(billing.KindQuote, "8499", c.ID, "2025-03-01"))
	var cv *apperr.ConstraintViolation
	assert.True(t, errors.As(err, &cv), "got %v", err)

	assert.ErrorIs(t, clients.Delete(ctx, c.ID), apperr.ErrClientInUse)
}
