//go:build integration

package postgres

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/kv"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := NewPool(ctx, fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations must be idempotent")
	return NewStore(pool)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := startPostgres(t)

	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, kv.KeyCart)
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, kv.KeyCart, "[]"))
	require.NoError(t, s.Set(ctx, kv.KeyCart, `[{"id":1}]`))
	got, err := s.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, got)
}

func TestStore_Repositories(t *testing.T) {
	ctx := context.Background()
	s := startPostgres(t)

	repo := menu.NewRepository(s, zap.NewNop())
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 5)

	var sales []sale.Sale
	for i, at := range []time.Time{
		time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 31, 20, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC),
	} {
		sales = append(sales, sale.Sale{
			ID:            strconv.FormatInt(at.UnixMilli(), 10),
			Date:          at.Format(time.DateOnly),
			Timestamp:     at.UnixMilli(),
			TransactionID: fmt.Sprintf("TXN%d", i+1),
			Items: []sale.Item{{
				Name:     "Idly",
				Quantity: 2,
				Price:    decimal.NewFromInt(30),
				Subtotal: decimal.NewFromInt(60),
			}},
			Total: decimal.NewFromInt(60),
		})
	}
	var e jx.Encoder
	sale.EncodeSales(&e, sales)
	require.NoError(t, s.Set(ctx, kv.KeySales, e.String()))

	ledger := sale.NewLedger(s, zap.NewNop(), time.UTC)
	stored, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", stored[1].MonthKey(kolkata), "server and database share one calendar")

	tests := []struct {
		name  string
		month string
		loc   *time.Location
		count int64
		total int64
	}{
		{name: "january utc", month: "2026-01", loc: time.UTC, count: 2, total: 120},
		{name: "february utc", month: "2026-02", loc: time.UTC, count: 1, total: 60},
		// 2026-01-31T20:00Z is already 1 February in Kolkata.
		{name: "january kolkata", month: "2026-01", loc: kolkata, count: 1, total: 60},
		{name: "february kolkata", month: "2026-02", loc: kolkata, count: 2, total: 120},
		{name: "all months", month: "", loc: kolkata, count: 3, total: 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.LedgerRevenue(ctx, tt.month, tt.loc)
			require.NoError(t, err)
			assert.EqualValues(t, tt.count, r.Count)
			assert.True(t, decimal.NewFromInt(tt.total).Equal(r.Total), r.Total.String())
		})
	}

	_, err = s.LedgerRevenue(ctx, "", time.Local)
	require.Error(t, err)
}
