// Package testutil opens throwaway databases and builds fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a SQLite database under t.TempDir, migrates it and installs it
// as the global connection until the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "freight.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	conn, err := gorm.Open(sqlite.Open(dsn), config.GormConfig())
	require.NoError(t, err)

	prev := config.GetDB()
	config.SetDB(conn)
	t.Cleanup(func() {
		config.SetDB(prev)
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, models.MigrateTable())
	return conn
}

// Context carries the actor name that history rows record.
func Context() context.Context {
	return utils.SetActorNameInContext(context.Background(), "Tester")
}

func Decimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DecimalPtr(s string) *decimal.Decimal {
	d := Decimal(s)
	return &d
}

func CreateCompany(t testing.TB, ctx context.Context, name string) *models.Company {
	t.Helper()
	company, err := models.CreateCompany(ctx, &models.NewCompany{Name: name, ContactPerson: "Somchai"})
	require.NoError(t, err)
	return company
}

// CreateDestination adds a destination with three weight tiers:
// up to 100kg at 50, 100-500kg at 40 and 500kg and over at 35.
func CreateDestination(t testing.TB, ctx context.Context, country string) *models.Destination {
	t.Helper()
	dest, err := models.CreateDestination(ctx, &models.NewDestination{Country: country, Port: "Main Port", AirportCode: "abc"})
	require.NoError(t, err)
	tiers := []models.NewFreightRate{
		{DestinationId: dest.ID, MinWeight: DecimalPtr("0"), MaxWeight: DecimalPtr("100"), BaseRate: Decimal("50")},
		{DestinationId: dest.ID, MinWeight: DecimalPtr("100"), MaxWeight: DecimalPtr("500"), BaseRate: Decimal("40")},
		{DestinationId: dest.ID, MinWeight: DecimalPtr("500"), BaseRate: Decimal("35")},
	}
	for i := range tiers {
		_, err := models.CreateFreightRate(ctx, &tiers[i])
		require.NoError(t, err)
	}
	return dest
}

// QuotationInput is one 120x100x100 pallet of 150kg: 200kg volume weight at 40
// per kg, so freight is 8000 before clearance.
func QuotationInput(companyId, destinationId int) *models.NewQuotation {
	return &models.NewQuotation{
		CompanyId:     companyId,
		DestinationId: destinationId,
		Pallets: []models.NewQuotationPallet{
			{Length: Decimal("120"), Width: Decimal("100"), Height: Decimal("100"), Weight: Decimal("150"), Quantity: 1},
		},
		ClearanceCost: DecimalPtr("5350"),
	}
}

func CreateQuotation(t testing.TB, ctx context.Context, companyId, destinationId int) *models.Quotation {
	t.Helper()
	q, err := models.CreateQuotation(ctx, QuotationInput(companyId, destinationId))
	require.NoError(t, err)
	return q
}
