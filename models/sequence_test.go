package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type numberedRow struct {
	ID   int
	Code string `gorm:"uniqueIndex"`
}

func numberedRowsDB(t *testing.T, codes ...string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seq.db")), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, conn.AutoMigrate(&numberedRow{}))
	for _, code := range codes {
		require.NoError(t, conn.Create(&numberedRow{Code: code}).Error)
	}
	return conn
}

func TestNextSequenceNumber_StartsAtOne(t *testing.T) {
	conn := numberedRowsDB(t, "PL-202609-007")
	got, err := nextSequenceNumber[numberedRow](conn, "code", "PL-202610-", 3)
	require.NoError(t, err)
	assert.Equal(t, "PL-202610-001", got)
}

func TestNextSequenceNumber_CountsPastWidth(t *testing.T) {
	conn := numberedRowsDB(t, "HIF-261015-0002", "HIF-261015-9999", "HIF-261015-10000")
	got, err := nextSequenceNumber[numberedRow](conn, "code", "HIF-261015-", 4)
	require.NoError(t, err)
	assert.Equal(t, "HIF-261015-10001", got)

	require.NoError(t, conn.Create(&numberedRow{Code: got}).Error)
}

func TestNextSequenceNumber_PackingListRollover(t *testing.T) {
	conn := numberedRowsDB(t, "PL-202610-998", "PL-202610-999")
	got, err := nextSequenceNumber[numberedRow](conn, "code", "PL-202610-", 3)
	require.NoError(t, err)
	assert.Equal(t, "PL-202610-1000", got)
	require.NoError(t, conn.Create(&numberedRow{Code: got}).Error)

	got, err = nextSequenceNumber[numberedRow](conn, "code", "PL-202610-", 3)
	require.NoError(t, err)
	assert.Equal(t, "PL-202610-1001", got)
}

func TestNextSequenceNumber_RejectsUnparsableCounter(t *testing.T) {
	conn := numberedRowsDB(t, "QT-2610-0004", "QT-2610-manual")
	_, err := nextSequenceNumber[numberedRow](conn, "code", "QT-2610-", 4)
	require.Error(t, err)
}
