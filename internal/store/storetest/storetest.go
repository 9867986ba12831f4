package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

// IssuedAt is the issuance time of assets created by CreateAsset
var IssuedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// New returns a migrated store on a private in-memory SQLite database.
// The database lives on a single connection so every transaction is serialized.
func New(t testing.TB) (store.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// The in-memory database disappears with its connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return store.New(db), db
}

// CreateAsset issues an asset with the given settlement rule
func CreateAsset(t testing.TB, s store.Store, rule domain.SettlementRule) *schema.Asset {
	t.Helper()
	asset, err := s.CreateAsset(context.Background(), store.CreateAssetInput{
		Title:          "Night Tide",
		Artist:         "Test Artist",
		Year:           2025,
		EditionTotal:   3,
		Verification:   domain.DEFAULT_VERIFICATION,
		SettlementRule: rule,
		IssuedAt:       IssuedAt,
	})
	require.NoError(t, err)
	return asset
}

// SetClearance forces the clearance status of an asset, bypassing evaluation
func SetClearance(t testing.TB, s store.Store, assetID int64, status domain.ClearanceStatus) {
	t.Helper()
	err := s.WithLockedAsset(context.Background(), assetID, func(tx store.Tx, asset *schema.Asset) error {
		asset.ClearanceStatus = status
		return tx.SaveAsset(asset)
	})
	require.NoError(t, err)
}
