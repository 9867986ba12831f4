package ledger_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/ledger"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
	"github.com/bomac1193/Issuance/internal/store/storetest"
)

var now = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func setupService(t *testing.T) (*ledger.Service, store.Store) {
	t.Helper()
	st, _ := storetest.New(t)
	return ledger.NewService(st, acceptingPublisher(t), adapter.NewFixedClock(now), nil, nil), st
}

// acceptingPublisher returns a publisher that accepts any event
func acceptingPublisher(t *testing.T) *mocks.MockPublisher {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return publisher
}

func clearedAsset(t *testing.T, st store.Store) *schema.Asset {
	t.Helper()
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)
	storetest.SetClearance(t, st, asset.ID, domain.ClearanceStatusCleared)
	return asset
}

func TestFractionalizeAndTransfer(t *testing.T) {
	svc, st := setupService(t)
	asset := clearedAsset(t, st)
	ctx := context.Background()

	positions, err := svc.Fractionalize(ctx, asset.ID, 100, domain.VaultHolder)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, ledger.Position{HolderID: "vault", HolderLabel: "Vault", Amount: 100, Percentage: 100}, positions[0])

	stored, err := st.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFractionalized)
	require.NotNil(t, stored.FractionCount)
	assert.Equal(t, int64(100), *stored.FractionCount)

	positions, err = svc.TransferShares(ctx, asset.ID, domain.VaultHolder, alice, 30)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "vault", positions[0].HolderID)
	assert.Equal(t, int64(70), positions[0].Amount)
	assert.Equal(t, 70.0, positions[0].Percentage)
	assert.Equal(t, "alice", positions[1].HolderID)
	assert.Equal(t, int64(30), positions[1].Amount)
	assert.Equal(t, 30.0, positions[1].Percentage)

	holdings, err := svc.Holdings(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, positions, holdings)
}

func TestFractionalize_Preconditions(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	unchecked := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)
	_, err := svc.Fractionalize(ctx, unchecked.ID, 100, domain.VaultHolder)
	assert.ErrorIs(t, err, domain.ErrNotCleared)

	flagged := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)
	storetest.SetClearance(t, st, flagged.ID, domain.ClearanceStatusFlagged)
	_, err = svc.Fractionalize(ctx, flagged.ID, 100, domain.VaultHolder)
	assert.ErrorIs(t, err, domain.ErrNotCleared)

	cleared := clearedAsset(t, st)
	for _, count := range []int64{1, 10001} {
		_, err = svc.Fractionalize(ctx, cleared.ID, count, domain.VaultHolder)
		assert.ErrorIs(t, err, domain.ErrInvalidFractionCount)
	}

	_, err = svc.Fractionalize(ctx, cleared.ID, 2, domain.VaultHolder)
	require.NoError(t, err)
	_, err = svc.Fractionalize(ctx, cleared.ID, 50, domain.VaultHolder)
	assert.ErrorIs(t, err, domain.ErrAlreadyFractionalized)

	holdings, err := svc.Holdings(ctx, cleared.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(2), holdings[0].Amount)

	_, err = svc.Fractionalize(ctx, 9999, 100, domain.VaultHolder)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestTransferShares_FailureLeavesHoldingsUnchanged(t *testing.T) {
	svc, st := setupService(t)
	asset := clearedAsset(t, st)
	ctx := context.Background()

	_, err := svc.Fractionalize(ctx, asset.ID, 100, domain.VaultHolder)
	require.NoError(t, err)
	before, err := svc.TransferShares(ctx, asset.ID, domain.VaultHolder, alice, 30)
	require.NoError(t, err)

	_, err = svc.TransferShares(ctx, asset.ID, alice, bob, 31)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)
	_, err = svc.TransferShares(ctx, asset.ID, bob, alice, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)
	_, err = svc.TransferShares(ctx, asset.ID, alice, alice, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidShareAmount)

	after, err := svc.Holdings(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTransferShares_NotFractionalized(t *testing.T) {
	svc, st := setupService(t)
	asset := clearedAsset(t, st)

	_, err := svc.TransferShares(context.Background(), asset.ID, domain.VaultHolder, alice, 1)
	assert.ErrorIs(t, err, domain.ErrNotFractionalized)

	_, err = svc.Holdings(context.Background(), asset.ID)
	assert.ErrorIs(t, err, domain.ErrNotFractionalized)
}

func TestTransferShares_DrainedHolderRemoved(t *testing.T) {
	svc, st := setupService(t)
	asset := clearedAsset(t, st)
	ctx := context.Background()

	_, err := svc.Fractionalize(ctx, asset.ID, 10, domain.VaultHolder)
	require.NoError(t, err)
	_, err = svc.TransferShares(ctx, asset.ID, domain.VaultHolder, alice, 10)
	require.NoError(t, err)

	holdings, err := svc.Holdings(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "alice", holdings[0].HolderID)
	assert.Equal(t, 100.0, holdings[0].Percentage)
}

func TestTransferShares_ConcurrentTransfersConserveShares(t *testing.T) {
	svc, st := setupService(t)
	asset := clearedAsset(t, st)
	ctx := context.Background()

	_, err := svc.Fractionalize(ctx, asset.ID, 100, domain.VaultHolder)
	require.NoError(t, err)

	// 40 transfers of 3 shares compete for 100 shares: exactly 33 can succeed
	const workers = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			to := alice
			if i%2 == 1 {
				to = bob
			}
			_, err := svc.TransferShares(ctx, asset.ID, domain.VaultHolder, to, 3)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientShares)
		}()
	}
	wg.Wait()

	assert.Equal(t, 33, succeeded)

	holdings, err := svc.Holdings(ctx, asset.ID)
	require.NoError(t, err)
	var total int64
	for _, h := range holdings {
		total += h.Amount
	}
	assert.Equal(t, int64(100), total)
}

func TestTransferShares_CorruptLedgerFailsLoudly(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	mockTx := mocks.NewMockStoreTx(ctrl)
	count := int64(100)

	mockStore.EXPECT().
		WithLockedAsset(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, fn func(store.Tx, *schema.Asset) error) error {
			return fn(mockTx, &schema.Asset{
				ID:               1,
				ClearanceStatus:  domain.ClearanceStatusCleared,
				IsFractionalized: true,
				FractionCount:    &count,
			})
		})
	mockTx.EXPECT().
		GetFractionHoldings(int64(1)).
		Return([]schema.FractionHolding{
			{AssetID: 1, HolderID: "vault", HolderLabel: "Vault", Amount: 60},
			{AssetID: 1, HolderID: "alice", HolderLabel: "Alice", Amount: 30},
		}, nil)
	// ReplaceFractionHoldings must not be reached

	svc := ledger.NewService(mockStore, nil, adapter.NewFixedClock(now), nil, nil)
	_, err := svc.TransferShares(context.Background(), 1, domain.VaultHolder, alice, 10)
	assert.ErrorIs(t, err, domain.ErrLedgerInvariant)
}

func TestFractionalize_WriteMismatchRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	mockTx := mocks.NewMockStoreTx(ctrl)

	mockStore.EXPECT().
		WithLockedAsset(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, fn func(store.Tx, *schema.Asset) error) error {
			return fn(mockTx, &schema.Asset{ID: 1, ClearanceStatus: domain.ClearanceStatusCleared})
		})
	mockTx.EXPECT().ReplaceFractionHoldings(int64(1), gomock.Any()).Return(nil)
	// The store drops the write
	mockTx.EXPECT().GetFractionHoldings(int64(1)).Return(nil, nil)

	svc := ledger.NewService(mockStore, nil, adapter.NewFixedClock(now), nil, nil)
	_, err := svc.Fractionalize(context.Background(), 1, 100, domain.VaultHolder)
	assert.ErrorIs(t, err, domain.ErrLedgerInvariant)
}
