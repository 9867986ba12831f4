package settlement_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/settlement"
	"github.com/bomac1193/Issuance/internal/store"
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

func setupService(t *testing.T) (*settlement.Service, store.Store, *mocks.MockPublisher, *adapter.FixedClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st, _ := storetest.New(t)
	publisher := mocks.NewMockPublisher(ctrl)
	clock := adapter.NewFixedClock(now)
	return settlement.NewService(st, publisher, clock, nil, nil), st, publisher, clock
}

func expectSettled(publisher *mocks.MockPublisher, assetID int64) {
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.AssetEvent) error {
			if event.Type != domain.AssetEventSettled || event.AssetID != assetID {
				return errors.New("unexpected event")
			}
			return nil
		})
}

func TestRecord_OnTransferScenario(t *testing.T) {
	svc, st, publisher, clock := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleOnTransfer)
	ctx := context.Background()

	play, err := svc.Record(ctx, asset.ID, domain.SettlementKindPlay)
	require.NoError(t, err)
	assert.False(t, play.Transitioned)
	assert.Equal(t, domain.AssetStatusIssued, play.Previous)
	assert.Equal(t, domain.AssetStatusIssued, play.Current)
	assert.ErrorIs(t, play.Reason, domain.ErrInvalidRuleTransition)
	require.NotNil(t, play.Event)
	assert.NotZero(t, play.Event.ID)

	stored, err := st.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusIssued, stored.Status)

	clock.Advance(time.Minute)
	expectSettled(publisher, asset.ID)

	transfer, err := svc.Record(ctx, asset.ID, domain.SettlementKindTransfer)
	require.NoError(t, err)
	assert.True(t, transfer.Transitioned)
	assert.Equal(t, domain.AssetStatusIssued, transfer.Previous)
	assert.Equal(t, domain.AssetStatusSettled, transfer.Current)
	assert.NoError(t, transfer.Reason)
	assert.True(t, transfer.Event.Transitioned)

	stored, err = st.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusSettled, stored.Status)
	require.NotNil(t, stored.SettledAt)
	assert.True(t, now.Add(time.Minute).Equal(*stored.SettledAt))

	events, err := svc.Events(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.SettlementKindTransfer, events[0].Kind)
	assert.Equal(t, domain.SettlementKindPlay, events[1].Kind)
}

func TestRecord_OnlyFirstQualifyingEventTransitions(t *testing.T) {
	svc, st, publisher, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleOnFirstPlay)
	ctx := context.Background()

	expectSettled(publisher, asset.ID)

	first, err := svc.Record(ctx, asset.ID, domain.SettlementKindPlay)
	require.NoError(t, err)
	assert.True(t, first.Transitioned)

	for _, kind := range []domain.SettlementKind{domain.SettlementKindPlay, domain.SettlementKindTransfer} {
		again, err := svc.Record(ctx, asset.ID, kind)
		require.NoError(t, err)
		assert.False(t, again.Transitioned)
		assert.NoError(t, again.Reason)
		assert.Equal(t, domain.AssetStatusSettled, again.Previous)
		assert.Equal(t, domain.AssetStatusSettled, again.Current)
	}

	events, err := svc.Events(ctx, asset.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	transitioned := 0
	for _, e := range events {
		if e.Transitioned {
			transitioned++
		}
	}
	assert.Equal(t, 1, transitioned)
}

func TestRecord_CustomNeverSettles(t *testing.T) {
	svc, st, _, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleCustom)
	ctx := context.Background()

	for _, kind := range []domain.SettlementKind{domain.SettlementKindPlay, domain.SettlementKindTransfer} {
		result, err := svc.Record(ctx, asset.ID, kind)
		require.NoError(t, err)
		assert.False(t, result.Transitioned)
		assert.ErrorIs(t, result.Reason, domain.ErrInvalidRuleTransition)
	}

	result, err := svc.Check(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, result.Transitioned)
	assert.Equal(t, domain.AssetStatusIssued, result.Current)
}

func TestRecord_InvalidKind(t *testing.T) {
	svc, st, _, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)

	result, err := svc.Record(context.Background(), asset.ID, "STREAM")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrInvalidSettlementKind)

	events, err := svc.Events(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecord_KindIsCaseInsensitive(t *testing.T) {
	svc, st, publisher, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleOnFirstPlay)
	expectSettled(publisher, asset.ID)

	result, err := svc.Record(context.Background(), asset.ID, "play")
	require.NoError(t, err)
	assert.True(t, result.Transitioned)
	assert.Equal(t, domain.SettlementKindPlay, result.Event.Kind)
}

func TestRecord_AssetNotFound(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.Record(context.Background(), 42, domain.SettlementKindPlay)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	_, err = svc.Events(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestCheck_ImmediateSettles(t *testing.T) {
	svc, st, publisher, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)
	ctx := context.Background()

	expectSettled(publisher, asset.ID)

	result, err := svc.Check(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, result.Transitioned)
	assert.Nil(t, result.Event)
	assert.Equal(t, domain.AssetStatusSettled, result.Current)

	// A second check is a no-op
	result, err = svc.Check(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, result.Transitioned)

	events, err := svc.Events(ctx, asset.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCheck_LeavesEventRulesAlone(t *testing.T) {
	svc, st, _, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleOnFirstPlay)

	result, err := svc.Check(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.False(t, result.Transitioned)
	assert.NoError(t, result.Reason)

	stored, err := st.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusIssued, stored.Status)
}

func TestRecord_ConcurrentEventsSettleOnce(t *testing.T) {
	svc, st, publisher, _ := setupService(t)
	asset := storetest.CreateAsset(t, st, domain.SettlementRuleImmediate)
	expectSettled(publisher, asset.ID)

	const workers = 8
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		transitioned int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kind := domain.SettlementKindPlay
			if i%2 == 1 {
				kind = domain.SettlementKindTransfer
			}
			result, err := svc.Record(context.Background(), asset.ID, kind)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if result.Transitioned {
				transitioned++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, transitioned)

	events, err := svc.Events(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Len(t, events, workers)
}
