package registration_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/registration"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
	"github.com/bomac1193/Issuance/internal/store/storetest"
)

const testFingerprint = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

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

func testConfig() registration.Config {
	return registration.Config{
		MaxAttempts: 3,
		BaseDelay:   time.Minute,
		MaxDelay:    3 * time.Minute,
	}
}

// enqueue creates a cleared asset with a PENDING job
func enqueue(t *testing.T, s store.Store) *schema.RegistrationJob {
	t.Helper()
	asset := storetest.CreateAsset(t, s, domain.SettlementRuleImmediate)
	job := registration.NewJob(asset.ID, testFingerprint, now)

	err := s.WithLockedAsset(context.Background(), asset.ID, func(tx store.Tx, a *schema.Asset) error {
		a.ClearanceStatus = domain.ClearanceStatusCleared
		if err := tx.SaveAsset(a); err != nil {
			return err
		}
		return tx.CreateRegistrationJob(job)
	})
	require.NoError(t, err)
	return job
}

func TestNewJob(t *testing.T) {
	job := registration.NewJob(7, testFingerprint, now)
	assert.Len(t, job.ID, 26)
	assert.Equal(t, int64(7), job.AssetID)
	assert.Equal(t, domain.RegistrationStatusPending, job.Status)
	assert.True(t, now.Equal(job.NextAttemptAt))

	other := registration.NewJob(7, testFingerprint, now)
	assert.NotEqual(t, job.ID, other.ID)
}

func TestAttempt_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	job := enqueue(t, s)

	mockRegistrar := mocks.NewMockRegistrar(ctrl)
	mockPublisher := mocks.NewMockPublisher(ctrl)
	mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("0xabc", nil)
	mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.AssetEvent) error {
			assert.Equal(t, domain.AssetEventRegistered, event.Type)
			assert.Equal(t, job.AssetID, event.AssetID)
			assert.Equal(t, "0xabc", event.Attributes["reference"])
			return nil
		})

	d, err := registration.NewDispatcher(testConfig(), s, mockRegistrar, mockPublisher, adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	updated, err := d.Attempt(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusSucceeded, updated.Status)
	assert.Equal(t, 1, updated.Attempts)
	require.NotNil(t, updated.Reference)
	assert.Equal(t, "0xabc", *updated.Reference)

	asset, err := s.GetAsset(context.Background(), job.AssetID)
	require.NoError(t, err)
	require.NotNil(t, asset.RegistrationRef)
	assert.Equal(t, "0xabc", *asset.RegistrationRef)
	assert.Equal(t, domain.ClearanceStatusCleared, asset.ClearanceStatus)

	// A finished job is not attempted again
	again, err := d.Attempt(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusSucceeded, again.Status)
}

func TestAttempt_FailureKeepsClearance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	job := enqueue(t, s)

	mockRegistrar := mocks.NewMockRegistrar(ctrl)
	mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("", errors.New("rpc down"))

	d, err := registration.NewDispatcher(testConfig(), s, mockRegistrar, messaging.NewNoopPublisher(), adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	updated, err := d.Attempt(context.Background(), job.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
	require.NotNil(t, updated)
	assert.Equal(t, domain.RegistrationStatusFailed, updated.Status)
	assert.Equal(t, 1, updated.Attempts)
	require.NotNil(t, updated.LastError)
	assert.Equal(t, "rpc down", *updated.LastError)
	assert.True(t, now.Add(time.Minute).Equal(updated.NextAttemptAt))

	asset, err := s.GetAsset(context.Background(), job.AssetID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClearanceStatusCleared, asset.ClearanceStatus)
	assert.Nil(t, asset.RegistrationRef)
}

func TestAttempt_BackoffAndAbandon(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	job := enqueue(t, s)

	mockRegistrar := mocks.NewMockRegistrar(ctrl)
	mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("", errors.New("reverted")).Times(3)

	d, err := registration.NewDispatcher(testConfig(), s, mockRegistrar, messaging.NewNoopPublisher(), adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	first, _ := d.Attempt(context.Background(), job.ID)
	assert.True(t, now.Add(time.Minute).Equal(first.NextAttemptAt))

	second, _ := d.Attempt(context.Background(), job.ID)
	assert.Equal(t, domain.RegistrationStatusFailed, second.Status)
	assert.True(t, now.Add(2*time.Minute).Equal(second.NextAttemptAt))

	third, _ := d.Attempt(context.Background(), job.ID)
	assert.Equal(t, domain.RegistrationStatusAbandoned, third.Status)
	assert.Equal(t, 3, third.Attempts)

	// Abandoned jobs are skipped without calling the registrar
	skipped, err := d.Attempt(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusAbandoned, skipped.Status)

	due, err := s.GetDueRegistrationJobs(context.Background(), now.Add(24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRetry_RequeuesAndDispatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	job := enqueue(t, s)

	cfg := testConfig()
	cfg.MaxAttempts = 1

	mockRegistrar := mocks.NewMockRegistrar(ctrl)
	gomock.InOrder(
		mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("", errors.New("out of gas")),
		mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("0xdef", nil),
	)

	d, err := registration.NewDispatcher(cfg, s, mockRegistrar, messaging.NewNoopPublisher(), adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	abandoned, _ := d.Attempt(context.Background(), job.ID)
	require.Equal(t, domain.RegistrationStatusAbandoned, abandoned.Status)

	requeued, err := d.Retry(context.Background(), job.AssetID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusPending, requeued.Status)
	assert.Equal(t, 0, requeued.Attempts)
	d.Wait()

	final, err := s.GetRegistrationJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusSucceeded, final.Status)
}

func TestRetry_NoJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	asset := storetest.CreateAsset(t, s, domain.SettlementRuleImmediate)

	d, err := registration.NewDispatcher(testConfig(), s, mocks.NewMockRegistrar(ctrl), nil, adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	_, err = d.Retry(context.Background(), asset.ID)
	assert.ErrorIs(t, err, domain.ErrRegistrationJobNotFound)
}

func TestDispatch_Background(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := storetest.New(t)
	job := enqueue(t, s)

	mockRegistrar := mocks.NewMockRegistrar(ctrl)
	mockRegistrar.EXPECT().Register(gomock.Any(), job.AssetID, testFingerprint).Return("0x123", nil)

	d, err := registration.NewDispatcher(testConfig(), s, mockRegistrar, nil, adapter.NewFixedClock(now), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, job.ID)
	// Cancelling the caller does not abort the background attempt
	cancel()
	d.Wait()

	final, err := s.GetRegistrationJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusSucceeded, final.Status)
}

func TestNewDispatcher_RequiresRegistrar(t *testing.T) {
	s, _ := storetest.New(t)
	_, err := registration.NewDispatcher(testConfig(), s, nil, nil, adapter.NewClock(), nil)
	assert.ErrorIs(t, err, domain.ErrRegistrarUnavailable)
}
