package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/providers/jetstream"
)

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

var testConfig = jetstream.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "ISSUANCE",
	MaxReconnects:  3,
	ReconnectWait:  time.Second,
	ConnectionName: "issuance-test",
}

type publisherMocks struct {
	natsJS *mocks.MockNatsJetStream
	conn   *mocks.MockNatsConn
	js     *mocks.MockJetStream
}

func setupPublisherMocks(t *testing.T) *publisherMocks {
	ctrl := gomock.NewController(t)
	return &publisherMocks{
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		conn:   mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}
}

func TestNewPublisher_EnsuresStream(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().
		Connect(testConfig.URL, gomock.Any()).
		Return(m.conn, m.js, nil)
	m.js.EXPECT().
		EnsureStream(gomock.Any(), "ISSUANCE", []string{"issuance.asset.>"}).
		Return(nil)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	require.NoError(t, err)
	require.NotNil(t, pub)

	m.conn.EXPECT().Drain().Return(nil)
	pub.Close()
}

func TestNewPublisher_ConnectFailure(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().
		Connect(testConfig.URL, gomock.Any()).
		Return(nil, nil, errors.New("no servers available"))

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	assert.Nil(t, pub)
	assert.ErrorContains(t, err, "no servers available")
}

func TestNewPublisher_StreamFailureClosesConnection(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().
		Connect(testConfig.URL, gomock.Any()).
		Return(m.conn, m.js, nil)
	m.js.EXPECT().
		EnsureStream(gomock.Any(), "ISSUANCE", gomock.Any()).
		Return(errors.New("insufficient resources"))
	m.conn.EXPECT().Close()

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	assert.Nil(t, pub)
	assert.ErrorContains(t, err, "failed to ensure stream ISSUANCE")
}

func TestPublisher_Publish(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.conn, m.js, nil)
	m.js.EXPECT().EnsureStream(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	event := &domain.AssetEvent{
		Type:       domain.AssetEventCleared,
		AssetID:    42,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attributes: map[string]any{"risk_score": 0.0},
	}

	m.js.EXPECT().
		Publish(gomock.Any(), "issuance.asset.cleared", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, "cleared", decoded["type"])
			assert.Equal(t, float64(42), decoded["asset_id"])
			return &natsjs.PubAck{Stream: "ISSUANCE", Sequence: 1}, nil
		})

	require.NoError(t, pub.Publish(context.Background(), event))
}

func TestPublisher_PublishFailure(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.conn, m.js, nil)
	m.js.EXPECT().EnsureStream(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	m.js.EXPECT().
		Publish(gomock.Any(), "issuance.asset.flagged", gomock.Any()).
		Return(nil, errors.New("timeout"))

	err = pub.Publish(context.Background(), &domain.AssetEvent{Type: domain.AssetEventFlagged, AssetID: 7})
	assert.ErrorContains(t, err, "failed to publish event")
}

func TestPublisher_MarshalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := setupPublisherMocks(t)
	mockJSON := mocks.NewMockJSON(ctrl)

	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.conn, m.js, nil)
	m.js.EXPECT().EnsureStream(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	mockJSON.EXPECT().Marshal(gomock.Any()).Return(nil, errors.New("unsupported value"))

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, mockJSON)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), &domain.AssetEvent{Type: domain.AssetEventIssued, AssetID: 1})
	assert.ErrorContains(t, err, "failed to marshal event")
}

func TestPublisher_CloseFallsBackWhenDrainFails(t *testing.T) {
	m := setupPublisherMocks(t)

	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.conn, m.js, nil)
	m.js.EXPECT().EnsureStream(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	gomock.InOrder(
		m.conn.EXPECT().Drain().Return(errors.New("connection closed")),
		m.conn.EXPECT().Close(),
	)
	pub.Close()
}
