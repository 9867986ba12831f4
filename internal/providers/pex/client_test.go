package pex_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/providers/pex"
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

func TestClient_Check(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		httpErr     error
		wantMatched bool
		wantAsset   string
		wantErr     bool
	}{
		{
			name:        "matched asset",
			response:    `{"match":true,"confidence":0.88,"matched_asset":"pex-asset-42"}`,
			wantMatched: true,
			wantAsset:   "pex-asset-42",
		},
		{
			name:     "no match",
			response: `{"match":false,"confidence":0.0}`,
		},
		{
			name:    "transport error",
			httpErr: errors.New("dial tcp: connection refused"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
			client := pex.NewClient(pex.Config{URL: "https://api.pex.test/search", APIKey: "k"}, mockHTTPClient)

			mockHTTPClient.EXPECT().
				PostJSON(gomock.Any(), "https://api.pex.test/search",
					map[string]string{"Authorization": "Bearer k"},
					pex.SearchRequest{Fingerprint: "abc"},
					gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, _ map[string]string, _ interface{}, result interface{}) error {
					if tt.httpErr != nil {
						return tt.httpErr
					}
					return json.Unmarshal([]byte(tt.response), result)
				})

			verdict, err := client.Check(context.Background(), "abc")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatched, verdict.Matched)
			if tt.wantAsset == "" {
				assert.Nil(t, verdict.MatchedWork)
			} else {
				require.NotNil(t, verdict.MatchedWork)
				assert.Equal(t, tt.wantAsset, *verdict.MatchedWork)
			}
		})
	}
}

func TestClient_Check_Offline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := pex.NewClient(pex.Config{}, mocks.NewMockHTTPClient(ctrl))
	verdict, err := client.Check(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, verdict.Matched)
	assert.Equal(t, pex.PROVIDER_NAME, client.Name())
}

func TestClient_Check_EmptyFingerprint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := pex.NewClient(pex.Config{URL: "https://api.pex.test/search"}, mocks.NewMockHTTPClient(ctrl))
	_, err := client.Check(context.Background(), "")
	assert.Error(t, err)
}
