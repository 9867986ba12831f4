package registrar_test

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
	"github.com/bomac1193/Issuance/internal/registrar"
)

const (
	testFingerprint = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	testContract    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testChainID     = 80002
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

func testConfig(t *testing.T) config.RegistrarConfig {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return config.RegistrarConfig{
		RPCURL:              "http://localhost:8545",
		ContractAddress:     testContract,
		PrivateKey:          "0x" + hex.EncodeToString(crypto.FromECDSA(key)),
		ChainID:             testChainID,
		GasLimit:            200000,
		ReceiptTimeout:      time.Second,
		ReceiptPollInterval: time.Millisecond,
	}
}

func registryABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(registrar.ASSET_REGISTRY_ABI))
	require.NoError(t, err)
	return parsed
}

func packGetAsset(t *testing.T, hash [32]byte, owner common.Address) []byte {
	t.Helper()
	out, err := registryABI(t).Methods["getAsset"].Outputs.Pack(hash, owner, registrar.CONSENT_ALL, big.NewInt(1700000000))
	require.NoError(t, err)
	return out
}

func fingerprintBytes(t *testing.T) [32]byte {
	t.Helper()
	raw, err := hex.DecodeString(testFingerprint)
	require.NoError(t, err)
	var hash [32]byte
	copy(hash[:], raw)
	return hash
}

func TestRegister_SubmitsTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockEthClient(ctrl)
	r, err := registrar.NewEthereumRegistrar(testConfig(t), mockClient)
	require.NoError(t, err)

	var sent *types.Transaction
	mockClient.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(packGetAsset(t, [32]byte{}, common.Address{}), nil)
	mockClient.EXPECT().PendingNonceAt(gomock.Any(), r.Address()).Return(uint64(7), nil)
	mockClient.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(30_000_000_000), nil)
	mockClient.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			sent = tx
			return nil
		})
	gomock.InOrder(
		mockClient.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Return(nil, ethereum.NotFound),
		mockClient.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil),
	)

	ref, err := r.Register(context.Background(), 42, testFingerprint)
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, sent.Hash().Hex(), ref)

	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, uint64(200000), sent.Gas())
	assert.Equal(t, common.HexToAddress(testContract), *sent.To())

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(testChainID)), sent)
	require.NoError(t, err)
	assert.Equal(t, r.Address(), sender)

	parsed := registryABI(t)
	method, err := parsed.MethodById(sent.Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "registerAsset", method.Name)
	args, err := method.Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), args[0])
	assert.Equal(t, fingerprintBytes(t), args[1])
	assert.Equal(t, r.Address(), args[2])
	assert.Equal(t, registrar.CONSENT_ALL, args[3])
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockEthClient(ctrl)
	r, err := registrar.NewEthereumRegistrar(testConfig(t), mockClient)
	require.NoError(t, err)

	mockClient.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(packGetAsset(t, fingerprintBytes(t), r.Address()), nil)

	ref, err := r.Register(context.Background(), 42, testFingerprint)
	require.NoError(t, err)
	assert.Equal(t, "onchain:42", ref)
}

func TestRegister_DifferentFingerprintOnChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockEthClient(ctrl)
	r, err := registrar.NewEthereumRegistrar(testConfig(t), mockClient)
	require.NoError(t, err)

	other := [32]byte{1}
	mockClient.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(packGetAsset(t, other, r.Address()), nil)

	_, err = r.Register(context.Background(), 42, testFingerprint)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
}

func TestRegister_Reverted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockEthClient(ctrl)
	r, err := registrar.NewEthereumRegistrar(testConfig(t), mockClient)
	require.NoError(t, err)

	mockClient.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(nil, errors.New("execution reverted"))
	mockClient.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).Return(uint64(0), nil)
	mockClient.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	mockClient.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
	mockClient.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Return(&types.Receipt{Status: types.ReceiptStatusFailed}, nil)

	_, err = r.Register(context.Background(), 42, testFingerprint)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
}

func TestRegister_SendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockEthClient(ctrl)
	r, err := registrar.NewEthereumRegistrar(testConfig(t), mockClient)
	require.NoError(t, err)

	mockClient.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return([]byte{}, nil)
	mockClient.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).Return(uint64(0), nil)
	mockClient.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	mockClient.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(errors.New("insufficient funds"))

	_, err = r.Register(context.Background(), 42, testFingerprint)
	assert.ErrorIs(t, err, domain.ErrRegistrarUnavailable)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestRegister_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, err := registrar.NewEthereumRegistrar(testConfig(t), mocks.NewMockEthClient(ctrl))
	require.NoError(t, err)

	_, err = r.Register(context.Background(), 42, "not-hex")
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)

	_, err = r.Register(context.Background(), 42, "abcd")
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)

	_, err = r.Register(context.Background(), 0, testFingerprint)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
}

func TestNewEthereumRegistrar_InvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testConfig(t)
	cfg.ContractAddress = "0x123"
	_, err := registrar.NewEthereumRegistrar(cfg, mocks.NewMockEthClient(ctrl))
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.PrivateKey = "zz"
	_, err = registrar.NewEthereumRegistrar(cfg, mocks.NewMockEthClient(ctrl))
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testConfig(t)
	mockDialer := mocks.NewMockEthClientDialer(ctrl)
	mockClient := mocks.NewMockEthClient(ctrl)
	mockDialer.EXPECT().Dial(gomock.Any(), cfg.RPCURL).Return(mockClient, nil)
	mockClient.EXPECT().Close()

	r, err := registrar.Dial(context.Background(), cfg, mockDialer)
	require.NoError(t, err)
	r.Close()

	_, err = registrar.Dial(context.Background(), config.RegistrarConfig{}, mockDialer)
	assert.ErrorIs(t, err, domain.ErrRegistrarUnavailable)
}
