package registrar

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
)

// ASSET_REGISTRY_ABI is the subset of the asset registry contract used for registration
const ASSET_REGISTRY_ABI = `[
	{"inputs":[{"name":"assetId","type":"uint256"},{"name":"fingerprintHash","type":"bytes32"},{"name":"owner","type":"address"},{"name":"consentFlags","type":"uint8"}],"name":"registerAsset","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"assetId","type":"uint256"}],"name":"getAsset","outputs":[{"name":"fingerprintHash","type":"bytes32"},{"name":"owner","type":"address"},{"name":"consentFlags","type":"uint8"},{"name":"timestamp","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const (
	// CONSENT_ALL grants every consent flag
	CONSENT_ALL uint8 = 0xFF

	DEFAULT_GAS_LIMIT             = 200000
	DEFAULT_RECEIPT_TIMEOUT       = 2 * time.Minute
	DEFAULT_RECEIPT_POLL_INTERVAL = 2 * time.Second
)

// EthereumRegistrar registers assets on an EVM asset registry contract (Polygon by default)
type EthereumRegistrar struct {
	config   config.RegistrarConfig
	client   adapter.EthClient
	abi      abi.ABI
	key      *ecdsa.PrivateKey
	from     common.Address
	contract common.Address
	chainID  *big.Int
}

// NewEthereumRegistrar creates a registrar signing with the configured private key
func NewEthereumRegistrar(cfg config.RegistrarConfig, client adapter.EthClient) (*EthereumRegistrar, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %q", cfg.ContractAddress)
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("invalid chain id: %d", cfg.ChainID)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(ASSET_REGISTRY_ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	if cfg.GasLimit == 0 {
		cfg.GasLimit = DEFAULT_GAS_LIMIT
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DEFAULT_RECEIPT_TIMEOUT
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = DEFAULT_RECEIPT_POLL_INTERVAL
	}

	return &EthereumRegistrar{
		config:   cfg,
		client:   client,
		abi:      parsed,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  big.NewInt(cfg.ChainID),
	}, nil
}

// Dial connects to the configured RPC endpoint and creates a registrar on it
func Dial(ctx context.Context, cfg config.RegistrarConfig, dialer adapter.EthClientDialer) (*EthereumRegistrar, error) {
	if !cfg.Enabled() {
		return nil, domain.ErrRegistrarUnavailable
	}

	client, err := dialer.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %w", domain.ErrRegistrarUnavailable, cfg.RPCURL, err)
	}

	r, err := NewEthereumRegistrar(cfg, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

// Address returns the signer address, which is also the registered owner
func (r *EthereumRegistrar) Address() common.Address {
	return r.from
}

// Close closes the RPC connection
func (r *EthereumRegistrar) Close() {
	r.client.Close()
}

// Register submits registerAsset and waits for the receipt. It returns the transaction hash,
// or "onchain:<assetID>" when the contract already holds the same fingerprint.
func (r *EthereumRegistrar) Register(ctx context.Context, assetID int64, fingerprint string) (string, error) {
	if assetID <= 0 {
		return "", fmt.Errorf("%w: invalid asset id %d", domain.ErrRegistrationFailed, assetID)
	}
	hash, err := fingerprintHash(fingerprint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}
	id := big.NewInt(assetID)

	existing, err := r.registeredFingerprint(ctx, id)
	if err != nil {
		logger.DebugCtx(ctx, "Asset lookup failed, registering", zap.Int64("asset_id", assetID), zap.Error(err))
	} else if existing == hash {
		logger.InfoCtx(ctx, "Asset already registered", zap.Int64("asset_id", assetID))
		return fmt.Sprintf("onchain:%d", assetID), nil
	} else if existing != ([32]byte{}) {
		return "", fmt.Errorf("%w: asset %d is registered with a different fingerprint", domain.ErrRegistrationFailed, assetID)
	}

	data, err := r.abi.Pack("registerAsset", id, hash, r.from, CONSENT_ALL)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	nonce, err := r.client.PendingNonceAt(ctx, r.from)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get nonce: %w", domain.ErrRegistrarUnavailable, err)
	}
	gasPrice, err := r.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to suggest gas price: %w", domain.ErrRegistrarUnavailable, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &r.contract,
		Value:    big.NewInt(0),
		Gas:      r.config.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(r.chainID), r.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := r.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("%w: failed to send transaction: %w", domain.ErrRegistrarUnavailable, err)
	}

	logger.InfoCtx(ctx, "Registration transaction sent",
		zap.Int64("asset_id", assetID),
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
	)

	receipt, err := r.waitForReceipt(ctx, signed.Hash())
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: transaction %s reverted", domain.ErrRegistrationFailed, signed.Hash().Hex())
	}

	return signed.Hash().Hex(), nil
}

// registeredFingerprint returns the fingerprint hash stored for the asset, zero when unregistered
func (r *EthereumRegistrar) registeredFingerprint(ctx context.Context, id *big.Int) ([32]byte, error) {
	data, err := r.abi.Pack("getAsset", id)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contract,
		Data: data,
	}, nil)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to call contract: %w", err)
	}
	if len(result) == 0 {
		return [32]byte{}, nil
	}

	values, err := r.abi.Unpack("getAsset", result)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to unpack result: %w", err)
	}
	hash, ok := values[0].([32]byte)
	if !ok {
		return [32]byte{}, errors.New("unexpected fingerprint hash type")
	}
	return hash, nil
}

func (r *EthereumRegistrar) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.ReceiptPollInterval
	b.MaxInterval = 4 * r.config.ReceiptPollInterval
	b.MaxElapsedTime = r.config.ReceiptTimeout
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2

	var receipt *types.Receipt
	operation := func() error {
		rcpt, err := r.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				logger.WarnCtx(ctx, "Failed to fetch receipt, polling again", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
			}
			return err
		}
		receipt = rcpt
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("%w: no receipt for %s: %w", domain.ErrRegistrarUnavailable, txHash.Hex(), err)
	}
	return receipt, nil
}

func fingerprintHash(fingerprint string) ([32]byte, error) {
	var hash [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(fingerprint, "0x"))
	if err != nil {
		return hash, fmt.Errorf("fingerprint is not hex: %w", err)
	}
	if len(raw) != len(hash) {
		return hash, fmt.Errorf("fingerprint must be 32 bytes, got %d", len(raw))
	}
	copy(hash[:], raw)
	if bytes.Equal(hash[:], make([]byte, len(hash))) {
		return hash, errors.New("fingerprint cannot be zero")
	}
	return hash, nil
}
