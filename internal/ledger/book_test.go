package ledger_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/ledger"
)

var (
	alice = domain.Holder{ID: "alice", Label: "Alice"}
	bob   = domain.Holder{ID: "bob", Label: "Bob"}
)

func TestNewBook(t *testing.T) {
	book, err := ledger.NewBook(100, domain.VaultHolder)
	require.NoError(t, err)
	assert.Equal(t, int64(100), book.Total())
	assert.Equal(t, int64(100), book.Balance(domain.VAULT_HOLDER_ID))
	assert.NoError(t, book.Verify())
}

func TestNewBook_FractionCountBounds(t *testing.T) {
	tests := []struct {
		count int64
		valid bool
	}{
		{count: 1, valid: false},
		{count: 2, valid: true},
		{count: 10000, valid: true},
		{count: 10001, valid: false},
		{count: 0, valid: false},
		{count: -5, valid: false},
	}

	for _, tt := range tests {
		_, err := ledger.NewBook(tt.count, domain.VaultHolder)
		if tt.valid {
			assert.NoError(t, err, "count %d", tt.count)
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidFractionCount, "count %d", tt.count)
		}
	}
}

func TestNewBook_RequiresHolder(t *testing.T) {
	_, err := ledger.NewBook(100, domain.Holder{Label: "Nobody"})
	assert.ErrorIs(t, err, domain.ErrInvalidHolder)

	book, err := ledger.NewBook(100, domain.Holder{ID: "treasury"})
	require.NoError(t, err)
	assert.Equal(t, "treasury", book.Holdings[0].Holder.Label)
}

func TestTransfer_VaultToAlice(t *testing.T) {
	book, err := ledger.NewBook(100, domain.VaultHolder)
	require.NoError(t, err)

	next, err := book.Transfer(domain.VaultHolder, alice, 30)
	require.NoError(t, err)

	positions := next.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, ledger.Position{HolderID: "vault", HolderLabel: "Vault", Amount: 70, Percentage: 70.0}, positions[0])
	assert.Equal(t, ledger.Position{HolderID: "alice", HolderLabel: "Alice", Amount: 30, Percentage: 30.0}, positions[1])

	// The receiver is unchanged
	assert.Equal(t, int64(100), book.Balance(domain.VAULT_HOLDER_ID))
	assert.Len(t, book.Holdings, 1)
}

func TestTransfer_EmptiedHolderIsDropped(t *testing.T) {
	book, err := ledger.NewBook(10, domain.VaultHolder)
	require.NoError(t, err)

	book, err = book.Transfer(domain.VaultHolder, alice, 4)
	require.NoError(t, err)
	book, err = book.Transfer(alice, bob, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(0), book.Balance(alice.ID))
	assert.Len(t, book.Holdings, 2)
	assert.NoError(t, book.Verify())
}

func TestTransfer_Errors(t *testing.T) {
	book, err := ledger.NewBook(100, domain.VaultHolder)
	require.NoError(t, err)
	book, err = book.Transfer(domain.VaultHolder, alice, 30)
	require.NoError(t, err)

	tests := []struct {
		name   string
		from   domain.Holder
		to     domain.Holder
		amount int64
		want   error
	}{
		{name: "exceeds balance", from: alice, to: bob, amount: 31, want: domain.ErrInsufficientShares},
		{name: "unknown source", from: bob, to: alice, amount: 1, want: domain.ErrInsufficientShares},
		{name: "zero amount", from: alice, to: bob, amount: 0, want: domain.ErrInvalidShareAmount},
		{name: "negative amount", from: alice, to: bob, amount: -3, want: domain.ErrInvalidShareAmount},
		{name: "self transfer", from: alice, to: alice, amount: 1, want: domain.ErrInvalidShareAmount},
		{name: "empty destination", from: alice, to: domain.Holder{}, amount: 1, want: domain.ErrInvalidHolder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book.Transfer(tt.from, tt.to, tt.amount)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(30), book.Balance(alice.ID))
			assert.Equal(t, int64(70), book.Balance(domain.VAULT_HOLDER_ID))
		})
	}
}

func TestTransfer_ConservationUnderRandomTransfers(t *testing.T) {
	holders := []domain.Holder{domain.VaultHolder, alice, bob, {ID: "carol"}, {ID: "dave"}}
	rng := rand.New(rand.NewSource(7))

	book, err := ledger.NewBook(997, domain.VaultHolder)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		from := holders[rng.Intn(len(holders))]
		to := holders[rng.Intn(len(holders))]
		amount := rng.Int63n(400) - 20

		next, err := book.Transfer(from, to, amount)
		if err == nil {
			book = next
		}
		require.Equal(t, int64(997), book.Total(), "step %d", i)
		require.NoError(t, book.Verify(), "step %d", i)
	}
}

func TestVerify_DetectsViolations(t *testing.T) {
	tests := []struct {
		name string
		book ledger.Book
	}{
		{
			name: "sum mismatch",
			book: ledger.Book{FractionCount: 100, Holdings: []ledger.Holding{{Holder: alice, Amount: 99}}},
		},
		{
			name: "duplicate holder",
			book: ledger.Book{FractionCount: 100, Holdings: []ledger.Holding{{Holder: alice, Amount: 50}, {Holder: alice, Amount: 50}}},
		},
		{
			name: "zero holding",
			book: ledger.Book{FractionCount: 100, Holdings: []ledger.Holding{{Holder: alice, Amount: 100}, {Holder: bob, Amount: 0}}},
		},
		{
			name: "negative holding",
			book: ledger.Book{FractionCount: 100, Holdings: []ledger.Holding{{Holder: alice, Amount: 110}, {Holder: bob, Amount: -10}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.book.Verify(), domain.ErrLedgerInvariant)
		})
	}
}

func TestHolding_Percentage(t *testing.T) {
	h := ledger.Holding{Holder: alice, Amount: 1}
	assert.InDelta(t, 33.3333, h.Percentage(3), 1e-4)
	assert.Equal(t, 0.0, h.Percentage(0))
}

func TestPositions_OrderedByAmountThenHolder(t *testing.T) {
	book := ledger.Book{
		FractionCount: 10,
		Holdings: []ledger.Holding{
			{Holder: bob, Amount: 3},
			{Holder: domain.VaultHolder, Amount: 4},
			{Holder: alice, Amount: 3},
		},
	}

	positions := book.Positions()
	require.Len(t, positions, 3)
	assert.Equal(t, "vault", positions[0].HolderID)
	assert.Equal(t, "alice", positions[1].HolderID)
	assert.Equal(t, "bob", positions[2].HolderID)
}
