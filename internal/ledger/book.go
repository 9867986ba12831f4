package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bomac1193/Issuance/internal/domain"
)

// Holding is one holder's share balance
type Holding struct {
	Holder domain.Holder
	Amount int64
}

// Percentage returns the holding as a share of count, in percent.
// It is always derived, never stored.
func (h Holding) Percentage(count int64) float64 {
	if count <= 0 {
		return 0
	}
	return float64(h.Amount) / float64(count) * 100
}

// Book is the full holding set of one fractionalized asset.
// Its methods never modify the receiver.
type Book struct {
	FractionCount int64
	Holdings      []Holding
}

// ValidateFractionCount checks count is within the allowed range
func ValidateFractionCount(count int64) error {
	if count < domain.MIN_FRACTION_COUNT || count > domain.MAX_FRACTION_COUNT {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidFractionCount, count)
	}
	return nil
}

// NewBook opens a ledger with every share held by the custodian
func NewBook(count int64, custodian domain.Holder) (Book, error) {
	if err := ValidateFractionCount(count); err != nil {
		return Book{}, err
	}
	custodian, err := normalizeHolder(custodian)
	if err != nil {
		return Book{}, err
	}

	book := Book{
		FractionCount: count,
		Holdings:      []Holding{{Holder: custodian, Amount: count}},
	}
	if err := book.Verify(); err != nil {
		return Book{}, err
	}
	return book, nil
}

// Total returns the sum of every holding
func (b Book) Total() int64 {
	var total int64
	for _, h := range b.Holdings {
		total += h.Amount
	}
	return total
}

// Balance returns the shares held by a holder, zero when absent
func (b Book) Balance(holderID string) int64 {
	for _, h := range b.Holdings {
		if h.Holder.ID == holderID {
			return h.Amount
		}
	}
	return 0
}

// Transfer returns a new book with amount shares moved from one holder to another.
// A source left with zero shares is dropped; a new destination is appended.
func (b Book) Transfer(from domain.Holder, to domain.Holder, amount int64) (Book, error) {
	from, err := normalizeHolder(from)
	if err != nil {
		return Book{}, err
	}
	to, err = normalizeHolder(to)
	if err != nil {
		return Book{}, err
	}
	if amount <= 0 {
		return Book{}, fmt.Errorf("%w: amount must be positive, got %d", domain.ErrInvalidShareAmount, amount)
	}
	if from.ID == to.ID {
		return Book{}, fmt.Errorf("%w: cannot transfer to the same holder", domain.ErrInvalidShareAmount)
	}

	balance := b.Balance(from.ID)
	if balance < amount {
		return Book{}, fmt.Errorf("%w: %s holds %d, requested %d", domain.ErrInsufficientShares, from.ID, balance, amount)
	}

	next := Book{
		FractionCount: b.FractionCount,
		Holdings:      make([]Holding, 0, len(b.Holdings)+1),
	}
	received := false
	for _, h := range b.Holdings {
		switch h.Holder.ID {
		case from.ID:
			h.Amount -= amount
			if h.Amount == 0 {
				continue
			}
		case to.ID:
			h.Amount += amount
			received = true
		}
		next.Holdings = append(next.Holdings, h)
	}
	if !received {
		next.Holdings = append(next.Holdings, Holding{Holder: to, Amount: amount})
	}

	if err := next.Verify(); err != nil {
		return Book{}, err
	}
	return next, nil
}

// Verify checks conservation: holdings are positive, unique per holder and sum to the fraction count
func (b Book) Verify() error {
	if b.FractionCount <= 0 {
		return fmt.Errorf("%w: fraction count %d", domain.ErrLedgerInvariant, b.FractionCount)
	}

	seen := make(map[string]struct{}, len(b.Holdings))
	var total int64
	for _, h := range b.Holdings {
		if h.Holder.ID == "" {
			return fmt.Errorf("%w: holding without holder", domain.ErrLedgerInvariant)
		}
		if _, ok := seen[h.Holder.ID]; ok {
			return fmt.Errorf("%w: duplicate holder %s", domain.ErrLedgerInvariant, h.Holder.ID)
		}
		seen[h.Holder.ID] = struct{}{}
		if h.Amount <= 0 {
			return fmt.Errorf("%w: holder %s has %d shares", domain.ErrLedgerInvariant, h.Holder.ID, h.Amount)
		}
		total += h.Amount
	}

	if total != b.FractionCount {
		return fmt.Errorf("%w: holdings sum to %d, expected %d", domain.ErrLedgerInvariant, total, b.FractionCount)
	}
	return nil
}

// Positions returns the holdings ordered by amount desc then holder id, with percentages
func (b Book) Positions() []Position {
	positions := make([]Position, len(b.Holdings))
	for i, h := range b.Holdings {
		positions[i] = Position{
			HolderID:    h.Holder.ID,
			HolderLabel: h.Holder.Label,
			Amount:      h.Amount,
			Percentage:  h.Percentage(b.FractionCount),
		}
	}
	slices.SortFunc(positions, func(a, b Position) int {
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.HolderID, b.HolderID)
	})
	return positions
}

// Position is a holding as presented to callers
type Position struct {
	HolderID    string  `json:"holder_id"`
	HolderLabel string  `json:"holder_label"`
	Amount      int64   `json:"amount"`
	Percentage  float64 `json:"percentage"`
}

// normalizeHolder trims the holder and defaults its label to the ID
func normalizeHolder(h domain.Holder) (domain.Holder, error) {
	h.ID = strings.TrimSpace(h.ID)
	h.Label = strings.TrimSpace(h.Label)
	if h.ID == "" {
		return domain.Holder{}, fmt.Errorf("%w: holder id is required", domain.ErrInvalidHolder)
	}
	if h.Label == "" {
		h.Label = h.ID
	}
	return h, nil
}
