package domain

import (
	"github.com/shopspring/decimal"
)

// Balance sheet every bank starts a trial with
var (
	DefaultCapitalBuffer          = decimal.NewFromInt(4)
	DefaultInterbankAssets        = decimal.NewFromInt(20)
	DefaultIlliquidExternalAssets = decimal.NewFromInt(80)

	// CapacityLimit caps InterbankLoans + ExternalLiabilities + CapitalBuffer
	// for a bank to still be accepted as a borrower during wiring.
	CapacityLimit = decimal.NewFromInt(100)
)

// Position is the layout coordinate of a bank on the drawing surface.
// It has no effect on the simulation.
type Position struct {
	X int
	Y int
}

// Bank represents a balance-sheet node in the interbank lending network.
//
// Edge naming follows the lender's point of view:
//   - InEdges: counterparties this bank lends to (its interbank claims)
//   - OutEdges: counterparties that lent to this bank (its interbank obligations)
type Bank struct {
	ID       int
	Core     bool
	Position Position

	CapitalBuffer          decimal.Decimal
	InterbankAssets        decimal.Decimal
	InterbankAssetsPerEdge *decimal.Decimal // nil while the bank has no in-edges
	IlliquidExternalAssets decimal.Decimal
	ResalePriceFactor      decimal.Decimal // fire-sale factor for illiquid assets, carried but unused

	InterbankLoans      decimal.Decimal
	ExternalLiabilities decimal.Decimal

	InEdges  []*Bank
	OutEdges []*Bank

	Defaulted bool
}

// NewBank creates a bank with the default balance sheet and no edges.
// External liabilities balance the sheet: assets minus equity.
func NewBank(id int, pos Position) *Bank {
	return &Bank{
		ID:                     id,
		Position:               pos,
		CapitalBuffer:          DefaultCapitalBuffer,
		InterbankAssets:        DefaultInterbankAssets,
		IlliquidExternalAssets: DefaultIlliquidExternalAssets,
		ResalePriceFactor:      decimal.NewFromInt(1),
		InterbankLoans:         decimal.Zero,
		ExternalLiabilities:    DefaultInterbankAssets.Add(DefaultIlliquidExternalAssets).Sub(DefaultCapitalBuffer),
	}
}

// SetInEdges wires the bank as lender to every bank in inEdges.
// InterbankAssets are split evenly; each borrower books the loan and
// registers this bank as one of its out-edges. An empty list leaves the
// per-edge exposure unset.
func (b *Bank) SetInEdges(inEdges []*Bank) {
	b.InEdges = inEdges
	if len(inEdges) == 0 {
		return
	}

	loan := b.InterbankAssets.Div(decimal.NewFromInt(int64(len(inEdges))))
	b.InterbankAssetsPerEdge = &loan

	for _, borrower := range inEdges {
		borrower.AddLoan(loan)
		borrower.OutEdges = append(borrower.OutEdges, b)
	}
}

// AddLoan books an interbank loan received by this bank. The borrowed amount
// replaces the same amount of external funding.
func (b *Bank) AddLoan(amount decimal.Decimal) {
	b.InterbankLoans = b.InterbankLoans.Add(amount)
	b.ExternalLiabilities = b.ExternalLiabilities.Sub(amount)
}

// Exposure returns the loss this bank takes when one of its borrowers
// defaults. ok is false when the bank lends to nobody.
func (b *Bank) Exposure() (decimal.Decimal, bool) {
	if b.InterbankAssetsPerEdge == nil {
		return decimal.Zero, false
	}
	return *b.InterbankAssetsPerEdge, true
}

// Capacity is the borrower-side total checked against CapacityLimit
func (b *Bank) Capacity() decimal.Decimal {
	return b.InterbankLoans.Add(b.ExternalLiabilities).Add(b.CapitalBuffer)
}

// OverCapacity reports whether the bank may no longer be chosen as a borrower
func (b *Bank) OverCapacity() bool {
	return b.Capacity().GreaterThan(CapacityLimit)
}

// MarkDefaulted wipes out the capital buffer and flags the bank as failed.
// Defaulting is one-way.
func (b *Bank) MarkDefaulted() {
	b.CapitalBuffer = decimal.Zero
	b.Defaulted = true
}

// AbsorbLoss takes a loss against the capital buffer without defaulting
func (b *Bank) AbsorbLoss(amount decimal.Decimal) {
	b.CapitalBuffer = b.CapitalBuffer.Sub(amount)
}

// Degree is the number of lending relationships the bank takes part in
func (b *Bank) Degree() int {
	return len(b.InEdges) + len(b.OutEdges)
}
