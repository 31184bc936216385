package domain

import (
	"github.com/shopspring/decimal"
)

// ExposureLine is one interbank claim or obligation in a bank record
type ExposureLine struct {
	CounterpartyID int
	Amount         decimal.Decimal
}

// BankRecord is the read-only view of a bank handed to rendering and
// inspection consumers. It holds ids instead of pointers.
type BankRecord struct {
	ID                     int
	Core                   bool
	Position               Position
	Defaulted              bool
	CapitalBuffer          decimal.Decimal
	InterbankAssets        decimal.Decimal
	InterbankAssetsPerEdge *decimal.Decimal
	IlliquidExternalAssets decimal.Decimal
	ResalePriceFactor      decimal.Decimal
	InterbankLoans         decimal.Decimal
	ExternalLiabilities    decimal.Decimal
	InEdges                []int
	OutEdges               []int

	// Claims lists what each in-edge counterparty owes this bank.
	Claims []ExposureLine
	// Obligations lists what this bank owes each out-edge counterparty.
	Obligations []ExposureLine
}

// Record snapshots the bank
func (b *Bank) Record() BankRecord {
	rec := BankRecord{
		ID:                     b.ID,
		Core:                   b.Core,
		Position:               b.Position,
		Defaulted:              b.Defaulted,
		CapitalBuffer:          b.CapitalBuffer,
		InterbankAssets:        b.InterbankAssets,
		IlliquidExternalAssets: b.IlliquidExternalAssets,
		ResalePriceFactor:      b.ResalePriceFactor,
		InterbankLoans:         b.InterbankLoans,
		ExternalLiabilities:    b.ExternalLiabilities,
		InEdges:                make([]int, 0, len(b.InEdges)),
		OutEdges:               make([]int, 0, len(b.OutEdges)),
		Claims:                 make([]ExposureLine, 0, len(b.InEdges)),
		Obligations:            make([]ExposureLine, 0, len(b.OutEdges)),
	}

	exposure, ok := b.Exposure()
	if ok {
		rec.InterbankAssetsPerEdge = &exposure
	}

	for _, borrower := range b.InEdges {
		rec.InEdges = append(rec.InEdges, borrower.ID)
		rec.Claims = append(rec.Claims, ExposureLine{CounterpartyID: borrower.ID, Amount: exposure})
	}

	for _, lender := range b.OutEdges {
		rec.OutEdges = append(rec.OutEdges, lender.ID)
		owed, _ := lender.Exposure()
		rec.Obligations = append(rec.Obligations, ExposureLine{CounterpartyID: lender.ID, Amount: owed})
	}

	return rec
}

// Records snapshots a whole network in bank order
func Records(banks []*Bank) []BankRecord {
	records := make([]BankRecord, 0, len(banks))
	for _, b := range banks {
		records = append(records, b.Record())
	}
	return records
}
