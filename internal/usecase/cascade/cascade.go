package cascade

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// Report summarises one shock event
type Report struct {
	ShockedID   int
	Defaults    []int // bank ids in the order they defaulted, shocked bank first
	Absorptions int   // losses taken without defaulting
}

// Shock forces bank into default, zeroing its illiquid external assets and
// capital buffer, then propagates the losses through the network.
// Shocking a bank that has already defaulted changes nothing.
func Shock(bank *domain.Bank) Report {
	report := Report{ShockedID: bank.ID}
	if bank.Defaulted {
		return report
	}

	bank.IlliquidExternalAssets = decimal.Zero
	bank.MarkDefaulted()
	report.Defaults = append(report.Defaults, bank.ID)

	propagate(bank, &report)
	return report
}

// Cascade propagates the failure of an already defaulted bank to every
// lender reachable through out-edges.
func Cascade(bank *domain.Bank) Report {
	report := Report{ShockedID: bank.ID}
	propagate(bank, &report)
	return report
}

// frame is one failed bank whose lenders are being walked
type frame struct {
	bank *domain.Bank
	next int
}

// propagate walks out-edges depth first in insertion order, the same order
// a recursive walk would take. Each lender of a failed bank either defaults,
// when its exposure exceeds its buffer, and is pushed to be walked in turn,
// or absorbs the loss. Defaulted lenders are skipped, so every bank is
// pushed at most once and cycles terminate.
func propagate(root *domain.Bank, report *Report) {
	stack := []frame{{bank: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.bank.OutEdges) {
			stack = stack[:len(stack)-1]
			continue
		}

		lender := top.bank.OutEdges[top.next]
		top.next++

		if lender.Defaulted {
			continue
		}

		exposure, _ := lender.Exposure()
		if exposure.GreaterThan(lender.CapitalBuffer) {
			lender.MarkDefaulted()
			report.Defaults = append(report.Defaults, lender.ID)
			stack = append(stack, frame{bank: lender})
			continue
		}

		lender.AbsorbLoss(exposure)
		report.Absorptions++
	}
}
