package types

import (
	"cosmossdk.io/math"
)

// Split is the three-way division of a session deposit.
type Split struct {
	BillableUnits uint64
	Payment       math.Int
	HostPayout    math.Int
	TreasuryFee   math.Int
	Refund        math.Int
	EarlyCancel   bool
}

var pricePrecision = math.NewInt(PricePrecision)

// MaxUnitsCoverable is the number of units a deposit pays for at price, floored.
func MaxUnitsCoverable(deposit, pricePerUnit math.Int) (math.Int, error) {
	if !pricePerUnit.IsPositive() {
		return math.ZeroInt(), nil
	}
	scaled, err := deposit.SafeMul(pricePrecision)
	if err != nil {
		return math.Int{}, ErrInvalidAmount.Wrapf("deposit %s: %v", deposit, err)
	}
	return scaled.Quo(pricePerUnit), nil
}

// CostOfUnits returns units*price/PricePrecision, floored.
func CostOfUnits(units, pricePerUnit math.Int) math.Int {
	return units.Mul(pricePerUnit).Quo(pricePrecision)
}

// ComputeSplit settles proven work: payment is capped by what the deposit covers,
// the protocol fee is floored and the host receives the rest of the payment.
// Remainders of every floor division stay with the refund.
func ComputeSplit(deposit, pricePerUnit math.Int, provenUnits uint64, protocolFeeBps uint64) Split {
	proven := math.NewIntFromUint64(provenUnits)
	billable := proven
	// A deposit too wide to scale covers any uint64 unit count.
	if coverable, err := MaxUnitsCoverable(deposit, pricePerUnit); err == nil {
		billable = math.MinInt(proven, coverable)
	}

	payment := CostOfUnits(billable, pricePerUnit)
	if payment.GT(deposit) {
		payment = deposit
	}
	fee := payment.Mul(math.NewIntFromUint64(protocolFeeBps)).Quo(math.NewInt(BasisPoints))

	return Split{
		BillableUnits: billable.Uint64(),
		Payment:       payment,
		HostPayout:    payment.Sub(fee),
		TreasuryFee:   fee,
		Refund:        deposit.Sub(payment),
	}
}

// EarlyCancelFee is charged when the depositor ends a session with no proofs.
func EarlyCancelFee(deposit, pricePerUnit math.Int, minUnits uint64) math.Int {
	fee := CostOfUnits(math.NewIntFromUint64(minUnits), pricePerUnit)
	return math.MinInt(fee, deposit)
}

// ComputeEarlyCancelSplit pays the whole fee to the host with no protocol cut.
func ComputeEarlyCancelSplit(deposit, pricePerUnit math.Int, minUnits uint64) Split {
	fee := EarlyCancelFee(deposit, pricePerUnit, minUnits)
	return Split{
		Payment:     fee,
		HostPayout:  fee,
		TreasuryFee: math.ZeroInt(),
		Refund:      deposit.Sub(fee),
		EarlyCancel: true,
	}
}

// Total is the sum of the three parts.
func (s Split) Total() math.Int {
	return s.HostPayout.Add(s.TreasuryFee).Add(s.Refund)
}

// Summary converts the split into the record stored on a terminal session.
func (s Split) Summary() SettlementSummary {
	return SettlementSummary{
		BillableUnits: s.BillableUnits,
		Payment:       s.Payment,
		HostPayout:    s.HostPayout,
		TreasuryFee:   s.TreasuryFee,
		Refund:        s.Refund,
		EarlyCancel:   s.EarlyCancel,
	}
}
