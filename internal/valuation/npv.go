// Package valuation computes discounted-cash-flow figures for club projects.
package valuation

import "math"

// NPV returns the net present value of a project that pays annualCashFlow at
// the end of each year for durationYears, discounted at discountRate, minus
// the upfront cost. discountRate must be greater than -1.
func NPV(annualCashFlow, discountRate float64, durationYears int, cost float64) float64 {
	if discountRate == 0 {
		return annualCashFlow*float64(durationYears) - cost
	}
	pv := 0.0
	for t := 1; t <= durationYears; t++ {
		pv += annualCashFlow / math.Pow(1+discountRate, float64(t))
	}
	return pv - cost
}

// PresentValue is the discounted value of the cash-flow stream alone.
func PresentValue(annualCashFlow, discountRate float64, durationYears int) float64 {
	return NPV(annualCashFlow, discountRate, durationYears, 0)
}
