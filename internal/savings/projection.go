// Package savings holds the projection and suggestion engine. Everything in
// here is pure: no I/O, no logging, no shared state.
package savings

// Compound returns the capital accumulated after years annual periods when
// annualContribution is paid in at each period and the running balance then
// grows by (1 + annualRate):
//
//	balance(0)   = 0
//	balance(n+1) = (balance(n) + annualContribution) * (1 + annualRate)
//
// The recurrence is evaluated period by period so the floating point result
// matches a year-by-year simulation exactly.
func Compound(annualContribution, annualRate float64, years int) float64 {
	balance := 0.0
	for i := 0; i < years; i++ {
		balance = (balance + annualContribution) * (1 + annualRate)
	}
	return balance
}
