// Package analysis builds per-vehicle portfolios from a processed aging
// sheet: which customers ride on which delivery vehicle, how their balances
// age, and summary statistics per vehicle.
package analysis

import "time"

// CustomerRecord is one customer's aging breakdown within a vehicle.
type CustomerRecord struct {
	Title            string             `json:"title"`
	BalanceBreakdown map[string]float64 `json:"balance_breakdown"`
	TotalBalance     float64            `json:"total_balance"`
}

// VehicleAnalysis is the complete portfolio of one vehicle.
type VehicleAnalysis struct {
	Vehicle           string             `json:"vehicle"`
	AnalysisTimestamp time.Time          `json:"analysis_timestamp"`
	CustomerCount     int                `json:"customer_count"`
	TotalBalance      float64            `json:"total_balance"`
	OpenAccount       float64            `json:"open_account"`
	AgingBreakdown    map[string]float64 `json:"aging_breakdown"`
	Customers         []CustomerRecord   `json:"customers"`
	Statistics        map[string]float64 `json:"statistics"`
}

// Result is the outcome of a full analysis run, vehicles in ascending tag
// order.
type Result struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Vehicles    []*VehicleAnalysis `json:"vehicles"`
}

// Clone deep-copies the record.
func (c CustomerRecord) Clone() CustomerRecord {
	out := c
	out.BalanceBreakdown = copyFloatMap(c.BalanceBreakdown)
	return out
}

// Clone deep-copies the portfolio.
func (v *VehicleAnalysis) Clone() *VehicleAnalysis {
	if v == nil {
		return nil
	}
	out := *v
	out.AgingBreakdown = copyFloatMap(v.AgingBreakdown)
	out.Statistics = copyFloatMap(v.Statistics)
	out.Customers = make([]CustomerRecord, len(v.Customers))
	for i, c := range v.Customers {
		out.Customers[i] = c.Clone()
	}
	return &out
}

// Clone deep-copies the run result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{GeneratedAt: r.GeneratedAt}
	out.Vehicles = make([]*VehicleAnalysis, len(r.Vehicles))
	for i, v := range r.Vehicles {
		out.Vehicles[i] = v.Clone()
	}
	return out
}

func copyFloatMap(src map[string]float64) map[string]float64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ByVehicle returns the analyses keyed by two-digit tag.
func (r *Result) ByVehicle() map[string]*VehicleAnalysis {
	out := make(map[string]*VehicleAnalysis, len(r.Vehicles))
	for _, v := range r.Vehicles {
		out[v.Vehicle] = v
	}
	return out
}
