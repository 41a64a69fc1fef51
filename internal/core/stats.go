package core

import "sort"

// DashboardStats is the aggregate view over all recorded sales.
type DashboardStats struct {
	TotalRevenue        Money
	TotalProfit         Money
	TotalTransactions   int
	AverageProfitMargin float64 // percent; 0 when no transaction has positive margin
	BestSellingItem     string  // item name with the highest summed quantity
	DailySales          []DailySale
}

// DailySale is one day's totals, keyed by date_sold.
type DailySale struct {
	Date         Date
	Revenue      Money
	Profit       Money
	Transactions int
}

// InventoryStats is the aggregate view over all inventory items.
type InventoryStats struct {
	TotalItems      int
	TotalStockValue Money // sum of purchase cost times quantity in stock
	LowStockItems   int
	OutOfStockItems int
	Categories      []string // distinct, sorted, empty categories skipped
}

// ChartPoint is one entry of the chronological sales chart.
type ChartPoint struct {
	Label   Date
	Revenue Money
	Profit  Money
}

// ComputeDashboardStats reduces a transaction list to dashboard totals.
// The input is not mutated and order does not matter.
func ComputeDashboardStats(transactions []Transaction) DashboardStats {
	stats := DashboardStats{TotalTransactions: len(transactions)}
	if len(transactions) == 0 {
		return stats
	}

	var marginSum float64
	var marginCount int
	itemQuantities := make(map[string]int)
	daily := make(map[string]*DailySale)

	for _, t := range transactions {
		stats.TotalRevenue.Cents += t.Revenue().Cents
		stats.TotalProfit.Cents += t.Profit().Cents

		// Only transactions that actually made money count toward the
		// average margin; loss-makers would drag the headline below zero.
		if margin := t.ProfitMargin(); margin > 0 {
			marginSum += margin
			marginCount++
		}

		itemQuantities[t.ItemName] += t.Quantity

		key := t.DateSold.String()
		day, ok := daily[key]
		if !ok {
			day = &DailySale{Date: t.DateSold}
			daily[key] = day
		}
		day.Revenue.Cents += t.Revenue().Cents
		day.Profit.Cents += t.Profit().Cents
		day.Transactions++
	}

	if marginCount > 0 {
		stats.AverageProfitMargin = marginSum / float64(marginCount)
	}
	stats.BestSellingItem = bestSeller(itemQuantities)
	stats.DailySales = sortedDailySales(daily)
	return stats
}

// ComputeInventoryStats reduces an item list to stock-level totals.
func ComputeInventoryStats(items []InventoryItem) InventoryStats {
	stats := InventoryStats{TotalItems: len(items)}
	seen := make(map[string]struct{})

	for _, i := range items {
		stats.TotalStockValue.Cents += i.StockValue().Cents
		switch i.StockStatus() {
		case OutOfStock:
			stats.OutOfStockItems++
		case LowStock:
			stats.LowStockItems++
		}
		if i.Category != "" {
			if _, ok := seen[i.Category]; !ok {
				seen[i.Category] = struct{}{}
				stats.Categories = append(stats.Categories, i.Category)
			}
		}
	}

	sort.Strings(stats.Categories)
	return stats
}

// ComputeSalesChart groups revenue and profit by sale date, ordered
// chronologically for time-series rendering.
func ComputeSalesChart(transactions []Transaction) []ChartPoint {
	daily := make(map[string]*ChartPoint)
	for _, t := range transactions {
		key := t.DateSold.String()
		point, ok := daily[key]
		if !ok {
			point = &ChartPoint{Label: t.DateSold}
			daily[key] = point
		}
		point.Revenue.Cents += t.Revenue().Cents
		point.Profit.Cents += t.Profit().Cents
	}

	points := make([]ChartPoint, 0, len(daily))
	for _, p := range daily {
		points = append(points, *p)
	}
	sort.Slice(points, func(a, b int) bool {
		return points[a].Label.Before(points[b].Label.Time)
	})
	return points
}

// bestSeller picks the item with the highest summed quantity. Ties break
// alphabetically so repeated runs over the same data agree.
func bestSeller(quantities map[string]int) string {
	var best string
	var bestQty int
	for name, qty := range quantities {
		if qty > bestQty || (qty == bestQty && (best == "" || name < best)) {
			best = name
			bestQty = qty
		}
	}
	return best
}

func sortedDailySales(daily map[string]*DailySale) []DailySale {
	out := make([]DailySale, 0, len(daily))
	for _, d := range daily {
		out = append(out, *d)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date.Time)
	})
	return out
}
