package assistant

import "sort"

// Report is a client-side aggregation over a shop's full order list:
// grouping by day and status with revenue sums. Cancelled orders count
// toward volume but not revenue.
type Report struct {
	TotalOrders  int
	TotalRevenue float64
	ByStatus     map[string]int
	Days         []DayBucket
}

// DayBucket is one calendar day's order volume and revenue.
type DayBucket struct {
	Day     string // YYYY-MM-DD
	Orders  int
	Revenue float64
}

// BuildReport aggregates orders already fetched in full.
func BuildReport(orders []Order) *Report {
	report := &Report{ByStatus: make(map[string]int)}
	byDay := make(map[string]*DayBucket)

	for _, order := range orders {
		report.TotalOrders++
		report.ByStatus[order.Status]++

		day := order.CreatedAt.Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayBucket{Day: day}
			byDay[day] = bucket
		}
		bucket.Orders++
		if order.Status != OrderCancelled {
			bucket.Revenue += order.Total
			report.TotalRevenue += order.Total
		}
	}

	report.Days = make([]DayBucket, 0, len(byDay))
	for _, bucket := range byDay {
		report.Days = append(report.Days, *bucket)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Day < report.Days[j].Day
	})
	return report
}
