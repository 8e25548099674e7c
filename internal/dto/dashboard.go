package dto

// DashboardSummary aggregates headline counts for the admin dashboard.
type DashboardSummary struct {
	Replacements map[string]int  `json:"replacements"`
	Orders       map[string]int  `json:"orders"`
	Totals       DashboardTotals `json:"totals"`
}

// DashboardTotals counts the main entities.
type DashboardTotals struct {
	Factories   int `json:"factories"`
	Models      int `json:"models"`
	Products    int `json:"products"`
	Technicians int `json:"technicians"`
	Customers   int `json:"customers"`
}
