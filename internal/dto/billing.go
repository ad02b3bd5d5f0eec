package dto

// BlockEntry carries the three fields every billing report row shares. The
// combined report relies on these matching index-by-index across sections.
type BlockEntry struct {
	ClassDays     string `json:"class_days"`
	ClassSchedule string `json:"class_schedule"`
	ClassDuration int    `json:"class_duration"`
}

// BlockSubject describes one class record inside a schedule block.
type BlockSubject struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Section     string `json:"section"`
	Professor   string `json:"professor"`
}

// ScheduleBlockEntry is one row of the schedule-blocks report.
type ScheduleBlockEntry struct {
	BlockEntry
	Subjects []BlockSubject `json:"subjects"`
}

// PaymentRatesByLevel mirrors the fixed Spanish keys of the rate map.
type PaymentRatesByLevel struct {
	Grado     float64 `json:"grado"`
	Maestria1 float64 `json:"maestria_1"`
	Maestria2 float64 `json:"maestria_2"`
	Doctor    float64 `json:"doctor"`
	Bilingue  float64 `json:"bilingue"`
}

// PaymentSummaryEntry is one row of the payment-summary report.
type PaymentSummaryEntry struct {
	BlockEntry
	AcademicLevel       string              `json:"academic_level"`
	HourlyRate          float64             `json:"hourly_rate"`
	PaymentRatesByLevel PaymentRatesByLevel `json:"payment_rates_by_level"`
}

// BudgetMonth is one month of a block's budget timeline.
type BudgetMonth struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	MonthName       string  `json:"month_name"`
	Sessions        int     `json:"sessions"`
	RealTimeMinutes int     `json:"real_time_minutes"`
	TotalClassHours float64 `json:"total_class_hours"`
	TotalDollars    float64 `json:"total_dollars"`
}

// MonthlyBudgetEntry is one row of the monthly-budget report.
type MonthlyBudgetEntry struct {
	BlockEntry
	Months []BudgetMonth `json:"months"`
}

// ScheduleBlocksResponse is the pinned top-level shape of the blocks report.
type ScheduleBlocksResponse struct {
	Data  []ScheduleBlockEntry `json:"data"`
	Total int                  `json:"total"`
}

// PaymentSummaryResponse is the pinned top-level shape of the summary report.
type PaymentSummaryResponse struct {
	Data  []PaymentSummaryEntry `json:"data"`
	Total int                   `json:"total"`
}

// MonthlyBudgetResponse is the pinned top-level shape of the budget report.
type MonthlyBudgetResponse struct {
	Data  []MonthlyBudgetEntry `json:"data"`
	Total int                  `json:"total"`
}

// BillingReportResponse bundles the three sections. All sections have equal
// length and identical block ordering.
type BillingReportResponse struct {
	ScheduleBlocks ScheduleBlocksResponse `json:"schedule_blocks"`
	PaymentSummary PaymentSummaryResponse `json:"payment_summary"`
	MonthlyBudget  MonthlyBudgetResponse  `json:"monthly_budget"`
}
