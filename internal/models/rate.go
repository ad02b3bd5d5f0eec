package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LevelCode classifies a professor into a pay tier.
type LevelCode string

const (
	LevelGrado     LevelCode = "GDO"
	LevelMasters1  LevelCode = "M1"
	LevelMasters2  LevelCode = "M2"
	LevelDoctor    LevelCode = "DR"
	LevelBilingual LevelCode = "BLG"
)

// LevelCodes lists every pay tier in ascending priority order.
var LevelCodes = []LevelCode{LevelGrado, LevelMasters1, LevelMasters2, LevelDoctor, LevelBilingual}

// Valid reports whether the code is one of the known tiers.
func (c LevelCode) Valid() bool {
	for _, known := range LevelCodes {
		if c == known {
			return true
		}
	}
	return false
}

// PaymentRate is one row of the rate history: the hourly rate paid for a
// level over an effective date range. Ranges never overlap per level.
type PaymentRate struct {
	ID            string          `db:"id" json:"id"`
	Level         LevelCode       `db:"level" json:"level"`
	HourlyRate    decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	EffectiveFrom time.Time       `db:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time      `db:"effective_to" json:"effective_to,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// PaymentRateFilter narrows rate history listings.
type PaymentRateFilter struct {
	Level     *LevelCode
	At        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
