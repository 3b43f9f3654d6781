package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

type (
	TransactionType string

	Frequency string

	BudgetPeriod string

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Category    string          `json:"categoryId"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		IsRecurring bool            `json:"isRecurring"`
		RecurringID string          `json:"recurringId,omitempty"`
		Tags        []string        `json:"tags,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// Budget tracks a spending limit for one (user, category) pair. Spent is
	// derived from the live set of expense transactions and is only ever
	// written through the ledger.
	Budget struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Category  string          `json:"category"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Period    BudgetPeriod    `json:"period"`
		Spent     decimal.Decimal `json:"spent"`
		StartDate time.Time       `json:"startDate"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// RecurringDefinition is a template describing a transaction that repeats
	// on a schedule, distinct from any individual occurrence it produces.
	RecurringDefinition struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Category    string          `json:"categoryId"`
		Description string          `json:"description"`
		Frequency   Frequency       `json:"frequency"`
		StartDate   time.Time       `json:"startDate"`
		EndDate     time.Time       `json:"endDate,omitempty"`
		NextDueDate time.Time       `json:"nextDueDate"`
		IsActive    bool            `json:"isActive"`
	}

	Reminder struct {
		ID           string          `json:"id"`
		UserID       string          `json:"userId"`
		Title        string          `json:"title"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		DueDate      time.Time       `json:"dueDate"`
		Category     string          `json:"categoryId"`
		IsRecurring  bool            `json:"isRecurring"`
		Frequency    Frequency       `json:"frequency,omitempty"`
		IsPaid       bool            `json:"isPaid"`
		NotifyBefore int             `json:"notifyBefore"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	Goal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Currency      string          `json:"currency"`
		Deadline      time.Time       `json:"deadline"`
		Category      string          `json:"categoryId,omitempty"`
		Icon          string          `json:"icon"`
		Color         string          `json:"color"`
		IsCompleted   bool            `json:"isCompleted"`
		CreatedAt     time.Time       `json:"createdAt"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUser        = errors.New("empty user id")
	// ErrInvalidInput covers validation failures without a dedicated sentinel.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConsistency marks a ledger adjustment that could not complete after
	// the primary write already succeeded.
	ErrConsistency = errors.New("ledger consistency failure")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (p BudgetPeriod) Validate() error {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return nil
	default:
		return fmt.Errorf("%w: invalid budget period", ErrInvalidInput)
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidInput)
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	return b.Period.Validate()
}

func (rd RecurringDefinition) Validate() error {
	if strings.TrimSpace(rd.UserID) == "" {
		return ErrEmptyUser
	}
	if err := rd.Type.Validate(); err != nil {
		return err
	}
	if err := ValidateAmount(rd.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(rd.Category) == "" {
		return ErrEmptyCategory
	}
	if err := rd.Frequency.Validate(); err != nil {
		return err
	}
	if rd.StartDate.IsZero() {
		return fmt.Errorf("%w: start date cannot be zero", ErrInvalidInput)
	}
	if !rd.EndDate.IsZero() && rd.EndDate.Before(rd.StartDate) {
		return fmt.Errorf("%w: end date must not precede start date", ErrInvalidInput)
	}
	return nil
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidInput)
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return fmt.Errorf("%w: due date cannot be zero", ErrInvalidInput)
	}
	if r.IsRecurring {
		if err := r.Frequency.Validate(); err != nil {
			return err
		}
	}
	if r.NotifyBefore < 0 {
		return fmt.Errorf("%w: notify-before days cannot be negative", ErrInvalidInput)
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	return nil
}

// SameCurrency reports whether two currency codes designate the same unit.
// Amounts are only ever summed across compatible currencies; there is no
// conversion anywhere in this codebase.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
