package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"trade-journal/models"
)

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// formValidator reports errors under the name the field has in the form.
var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return "Select a valid choice."
	case "email":
		return "Enter a valid email address."
	default:
		return "Enter a valid value."
	}
}

// validateForm runs the struct tags of form and collects the failures.
func validateForm(form interface{}) FieldErrors {
	errs := FieldErrors{}
	err := formValidator.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), validationMessage(fe))
	}
	return errs
}

// entryDateLayouts are accepted for entry_date, datetime-local first.
var entryDateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"}

const entryDateInput = "2006-01-02T15:04"

// TradeForm is the trade create and edit form as submitted.
type TradeForm struct {
	Symbol     string `form:"symbol" validate:"required,max=20"`
	EntryDate  string `form:"entry_date" validate:"required"`
	Status     string `form:"status" validate:"required,oneof=OPEN CLOSED"`
	EntryPrice string `form:"entry_price" validate:"required"`
	Quantity   string `form:"quantity" validate:"required"`
	PnL        string `form:"pnl"`
	Strategy   string `form:"strategy"`
	Notes      string `form:"notes"`
}

// NewTradeForm prefills a form for a fresh trade.
func NewTradeForm(now time.Time) TradeForm {
	return TradeForm{EntryDate: now.Format(entryDateInput), Status: string(models.StatusOpen)}
}

// TradeFormFrom prefills the edit form.
func TradeFormFrom(t *models.Trade) TradeForm {
	f := TradeForm{
		Symbol:     t.Symbol,
		EntryDate:  t.EntryDate.Format(entryDateInput),
		Status:     string(t.Status),
		EntryPrice: t.EntryPrice.String(),
		Quantity:   t.Quantity.String(),
		Notes:      t.Notes,
	}
	if t.PnL != nil {
		f.PnL = t.PnL.String()
	}
	if t.StrategyID != nil {
		f.Strategy = strconv.FormatUint(uint64(*t.StrategyID), 10)
	}
	return f
}

func (f *TradeForm) normalize() {
	f.Symbol = strings.ToUpper(strings.TrimSpace(f.Symbol))
	f.EntryDate = strings.TrimSpace(f.EntryDate)
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	f.EntryPrice = strings.TrimSpace(f.EntryPrice)
	f.Quantity = strings.TrimSpace(f.Quantity)
	f.PnL = strings.TrimSpace(f.PnL)
	f.Strategy = strings.TrimSpace(f.Strategy)
}

// Apply validates the form and copies it onto trade. strategies are the
// caller's own; any other strategy id is rejected. trade is only modified
// when there are no errors.
func (f *TradeForm) Apply(trade *models.Trade, strategies []models.Strategy) FieldErrors {
	f.normalize()
	errs := validateForm(f)

	var entryDate time.Time
	if f.EntryDate != "" {
		var ok bool
		for _, layout := range entryDateLayouts {
			if d, err := time.ParseInLocation(layout, f.EntryDate, time.UTC); err == nil {
				entryDate, ok = d, true
				break
			}
		}
		if !ok {
			errs.Add("entry_date", "Enter a valid date/time.")
		}
	}

	entryPrice := positiveDecimal(errs, "entry_price", f.EntryPrice)
	quantity := positiveDecimal(errs, "quantity", f.Quantity)

	var pnl *decimal.Decimal
	if f.PnL != "" {
		d, err := decimal.NewFromString(f.PnL)
		switch {
		case err != nil:
			errs.Add("pnl", "Enter a number.")
		case models.TradeStatus(f.Status) == models.StatusOpen:
			errs.Add("pnl", "P&L can only be recorded on a closed trade.")
		default:
			pnl = &d
		}
	}

	var strategyID *uint
	if f.Strategy != "" {
		strategyID = ownedStrategy(strategies, f.Strategy)
		if strategyID == nil {
			errs.Add("strategy", "Select a valid choice. That choice is not one of the available choices.")
		}
	}

	if len(errs) > 0 {
		return errs
	}

	trade.Symbol = f.Symbol
	trade.EntryDate = entryDate
	trade.Status = models.TradeStatus(f.Status)
	trade.EntryPrice = entryPrice
	trade.Quantity = quantity
	trade.PnL = pnl
	trade.StrategyID = strategyID
	trade.Strategy = nil
	trade.Notes = f.Notes
	return nil
}

func positiveDecimal(errs FieldErrors, field, raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add(field, "Enter a number.")
		return decimal.Zero
	}
	if !d.IsPositive() {
		errs.Add(field, "Ensure this value is greater than 0.")
	}
	return d
}

func ownedStrategy(strategies []models.Strategy, raw string) *uint {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	for _, s := range strategies {
		if uint64(s.ID) == id {
			sid := s.ID
			return &sid
		}
	}
	return nil
}

// StrategyForm is the strategy create form.
type StrategyForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description"`
}

func (f *StrategyForm) Validate() FieldErrors {
	f.Name = strings.TrimSpace(f.Name)
	return validateForm(f)
}
