/*
holiday.go - Company holiday registry

PURPOSE:
  Create, update, delete and bulk-import company holidays with duplicate
  detection.

DUPLICATE RULE:
  Two holidays are duplicates when their normalized names match AND their
  dates match exactly. Normalization lowercases, trims and collapses inner
  whitespace, so "Año Nuevo " and "año  nuevo" collide. The upstream system
  used a looser startsWith heuristic for imports; exact-after-normalization
  is the deliberate simplification here (see DESIGN.md).

IMPORT SEMANTICS:
  BulkImport skips duplicates (against the registry and against earlier
  candidates in the same batch) and keeps going; any other failure aborts
  the remaining batch and reports counts so far.
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NormalizeHolidayName canonicalizes a name for duplicate comparison.
func NormalizeHolidayName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// HolidayRegistry manages the company holiday calendar.
type HolidayRegistry struct {
	store Store
}

func NewHolidayRegistry(store Store) *HolidayRegistry {
	return &HolidayRegistry{store: store}
}

func (hr *HolidayRegistry) validate(in NewHoliday) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "required"}
	}
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown holiday type %q", in.Type)}
	}
	return nil
}

// Create adds a holiday. Fails with DuplicateHolidayError on a
// normalized-name+date collision. Requires CanManageHolidays.
func (hr *HolidayRegistry) Create(ctx context.Context, session Session, in NewHoliday) (*Holiday, error) {
	if !session.Caps.CanManageHolidays {
		return nil, fmt.Errorf("create holiday: %w", ErrForbidden)
	}
	if err := hr.validate(in); err != nil {
		return nil, err
	}

	existing, err := hr.store.FindHolidayByNameDate(ctx, NormalizeHolidayName(in.Name), in.Date)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateHolidayError{Name: in.Name, Date: in.Date}
	}

	holiday := Holiday{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Date:        in.Date,
		Type:        in.Type,
		IsMandatory: in.IsMandatory,
		CreatedBy:   session.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := hr.store.SaveHoliday(ctx, holiday); err != nil {
		return nil, fmt.Errorf("save holiday: %w", err)
	}
	return &holiday, nil
}

// Update edits a holiday. The duplicate check excludes the record itself.
func (hr *HolidayRegistry) Update(ctx context.Context, session Session, id string, in NewHoliday) (*Holiday, error) {
	if !session.Caps.CanManageHolidays {
		return nil, fmt.Errorf("update holiday: %w", ErrForbidden)
	}
	if err := hr.validate(in); err != nil {
		return nil, err
	}

	holiday, err := hr.store.GetHoliday(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load holiday: %w", err)
	}
	if holiday == nil {
		return nil, &NotFoundError{Kind: "holiday", ID: id}
	}

	existing, err := hr.store.FindHolidayByNameDate(ctx, NormalizeHolidayName(in.Name), in.Date)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil && existing.ID != id {
		return nil, &DuplicateHolidayError{Name: in.Name, Date: in.Date}
	}

	holiday.Name = strings.TrimSpace(in.Name)
	holiday.Date = in.Date
	holiday.Type = in.Type
	holiday.IsMandatory = in.IsMandatory
	if err := hr.store.SaveHoliday(ctx, *holiday); err != nil {
		return nil, fmt.Errorf("save holiday: %w", err)
	}
	return holiday, nil
}

// Delete removes a holiday unconditionally. Holidays and leave requests are
// independent, so no referential checks apply.
func (hr *HolidayRegistry) Delete(ctx context.Context, session Session, id string) error {
	if !session.Caps.CanManageHolidays {
		return fmt.Errorf("delete holiday: %w", ErrForbidden)
	}
	holiday, err := hr.store.GetHoliday(ctx, id)
	if err != nil {
		return fmt.Errorf("load holiday: %w", err)
	}
	if holiday == nil {
		return &NotFoundError{Kind: "holiday", ID: id}
	}
	return hr.store.DeleteHoliday(ctx, id)
}

// List returns all holidays ordered by date.
func (hr *HolidayRegistry) List(ctx context.Context) ([]Holiday, error) {
	return hr.store.ListHolidays(ctx)
}

// ImportSummary reports a bulk import outcome.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// BulkImport inserts candidates, skipping duplicates. A validation or store
// failure aborts the remainder; the summary reflects work done so far.
func (hr *HolidayRegistry) BulkImport(ctx context.Context, session Session, candidates []NewHoliday) (ImportSummary, error) {
	summary := ImportSummary{}
	if !session.Caps.CanManageHolidays {
		return summary, fmt.Errorf("import holidays: %w", ErrForbidden)
	}

	type nameDate struct {
		name string
		date string
	}
	seen := make(map[nameDate]bool, len(candidates))

	for _, in := range candidates {
		if err := hr.validate(in); err != nil {
			return summary, err
		}

		key := nameDate{name: NormalizeHolidayName(in.Name), date: in.Date.String()}
		if seen[key] {
			summary.Skipped++
			continue
		}

		existing, err := hr.store.FindHolidayByNameDate(ctx, key.name, in.Date)
		if err != nil {
			return summary, fmt.Errorf("duplicate check: %w", err)
		}
		if existing != nil {
			seen[key] = true
			summary.Skipped++
			continue
		}

		holiday := Holiday{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(in.Name),
			Date:        in.Date,
			Type:        in.Type,
			IsMandatory: in.IsMandatory,
			CreatedBy:   session.UserID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := hr.store.SaveHoliday(ctx, holiday); err != nil {
			return summary, fmt.Errorf("save holiday %q: %w", in.Name, err)
		}
		seen[key] = true
		summary.Imported++
	}

	return summary, nil
}

// DefaultHolidays returns the built-in national set for a year. Fed through
// BulkImport duplicates are skipped, so calling it twice is harmless.
func DefaultHolidays(year int) []NewHoliday {
	fixed := []struct {
		name  string
		month time.Month
		day   int
	}{
		{"Año Nuevo", time.January, 1},
		{"Epifanía del Señor", time.January, 6},
		{"Fiesta del Trabajo", time.May, 1},
		{"Asunción de la Virgen", time.August, 15},
		{"Fiesta Nacional", time.October, 12},
		{"Todos los Santos", time.November, 1},
		{"Día de la Constitución", time.December, 6},
		{"Inmaculada Concepción", time.December, 8},
		{"Navidad", time.December, 25},
	}

	holidays := make([]NewHoliday, 0, len(fixed))
	for _, f := range fixed {
		holidays = append(holidays, NewHoliday{
			Name:        f.name,
			Date:        NewDate(year, f.month, f.day),
			Type:        HolidayNational,
			IsMandatory: true,
		})
	}
	return holidays
}
