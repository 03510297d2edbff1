package catalog

import (
	"time"

	"github.com/KaramelBytes/vma-cli/internal/vma"
)

// Variable is one VMA source tracked by a catalog, with optional per-variable
// overrides of the statistics settings. Nil fields inherit from the caller.
type Variable struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Sheet       string    `json:"sheet,omitempty"`
	Units       string    `json:"units,omitempty"`
	Rows        int       `json:"rows"`
	AddedAt     time.Time `json:"added_at"`

	LowSD          *float64 `json:"low_sd,omitempty"`
	HighSD         *float64 `json:"high_sd,omitempty"`
	Discard        *float64 `json:"discard_multiplier,omitempty"`
	StatCorrection *bool    `json:"stat_correction,omitempty"`
	UseWeight      *bool    `json:"use_weight,omitempty"`
}

// Options merges the variable's source and overrides onto base.
func (v *Variable) Options(base vma.Options) vma.Options {
	opt := base
	opt.Path = v.Path
	opt.Reader = nil
	opt.SheetName = v.Sheet
	if v.LowSD != nil {
		opt.LowSD = *v.LowSD
	}
	if v.HighSD != nil {
		opt.HighSD = *v.HighSD
	}
	if v.Discard != nil {
		opt.DiscardMultiplier = *v.Discard
	}
	if v.StatCorrection != nil {
		opt.StatCorrection = *v.StatCorrection
	}
	if v.UseWeight != nil {
		opt.UseWeight = *v.UseWeight
	}
	return opt
}
