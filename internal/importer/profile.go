package importer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

const (
	layoutSpanish  = "02/01/2006"
	layoutDateTime = transaction.DateLayout
	layoutISODate  = "2006-01-02"
	layoutISOMilli = "2006-01-02T15:04:05.000-0700"
)

// Profile describes the column layout of one bank export.
// Adding a new format is just adding a new Profile to the profiles slice.
type Profile struct {
	Name        string
	Description string // human label for listings

	DateCol    string
	DescCol    string
	AmountCol  string
	BalanceCol string // optional
	// CategoryCol feeds the identity hash as a category hint.
	CategoryCol string
	// MergeCol is folded into the description by Merge.
	MergeCol string
	// DiscriminatorCol marks the sub-account when one export mixes several.
	DiscriminatorCol string

	// Optional lists named columns that are read when present but do not
	// take part in matching the header.
	Optional []string

	DateLayouts []string
	Merge       func(desc, extra string) string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p *Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol, p.AmountCol}

	for _, c := range []string{p.BalanceCol, p.CategoryCol, p.MergeCol, p.DiscriminatorCol} {
		if c != "" && !slices.Contains(p.Optional, c) {
			cols = append(cols, c)
		}
	}

	return cols
}

// mergeMoreInfo appends BBVA's extended concept unless it only repeats the
// payment method.
func mergeMoreInfo(desc, more string) string {
	more = strings.TrimSpace(more)
	if more == "" || strings.EqualFold(more, "PAGO CON TARJETA") {
		return desc
	}

	return strings.TrimSpace(desc + " " + more)
}

// mergeMovement appends the historical BBVA movement type when it says more
// than "Otros" or "Pago con tarjeta".
func mergeMovement(desc, movement string) string {
	movement = strings.TrimSpace(movement)
	if movement == "" || strings.Contains(movement, "Otros") || strings.Contains(movement, "Pago con tarjeta") {
		return desc
	}

	return desc + " - " + movement
}

func mergeMerchant(desc, merchant string) string {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return desc
	}

	return desc + " - " + merchant
}

// profiles is the ordered list of formats tried during auto-detection.
// More specific profiles come first to avoid false matches.
var profiles = []Profile{
	{
		Name:        "bbva",
		Description: "BBVA account export (converted, English columns)",
		DateCol:     "date",
		DescCol:     "description",
		AmountCol:   "amount",
		BalanceCol:  "balance",
		CategoryCol: "category",
		MergeCol:    "more_info",
		DateLayouts: []string{layoutDateTime, layoutISODate},
		Merge:       mergeMoreInfo,
	},
	{
		Name:        "scraper",
		Description: "Scraper export (English columns, category and balance when known)",
		DateCol:     "date",
		DescCol:     "description",
		AmountCol:   "amount",
		BalanceCol:  "balance",
		CategoryCol: "category",
		Optional:    []string{"balance", "category"},
		DateLayouts: []string{layoutDateTime, layoutISODate, time.RFC3339, layoutSpanish},
	},
	{
		Name:             "bbva-virtual",
		Description:      "BBVA virtual card export",
		DateCol:          "Fecha",
		DescCol:          "Concepto",
		AmountCol:        "Importe",
		DiscriminatorCol: "Tarjeta",
		DateLayouts:      []string{layoutISOMilli, "2006-01-02T15:04:05Z07:00", layoutSpanish},
	},
	{
		Name:        "bbva-historical",
		Description: "BBVA account movements download",
		DateCol:     "Fecha",
		DescCol:     "Concepto",
		AmountCol:   "Importe",
		BalanceCol:  "Disponible",
		MergeCol:    "Movimiento",
		DateLayouts: []string{layoutSpanish},
		Merge:       mergeMovement,
	},
	{
		Name:        "bbva-basic",
		Description: "BBVA account export without movement type",
		DateCol:     "Fecha",
		DescCol:     "Concepto",
		AmountCol:   "Importe",
		BalanceCol:  "Disponible",
		DateLayouts: []string{layoutSpanish, layoutISODate},
	},
	{
		Name:             "caixa",
		Description:      "CaixaBank activity export",
		DateCol:          "Fecha del movimiento",
		DescCol:          "Comercio",
		AmountCol:        "Importe",
		CategoryCol:      "Concepto",
		DiscriminatorCol: "Cuenta",
		DateLayouts:      []string{layoutSpanish},
	},
	{
		Name:        "ruralvia-virtual",
		Description: "Ruralvia virtual card export",
		DateCol:     "Fecha del movimiento",
		DescCol:     "Concepto",
		AmountCol:   "Importe",
		MergeCol:    "Comercio",
		DateLayouts: []string{layoutSpanish, layoutISODate, layoutDateTime},
		Merge:       mergeMerchant,
	},
	{
		Name:        "ruralvia",
		Description: "Ruralvia account export",
		DateCol:     "Fecha Ejecución",
		DescCol:     "Descripcion",
		AmountCol:   "Importe",
		BalanceCol:  "Saldo",
		DateLayouts: []string{layoutSpanish, layoutISODate, layoutDateTime},
	},
	{
		Name:        "santander",
		Description: "Santander account export",
		DateCol:     "FECHA OPERACIÓN",
		DescCol:     "CONCEPTO",
		AmountCol:   "IMPORTE EUR",
		BalanceCol:  "SALDO",
		DateLayouts: []string{layoutSpanish, layoutISODate},
	},
	{
		Name:        "santander-virtual",
		Description: "Santander card export",
		DateCol:     "FECHA OPERACIÓN",
		DescCol:     "CONCEPTO",
		AmountCol:   "IMPORTE EUR",
		DateLayouts: []string{layoutSpanish, layoutISODate},
	},
}

// Lookup returns the profile registered under name.
func Lookup(name string) (*Profile, error) {
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Profiles lists registered formats in detection order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)

	return out
}

func Names() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}

	return names
}
