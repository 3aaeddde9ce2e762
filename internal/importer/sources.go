package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// exportDateLayout is the leading stamp on downloaded export file names,
// e.g. 20250611_173908_bbva_cuentas_personales.csv.
const exportDateLayout = "20060102"

// Source binds a family of export files to the account they belong to.
type Source struct {
	Name      string `yaml:"name" validate:"required"`
	Match     string `yaml:"match" validate:"required"`
	Format    string `yaml:"format"`
	AccountID int64  `yaml:"account_id" validate:"gt=0"`
	BankID    int64  `yaml:"bank_id" validate:"gt=0"`
}

var validate = newValidator()

// newValidator reports fields under their yaml names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})

	return v
}

type Manifest struct {
	Sources []Source `yaml:"sources"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return &m, nil
}

func (m *Manifest) Validate() error {
	var errs []error

	seen := make(map[string]bool)

	for i, src := range m.Sources {
		label := strconv.Itoa(i)
		if src.Name != "" {
			label = strconv.Quote(src.Name)
		}

		if seen[src.Name] && src.Name != "" {
			errs = append(errs, fmt.Errorf("source %s: duplicate name", label))
		}

		seen[src.Name] = true

		if err := validate.Struct(src); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return err
			}

			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("source %s: %s", label, describe(fe)))
			}
		}

		if src.Format != "" && src.Format != FormatAuto {
			if _, err := Lookup(src.Format); err != nil {
				errs = append(errs, fmt.Errorf("source %s: %w", label, err))
			}
		}
	}

	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be positive"
	}

	return fe.Field() + " is invalid"
}

// LatestExport returns the newest CSV in dir whose name contains match
// (case-insensitive) and starts with a YYYYMMDD stamp. Same-day files are
// ordered by name, so a trailing HHMMSS stamp breaks the tie.
func LatestExport(dir, match string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading exports dir: %w", err)
	}

	var (
		best     string
		bestDate time.Time
	)

	match = strings.ToLower(match)

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}

		if !strings.Contains(strings.ToLower(name), match) {
			continue
		}

		stamp, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		date, err := time.Parse(exportDateLayout, stamp)
		if err != nil {
			continue
		}

		if best == "" || date.After(bestDate) || (date.Equal(bestDate) && name > best) {
			best, bestDate = name, date
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w: %q in %s", ErrNoExport, match, dir)
	}

	return filepath.Join(dir, best), nil
}
