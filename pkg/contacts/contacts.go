// Package contacts loads and validates the recipient list.
package contacts

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"greetsend/pkg/errors"
)

// Required column names, matched exactly against the header row.
const (
	ColumnName      = "Name"
	ColumnPhone     = "PhoneNumber"
	ColumnImageFile = "ImageFile"
)

// RequiredColumns lists the header columns every contact file must have
var RequiredColumns = []string{ColumnName, ColumnPhone, ColumnImageFile}

// Rejection reasons
const (
	ReasonMissingData    = "missing essential data"
	ReasonNameEmpty      = "Name is empty"
	ReasonPhoneNoPlus    = "Phone does not start with '+'"
	ReasonPhoneNonDigits = "Phone contains non-digit characters after '+'"
	ReasonPhoneEmpty     = "Phone is empty"
	ReasonImageFileEmpty = "ImageFile is empty"
)

var (
	// ErrContactsNotFound is wrapped when the contact file does not exist
	ErrContactsNotFound = stderrors.New("contacts file not found")
	// ErrMissingColumns is wrapped when the header lacks a required column
	ErrMissingColumns = stderrors.New("missing required columns")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record is a validated contact
type Record struct {
	Line      int    `json:"line"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ImageFile string `json:"image_file"`
}

// Rejection describes a row that failed validation
type Rejection struct {
	Line    int               `json:"line"`
	Reasons []string          `json:"reasons"`
	Raw     map[string]string `json:"raw"`
}

// Result is the outcome of loading a contact file. Records and Rejected
// both keep file order.
type Result struct {
	Records  []Record
	Rejected []Rejection
}

// Options controls how the file is parsed
type Options struct {
	// Delimiter separates fields; zero means ','
	Delimiter rune
	// Comment starts a line that is ignored; zero disables comments
	Comment rune
}

// Load reads a delimited contact file. A missing file, a header without the
// required columns, or malformed CSV is returned as an input error. Rows
// that fail validation are collected in Result.Rejected.
func Load(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrorTypeInput,
				fmt.Sprintf("contacts file '%s' not found; create it with columns %s, saved as UTF-8",
					path, strings.Join(RequiredColumns, ", ")),
				ErrContactsNotFound)
		}
		return nil, errors.Wrap(errors.ErrorTypeInput, fmt.Sprintf("failed to read contacts file '%s'", path), err)
	}

	return Parse(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), opts)
}

// Parse reads contacts from r; see Load
func Parse(r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.Comment = opts.Comment
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrorTypeInput,
			"contacts file is missing required column(s): "+strings.Join(RequiredColumns, ", "),
			ErrMissingColumns)
	}
	if err != nil {
		return nil, malformed(err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(errors.ErrorTypeInput,
			"contacts file is missing required column(s): "+strings.Join(missing, ", "),
			ErrMissingColumns)
	}

	result := &Result{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		line, _ := reader.FieldPos(0)

		raw := make(map[string]string, len(header))
		for col, i := range index {
			if i < len(row) {
				raw[col] = row[i]
			}
		}

		rec, reasons := validateRow(raw)
		if len(reasons) > 0 {
			result.Rejected = append(result.Rejected, Rejection{Line: line, Reasons: reasons, Raw: raw})
			continue
		}
		rec.Line = line
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func malformed(err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return errors.Wrap(errors.ErrorTypeInput,
			fmt.Sprintf("malformed contacts file around line %d; check the delimiter and that the file is valid UTF-8", pe.Line),
			err)
	}
	return errors.Wrap(errors.ErrorTypeInput, "malformed contacts file", err)
}

// validateRow applies the per-row rules. A field that is absent or empty
// before trimming rejects the row outright; otherwise every failed rule
// contributes its own reason.
func validateRow(raw map[string]string) (Record, []string) {
	name, phone, image := raw[ColumnName], raw[ColumnPhone], raw[ColumnImageFile]
	if name == "" || phone == "" || image == "" {
		return Record{}, []string{ReasonMissingData}
	}

	rec := Record{
		Name:      strings.TrimSpace(name),
		Phone:     NormalizePhone(phone),
		ImageFile: strings.TrimSpace(image),
	}

	var reasons []string
	if rec.Name == "" {
		reasons = append(reasons, ReasonNameEmpty)
	}
	reasons = append(reasons, phoneReasons(rec.Phone)...)
	if rec.ImageFile == "" {
		reasons = append(reasons, ReasonImageFileEmpty)
	}
	return rec, reasons
}

func phoneReasons(phone string) []string {
	var reasons []string
	if !strings.HasPrefix(phone, "+") {
		reasons = append(reasons, ReasonPhoneNoPlus)
	}
	rest := phone
	if len(rest) > 0 {
		rest = rest[1:]
	}
	if !allDigits(rest) {
		reasons = append(reasons, ReasonPhoneNonDigits)
	}
	if phone == "" {
		reasons = append(reasons, ReasonPhoneEmpty)
	}
	return reasons
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidatePhone checks that phone, after NormalizePhone, is '+' followed by
// one or more digits
func ValidatePhone(phone string) error {
	phone = NormalizePhone(phone)
	if reasons := phoneReasons(phone); len(reasons) > 0 {
		return errors.New(errors.ErrorTypeRecipient, fmt.Sprintf("invalid phone %q: %s", phone, strings.Join(reasons, ", ")))
	}
	return nil
}

// digitZeros are the zero code points of the decimal digit blocks that
// phone exports in Arabic, Persian and Urdu locales use, plus fullwidth
var digitZeros = []rune{
	'\u0660', // Arabic-Indic
	'\u06F0', // Extended Arabic-Indic
	'\u0966', // Devanagari
	'\uFF10', // Fullwidth
}

// NormalizePhone trims phone, drops the bidi marks that right-to-left
// editors insert, and rewrites Arabic-Indic, Persian, Devanagari and
// fullwidth digits as ASCII. Other characters are left for validation to
// reject.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		switch r {
		case '\u200E', '\u200F', '\u061C', '\u202A', '\u202B', '\u202C', '\u202D', '\u202E':
			continue
		case '\uFF0B':
			r = '+'
		}
		for _, zero := range digitZeros {
			if r >= zero && r <= zero+9 {
				r = '0' + (r - zero)
				break
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Digits returns the phone number without its leading '+'
func Digits(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}
