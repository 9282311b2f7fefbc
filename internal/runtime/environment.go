package runtime

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Mode selects which spreadsheet application's behavior is reproduced where
// the applications disagree.
type Mode int

const (
	Excel Mode = iota
	OpenOfficeCalc
)

func (m Mode) String() string {
	switch m {
	case Excel:
		return "excel"
	case OpenOfficeCalc:
		return "openoffice"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a user supplied name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excel", "":
		return Excel, nil
	case "openoffice", "ooo", "calc", "openofficecalc":
		return OpenOfficeCalc, nil
	}
	return Excel, fmt.Errorf("unknown computation mode %q: must be 'excel' or 'openoffice'", s)
}

// DateOrder is the order of the day, month and year fields of a short date.
type DateOrder int

const (
	MDY DateOrder = iota
	DMY
	YMD
)

// Environment carries the locale dependent settings of a computation. It is
// immutable and shared by all computations of an engine.
type Environment struct {
	locale   language.Tag
	location *time.Location
	mode     Mode
	clock    func() time.Time

	decimalSep  rune
	groupingSep rune
	dateOrder   DateOrder
	dateSep     rune
}

// NewEnvironment returns an environment for the locale, time zone and mode.
// A nil location means UTC.
func NewEnvironment(locale language.Tag, location *time.Location, mode Mode) *Environment {
	if location == nil {
		location = time.UTC
	}
	env := &Environment{
		locale:   locale,
		location: location,
		mode:     mode,
		clock:    time.Now,
	}
	env.decimalSep, env.groupingSep = separatorsFor(locale)
	env.dateOrder, env.dateSep = dateFormatFor(locale)
	return env
}

// DefaultEnvironment is US English, UTC, Excel mode.
func DefaultEnvironment() *Environment {
	return NewEnvironment(language.AmericanEnglish, time.UTC, Excel)
}

// WithClock returns a copy of env whose NOW() and TODAY() read clock.
func (env *Environment) WithClock(clock func() time.Time) *Environment {
	c := *env
	c.clock = clock
	return &c
}

func (env *Environment) Locale() language.Tag     { return env.locale }
func (env *Environment) Location() *time.Location { return env.location }
func (env *Environment) Mode() Mode               { return env.mode }
func (env *Environment) DecimalSeparator() rune   { return env.decimalSep }
func (env *Environment) GroupingSeparator() rune  { return env.groupingSep }
func (env *Environment) DateOrder() DateOrder     { return env.dateOrder }

// Now returns the current instant according to the environment's clock.
func (env *Environment) Now() time.Time { return env.clock() }

// Collator returns a case insensitive collator for the locale. Collators are
// not safe for concurrent use, so every caller gets its own.
func (env *Environment) Collator() *collate.Collator {
	return collate.New(env.locale, collate.IgnoreCase)
}

// Upper converts s to upper case under the locale's rules.
func (env *Environment) Upper(s string) string {
	return cases.Upper(env.locale).String(s)
}

// Lower converts s to lower case under the locale's rules.
func (env *Environment) Lower(s string) string {
	return cases.Lower(env.locale).String(s)
}

// Printer returns a message printer for locale aware number output.
func (env *Environment) Printer() *message.Printer {
	return message.NewPrinter(env.locale)
}

// separatorsFor derives the decimal and grouping separators of a locale by
// formatting a probe number.
func separatorsFor(tag language.Tag) (decimalSep, groupingSep rune) {
	probe := message.NewPrinter(tag).Sprint(number.Decimal(1234567.5,
		number.MinFractionDigits(1), number.MaxFractionDigits(1)))
	var seps []rune
	for _, r := range probe {
		if !unicode.IsDigit(r) {
			seps = append(seps, r)
		}
	}
	decimalSep, groupingSep = '.', ','
	if len(seps) > 0 {
		decimalSep = seps[len(seps)-1]
	}
	if len(seps) > 1 {
		groupingSep = seps[0]
		if unicode.IsSpace(groupingSep) {
			groupingSep = ' '
		}
	} else {
		groupingSep = 0
	}
	return decimalSep, groupingSep
}

var dmyDotLanguages = map[string]bool{
	"de": true, "ru": true, "pl": true, "cs": true, "sk": true, "fi": true, "nb": true,
	"no": true, "da": true, "tr": true, "uk": true, "ro": true, "hr": true, "sl": true,
	"et": true, "lv": true, "bg": true, "be": true, "kk": true, "sr": true,
}

var ymdLanguages = map[string]bool{
	"zh": true, "ja": true, "ko": true, "hu": true, "lt": true, "sv": true,
}

var dmyEnglishRegions = map[string]bool{
	"GB": true, "AU": true, "NZ": true, "IE": true, "IN": true, "ZA": true,
}

func dateFormatFor(tag language.Tag) (DateOrder, rune) {
	base, _ := tag.Base()
	region, _ := tag.Region()
	lang := base.String()
	switch {
	case lang == "en":
		if dmyEnglishRegions[region.String()] {
			return DMY, '/'
		}
		return MDY, '/'
	case dmyDotLanguages[lang]:
		return DMY, '.'
	case ymdLanguages[lang]:
		if lang == "sv" || lang == "lt" {
			return YMD, '-'
		}
		return YMD, '/'
	case lang == "nl":
		return DMY, '-'
	default:
		return DMY, '/'
	}
}
