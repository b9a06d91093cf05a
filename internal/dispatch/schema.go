package dispatch

import (
	"strconv"
	"strings"

	"github.com/edgard/wooadminbot/internal/apperr"
)

// Separator selects how a raw argument string is split into fields.
type Separator int

const (
	// SepNone keeps the whole string as a single field.
	SepNone Separator = iota
	// SepPipe splits on "|".
	SepPipe
	// SepWhitespace splits on runs of whitespace.
	SepWhitespace
	// SepColon splits on ":".
	SepColon
	// SepLines splits on newlines.
	SepLines
	// SepLastToken splits off the last whitespace-separated token when it
	// contains a digit. "Red Shirt -10%" becomes "Red Shirt" and "-10%".
	SepLastToken
)

func (s Separator) joiner() string {
	switch s {
	case SepPipe:
		return " | "
	case SepColon:
		return ":"
	case SepLines:
		return "\n"
	default:
		return " "
	}
}

// Kind is the type a field is parsed into.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDecimal
	KindPriceChange
	// KindText is free text. As the last field it absorbs surplus segments.
	KindText
)

// Field describes one positional argument.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
}

// Schema describes the arguments of an operation.
type Schema struct {
	Separator Separator
	Fields    []Field
	// Usage is the message returned when a required field is missing.
	Usage string
}

// Grammar renders the schema for help text and the classifier catalog,
// e.g. "שם | תיאור | מחיר [| כמות]".
func (s Schema) Grammar() string {
	if len(s.Fields) == 0 {
		return "(ללא פרמטרים)"
	}
	sep := s.Separator.joiner()
	if s.Separator == SepLines {
		sep = " ⏎ "
	}
	var b strings.Builder
	for i, f := range s.Fields {
		switch {
		case i == 0 && f.Required:
			b.WriteString(f.Label)
		case i == 0:
			b.WriteString("[" + f.Label + "]")
		case f.Required:
			b.WriteString(sep + f.Label)
		default:
			b.WriteString(" [" + strings.TrimLeft(sep, " ") + f.Label + "]")
		}
	}
	return b.String()
}

// PriceChange is either an absolute price or a signed percentage.
type PriceChange struct {
	Percent bool
	Value   float64
}

// Apply returns the new price for current.
func (c PriceChange) Apply(current float64) float64 {
	if c.Percent {
		return current * (1 + c.Value/100)
	}
	return c.Value
}

// Args holds parsed field values by name.
type Args map[string]any

// Has reports whether name was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

func (a Args) Decimal(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

func (a Args) PriceChange(name string) PriceChange {
	v, _ := a[name].(PriceChange)
	return v
}

// Parse splits raw according to the schema and converts each field to its
// kind. Empty segments count as missing.
func Parse(schema Schema, raw string) (Args, error) {
	segs := split(schema.Separator, strings.TrimSpace(raw))
	args := Args{}

	// Only a trailing text field may take surplus segments.
	if n := len(schema.Fields); n > 0 && len(segs) > n && schema.Fields[n-1].Kind != KindText {
		if len(nonEmpty(segs[n:])) > 0 {
			return nil, apperr.Validation("%s", schema.Usage)
		}
	}

	for i, f := range schema.Fields {
		var value string
		if i < len(segs) {
			value = segs[i]
			if i == len(schema.Fields)-1 && f.Kind == KindText && len(segs) > len(schema.Fields) {
				value = strings.Join(nonEmpty(segs[i:]), schema.Separator.joiner())
			}
		}
		value = strings.TrimSpace(value)

		if value == "" {
			if f.Required {
				return nil, apperr.Validation("%s", schema.Usage)
			}
			continue
		}

		v, err := convert(f, value)
		if err != nil {
			return nil, err
		}
		args[f.Name] = v
	}
	return args, nil
}

func split(sep Separator, raw string) []string {
	if raw == "" {
		return nil
	}
	var segs []string
	switch sep {
	case SepPipe:
		segs = strings.Split(raw, "|")
	case SepWhitespace:
		segs = strings.Fields(raw)
	case SepColon:
		segs = strings.Split(raw, ":")
	case SepLines:
		segs = strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	case SepLastToken:
		i := strings.LastIndexAny(raw, " \t")
		if i < 0 {
			segs = []string{raw}
			break
		}
		if last := raw[i+1:]; strings.ContainsAny(last, "0123456789") {
			segs = []string{raw[:i], last}
		} else {
			segs = []string{raw}
		}
	default:
		segs = []string{raw}
	}
	for i := range segs {
		segs[i] = strings.TrimSpace(segs[i])
	}
	return segs
}

func nonEmpty(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func convert(f Field, value string) (any, error) {
	switch f.Kind {
	case KindInt:
		n, err := strconv.Atoi(stripCurrency(value))
		if err != nil {
			return nil, apperr.Validation("%s חייב להיות מספר", f.Label)
		}
		return n, nil
	case KindDecimal:
		n, err := parseDecimal(value)
		if err != nil {
			return nil, apperr.Validation("%s חייב להיות מספר", f.Label)
		}
		return n, nil
	case KindPriceChange:
		c, err := parsePriceChange(value)
		if err != nil {
			return nil, apperr.Validation("%s חייב להיות מספר", f.Label)
		}
		return c, nil
	default:
		return value, nil
	}
}

// parsePriceChange accepts "90", "₪90", "-10%" and "+5%". A percentage with
// no sign is a discount.
func parsePriceChange(value string) (PriceChange, error) {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "%") {
		v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
		n, err := strconv.ParseFloat(strings.TrimPrefix(v, "+"), 64)
		if err != nil {
			return PriceChange{}, err
		}
		if !strings.HasPrefix(v, "+") && !strings.HasPrefix(v, "-") {
			n = -n
		}
		return PriceChange{Percent: true, Value: n}, nil
	}
	n, err := parseDecimal(v)
	if err != nil {
		return PriceChange{}, err
	}
	return PriceChange{Value: n}, nil
}

func parseDecimal(value string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(stripCurrency(value), ",", ""), 64)
}

var currencyMarks = []string{"₪", `ש"ח`, "ש״ח", "שקלים", "שקל", "ILS"}

func stripCurrency(value string) string {
	v := value
	for _, m := range currencyMarks {
		v = strings.ReplaceAll(v, m, "")
	}
	return strings.TrimSpace(v)
}
