package dispatch

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes markup from WooCommerce rich-text fields.
func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTag.ReplaceAllString(s, "")))
}

var orderStatuses = map[string]string{
	"pending":    "ממתין לתשלום",
	"processing": "בטיפול",
	"on-hold":    "בהמתנה",
	"completed":  "הושלם",
	"cancelled":  "בוטל",
	"refunded":   "זוכה",
	"failed":     "נכשל",
}

const statusOptions = "pending, processing, on-hold, completed, cancelled, refunded, failed"

func statusHebrew(status string) string {
	if he, ok := orderStatuses[status]; ok {
		return he
	}
	return status
}

// orderStatus accepts an English status slug or its Hebrew name.
func orderStatus(input string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if _, ok := orderStatuses[s]; ok {
		return s, nil
	}
	for slug, he := range orderStatuses {
		if he == s {
			return slug, nil
		}
	}
	return "", apperr.Validation("סטטוס לא חוקי: %s. אפשרויות: %s", input, statusOptions)
}

func dateOnly(s string) string {
	date, _, _ := strings.Cut(s, "T")
	return date
}

func money(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func stockSummary(p woocommerce.Product) string {
	if p.StockStatus == "outofstock" {
		return "אזל מהמלאי"
	}
	if p.ManageStock && p.StockQuantity != nil {
		return fmt.Sprintf("במלאי (%d יחידות)", *p.StockQuantity)
	}
	return "במלאי"
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "לא צוין"
	}
	return s
}

// asNotFound turns a 404 from the store into a NotFoundError.
func asNotFound(err error, kind, query string) error {
	var re *apperr.RemoteError
	if errors.As(err, &re) && !re.Transport && re.Status == 404 {
		return apperr.NotFound(kind, query)
	}
	return err
}

// keyValues parses "key: value" lines. Lines without a colon are skipped.
func keyValues(text string) [][2]string {
	var out [][2]string
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, [2]string{key, value})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
