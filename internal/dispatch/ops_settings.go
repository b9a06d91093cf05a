package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/wooadminbot/internal/woocommerce"
)

func (d *Dispatcher) settingsOps() []Operation {
	return []Operation{
		{
			Name:        "get_store_settings",
			Description: "הצגת הגדרות החנות: מטבע, אמצעי תשלום ושיעורי מס",
			Schema:      Schema{Separator: SepNone},
			Run:         d.storeSettings,
		},
	}
}

func (d *Dispatcher) storeSettings(ctx context.Context, _ Args) (string, error) {
	currency, err := woocommerce.Get[woocommerce.Setting](ctx, d.deps.Client, "settings/general/woocommerce_currency", nil)
	if err != nil {
		return "", err
	}
	gateways, err := woocommerce.Get[[]woocommerce.PaymentGateway](ctx, d.deps.Client, "payment_gateways", nil)
	if err != nil {
		return "", err
	}
	taxes, err := woocommerce.Get[[]woocommerce.TaxRate](ctx, d.deps.Client, "taxes", nil)
	if err != nil {
		return "", err
	}

	lines := []string{"הגדרות החנות:", "מטבע: " + orDash(currency.Value), "\nאמצעי תשלום פעילים:"}
	active := 0
	for _, g := range gateways {
		if g.Enabled {
			lines = append(lines, "- "+g.Title)
			active++
		}
	}
	if active == 0 {
		lines = append(lines, "- אין")
	}

	lines = append(lines, "\nשיעורי מס:")
	if len(taxes) == 0 {
		lines = append(lines, "- אין")
	}
	for _, t := range taxes {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s%%", orDash(t.Name), orDash(t.Country), t.Rate))
	}
	return strings.Join(lines, "\n"), nil
}
