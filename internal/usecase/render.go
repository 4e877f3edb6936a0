// File: internal/usecase/render.go
package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"skyline-store/internal/domain/model"
)

// Payloads are rendered once, at enqueue time, and stored on the job.
// Template edits therefore never rewrite messages already queued or sent.

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a2e; max-width: 560px; margin: 0 auto;">
  <h2>Thanks for your purchase, {{.CustomerName}}!</h2>
  <p>Your order <strong>{{.OrderNumber}}</strong> is confirmed.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 6px 0;">Product</td><td align="right">{{.ProductName}}</td></tr>
    <tr><td style="padding: 6px 0;">Duration</td><td align="right">{{.Duration}}</td></tr>
    <tr><td style="padding: 6px 0;">Total</td><td align="right"><strong>{{.Amount}}</strong></td></tr>
  </table>
  {{if .LicenseKey}}
  <p>Your license key:</p>
  <pre style="background: #f4f4f8; padding: 12px; font-size: 16px;">{{.LicenseKey}}</pre>
  <p>Activate it in the app under Settings &gt; License.</p>
  {{else}}
  <p>Your license key is being prepared and will arrive in a separate email shortly. No action is needed on your side.</p>
  {{end}}
  <p style="color: #888; font-size: 12px;">Skyline Store &middot; order {{.OrderNumber}}</p>
</body>
</html>`))

type receiptData struct {
	CustomerName string
	OrderNumber  string
	ProductName  string
	Duration     string
	Amount       string
	LicenseKey   string
}

// RenderReceiptEmail produces the receipt HTML for an order. licenseKey
// may be empty when the pool was exhausted; the copy adapts.
func RenderReceiptEmail(o *model.Order, licenseKey string) (subject string, body []byte, err error) {
	name := o.CustomerName
	if name == "" {
		name = strings.SplitN(o.CustomerEmail, "@", 2)[0]
	}
	var buf bytes.Buffer
	err = receiptTmpl.Execute(&buf, receiptData{
		CustomerName: name,
		OrderNumber:  o.OrderNumber,
		ProductName:  o.ProductName,
		Duration:     o.Duration,
		Amount:       formatAmount(o.AmountCents, o.Currency),
		LicenseKey:   licenseKey,
	})
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Your Skyline order %s", o.OrderNumber), buf.Bytes(), nil
}

// RenderSaleAlert produces the chat payload for an order. The shape is a
// Discord webhook body with one embed; the Telegram notifier flattens it.
func RenderSaleAlert(o *model.Order, outOfStock bool) ([]byte, error) {
	color := 0x2ecc71
	title := "New sale"
	if outOfStock {
		color = 0xe67e22
		title = "New sale (OUT OF STOCK, manual fulfillment needed)"
	}
	body := map[string]any{
		"embeds": []map[string]any{{
			"title":       title,
			"description": fmt.Sprintf("Order %s", o.OrderNumber),
			"color":       color,
			"fields": []map[string]any{
				{"name": "Product", "value": fmt.Sprintf("%s / %s", o.ProductName, o.Duration), "inline": true},
				{"name": "Amount", "value": formatAmount(o.AmountCents, o.Currency), "inline": true},
				{"name": "Customer", "value": o.CustomerEmail, "inline": false},
			},
			"timestamp": o.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}
	return json.Marshal(body)
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, strings.ToUpper(currency))
}
