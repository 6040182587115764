package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var templates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
	"money": func(amount float64, currency string) string { return fmt.Sprintf("%.2f %s", amount, currency) },
}).Parse(`
{{define "password_reset"}}<p>Hi {{.FullName}},</p>
<p>We received a request to reset your HustlerSync password.</p>
<p><a href="{{.ResetURL}}">Reset your password</a></p>
<p>The link is valid until {{date .ExpiresAt}}. If you did not ask for a reset, ignore this email.</p>{{end}}

{{define "subscription_activated"}}<p>Hi {{.FullName}},</p>
<p>Thank you for subscribing to <b>{{.PlanName}}</b>.</p>
<p>Amount paid: {{money .AmountPaid .Currency}}</p>
<p>Your plan is active until {{date .ExpiresAt}}.</p>
{{if .InvoiceURL}}<p><a href="{{.InvoiceURL}}">View receipt</a></p>{{end}}{{end}}

{{define "subscription_expiring"}}<p>Hi {{.FullName}},</p>
<p>Your <b>{{.PlanName}}</b> subscription expires on {{date .ExpiresAt}}.</p>
<p>Renew it to keep access to HustlerSync features.</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
