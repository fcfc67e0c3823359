package notifications

import "html/template"

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templatesByName = map[Template]emailTemplate{
	TemplateOrderConfirmation: {
		subject: template.Must(template.New("confirmation_subject").Parse(
			`Order {{.OrderID}} confirmed`)),
		body: template.Must(template.New("confirmation_body").Parse(`
<p>Hi {{.CustomerName}},</p>
<p>Thanks for your order <strong>{{.OrderID}}</strong>.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Qty}}</td><td>{{$.Currency}} {{.UnitPrice}}</td></tr>
{{end}}</table>
<p>Order total: <strong>{{.Currency}} {{.Total}}</strong></p>
<p>Payment status: {{.PaymentStatus}}</p>
`)),
	},
	TemplateStatusUpdate: {
		subject: template.Must(template.New("status_subject").Parse(
			`Order {{.OrderID}} is {{.OrderStatus}}`)),
		body: template.Must(template.New("status_body").Parse(`
<p>Hi {{.CustomerName}},</p>
<p>Your order <strong>{{.OrderID}}</strong> is now <strong>{{.OrderStatus}}</strong>.</p>
{{if .TrackingID}}<p>Tracking: {{.TrackingID}}{{if .TrackingURL}} (<a href="{{.TrackingURL}}">track</a>){{end}}</p>{{end}}
`)),
	},
	TemplateInvoice: {
		subject: template.Must(template.New("invoice_subject").Parse(
			`Invoice for order {{.OrderID}}`)),
		body: template.Must(template.New("invoice_body").Parse(`
<p>Hi {{.CustomerName}},</p>
<p>Invoice for order <strong>{{.OrderID}}</strong>:</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Qty}}</td><td>{{$.Currency}} {{.UnitPrice}}</td></tr>
{{end}}</table>
<p>Amount due: <strong>{{.Currency}} {{.Total}}</strong></p>
`)),
	},
}
