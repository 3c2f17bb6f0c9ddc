package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"folio/api/internal/portfolio"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type contactView struct {
	ContactRequest
	MethodLabel string
	MethodColor string
	ReplyVia    string
	ReceivedAt  string
}

func newContactView(r ContactRequest, now time.Time) contactView {
	v := contactView{
		ContactRequest: r,
		MethodLabel:    "📧 Email",
		MethodColor:    "#3b82f6",
		ReplyVia:       "via email",
		ReceivedAt:     now.In(ist).Format("02/01/2006, 3:04:05 pm") + " IST",
	}
	switch r.ContactMethod {
	case portfolio.MethodSMS:
		v.MethodLabel, v.MethodColor, v.ReplyVia = "📱 SMS", "#10b981", "via SMS"
	case portfolio.MethodCall:
		v.MethodLabel, v.MethodColor, v.ReplyVia = "📞 Call", "#f59e0b", "with a phone call"
	}
	return v
}

func displaySubject(r ContactRequest) string {
	if r.Subject == "" {
		return "Contact Form Submission"
	}
	return r.Subject
}

func notificationSubject(r ContactRequest) string {
	return "🌟 New Portfolio Contact: " + displaySubject(r)
}

func renderContactNotification(r ContactRequest, now time.Time) (Message, error) {
	v := newContactView(r, now)
	html, err := renderTemplate(contactNotificationHTML, v)
	if err != nil {
		return Message{}, fmt.Errorf("render contact notification: %w", err)
	}
	text, err := renderText(contactNotificationText, v)
	if err != nil {
		return Message{}, fmt.Errorf("render contact notification: %w", err)
	}
	return Message{Subject: notificationSubject(r), Text: text, HTML: html}, nil
}

func renderContactConfirmation(r ContactRequest) (Message, error) {
	v := newContactView(r, time.Time{})
	html, err := renderTemplate(contactConfirmationHTML, v)
	if err != nil {
		return Message{}, fmt.Errorf("render contact confirmation: %w", err)
	}
	return Message{
		Subject: "✅ Message Received - " + portfolio.DefaultName + " Portfolio",
		Text:    fmt.Sprintf("Hi %s,\n\nThank you for contacting me. I will get back to you %s as soon as possible.", r.Name, v.ReplyVia),
		HTML:    html,
	}, nil
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(tmpl string, data any) (string, error) {
	t, err := texttemplate.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const contactNotificationText = `New Portfolio Contact Received!

Name: {{.Name}}
Email: {{.Email}}
{{if .Phone}}Phone: {{.Phone}}
{{end}}Preferred Contact: {{.ContactMethod}}

Subject: {{if .Subject}}{{.Subject}}{{else}}No subject provided{{end}}

Message:
{{.Message}}

---
Received at: {{.ReceivedAt}}
`

const contactNotificationHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: white; padding: 30px; border-radius: 10px;">
    <h2 style="color: #667eea;">💼 New Contact from Portfolio Website</h2>
    <div style="background: #f8f9ff; padding: 20px; border-radius: 8px;">
      <h3>Contact Information</h3>
      <p><strong>👤 Name:</strong> {{.Name}}</p>
      <p><strong>📧 Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
      {{if .Phone}}<p><strong>📱 Phone:</strong> <a href="tel:{{.Phone}}">{{.Phone}}</a></p>{{end}}
      <p><strong>💬 Preferred Contact:</strong>
        <span style="background: {{.MethodColor}}; color: white; padding: 3px 8px; border-radius: 12px;">{{.MethodLabel}}</span>
      </p>
    </div>
    <div style="background: #f0f9ff; padding: 20px; border-radius: 8px;">
      <h3>📝 Subject</h3>
      <p>{{if .Subject}}{{.Subject}}{{else}}No subject provided{{end}}</p>
    </div>
    <div style="background: #f9fafb; padding: 20px; border-radius: 8px;">
      <h3>💭 Message</h3>
      <p style="white-space: pre-wrap;">{{.Message}}</p>
    </div>
    <p style="color: #6b7280; font-size: 12px; text-align: center;">📅 Received at: {{.ReceivedAt}}</p>
  </div>
</div>`

const contactConfirmationHTML = `<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">
  <div style="background: white; padding: 25px; border-radius: 10px;">
    <h2 style="color: #667eea; text-align: center;">✅ Message Received!</h2>
    <p>Hi {{.Name}},</p>
    <p>Thank you for contacting me through my portfolio website! I've received your message and will get back to you {{.ReplyVia}} as soon as possible.</p>
    <div style="background: #f0f9ff; padding: 15px; border-radius: 8px;">
      <h3>📋 Your Message Summary:</h3>
      <p><strong>Subject:</strong> {{if .Subject}}{{.Subject}}{{else}}Contact Message{{end}}</p>
      <p><strong>Preferred Response:</strong> {{.MethodLabel}}</p>
    </div>
    <p>Best regards,<br><strong>Kanu Prajapati</strong></p>
  </div>
</div>`
