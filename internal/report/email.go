// Package report renders and sends the run summary email: how many novel
// listings landed, a short table of them, and the top-locations analysis.
package report

import (
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/run"
	"jobradar-engine/internal/secrets"
	"jobradar-engine/internal/store"
)

const maxListingsInReport = 10

var bodyTmpl = template.Must(template.New("report").Parse(`<html>
<body>
  <h2>Job Radar run summary</h2>
  <p><strong>Date:</strong> {{.Date}}</p>
  <p><strong>New listings:</strong> {{.Novel}} &nbsp; <strong>Duplicates:</strong> {{.Duplicates}} &nbsp; <strong>Page failures:</strong> {{.FailureCount}}</p>

  {{if .Listings}}
  <h3>Newest listings</h3>
  <table border="1" cellpadding="5" cellspacing="0">
    <tr><th>Title</th><th>Company</th><th>Location</th><th>Source</th></tr>
    {{range .Listings}}
    <tr>
      <td><a href="{{.URL}}">{{.Title}}</a></td>
      <td>{{.Company}}</td>
      <td>{{.Location}}</td>
      <td>{{.Source}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}

  {{if .Locations}}
  <h3>Top locations</h3>
  <ul>
    {{range .Locations}}<li>{{.Location}}: {{.Count}} listings</li>
    {{end}}
  </ul>
  {{end}}
</body>
</html>`))

type Mailer struct {
	Cfg config.Config
}

// SendRunSummary emails the run result. Missing credentials degrade to a
// logged warning, never a failed run.
func (m *Mailer) SendRunSummary(res *run.Result, locations []store.LocationStat) error {
	rc := m.Cfg.Report
	if !rc.Enabled {
		return nil
	}
	if len(rc.Recipients) == 0 {
		log.Printf("[report] enabled but no recipients configured, skipping")
		return nil
	}

	password := rc.Password
	if password == "" {
		pw, err := secrets.GetSMTPPassword(secrets.SMTPKeyringAccount(rc.From, rc.SMTPHost))
		if err != nil {
			log.Printf("[report] %v, skipping summary email", err)
			return nil
		}
		password = pw
	}

	listings := res.NewListings
	if len(listings) > maxListingsInReport {
		listings = listings[:maxListingsInReport]
	}

	var body strings.Builder
	err := bodyTmpl.Execute(&body, map[string]any{
		"Date":         time.Now().Format("2006-01-02 15:04"),
		"Novel":        res.Novel,
		"Duplicates":   res.Duplicates,
		"FailureCount": len(res.Failures),
		"Listings":     listings,
		"Locations":    locations,
	})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	subject := fmt.Sprintf("Job report %s: %d new listings", time.Now().Format("2006-01-02"), res.Novel)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", rc.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(rc.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body.String())

	addr := fmt.Sprintf("%s:%d", rc.SMTPHost, rc.SMTPPort)
	auth := smtp.PlainAuth("", rc.From, password, rc.SMTPHost)
	if err := smtp.SendMail(addr, auth, rc.From, rc.Recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	log.Printf("[report] summary sent to %d recipient(s)", len(rc.Recipients))
	return nil
}
