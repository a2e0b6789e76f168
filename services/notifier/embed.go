package notifier

import (
	"fmt"
	"time"

	"github.com/expirehq/domain-monitor/internal/models"
	"github.com/expirehq/domain-monitor/internal/utils"
)

const (
	colorGreen = 65280
	colorRed   = 16711680
	colorBlue  = 3447003

	footerText = "Domain Monitor"
)

// Discord-compatible webhook payload.
type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      embedFooter  `json:"footer"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

func availableEmbed(domain *models.Domain) webhookPayload {
	return webhookPayload{
		Embeds: []embed{{
			Title: "Domain available",
			Color: colorGreen,
			Fields: []embedField{
				{Name: "Domain", Value: domain.Domain, Inline: true},
				{Name: "TLD", Value: domain.Tld, Inline: true},
				{Name: "Niche", Value: nicheOrDefault(domain.Niche), Inline: true},
				{Name: "Traffic", Value: formatNumber(domain.Traffic), Inline: true},
				{Name: "Referring Domains", Value: formatNumber(domain.ReferringDomains), Inline: true},
			},
			Footer:    embedFooter{Text: footerText},
			Timestamp: utils.Now().Format(time.RFC3339),
		}},
	}
}

func lostEmbed(domain *models.Domain) webhookPayload {
	timeAvailable := "unknown"
	if domain.LastAvailable != nil {
		delta := utils.Now().Sub(*domain.LastAvailable)
		hours := int(delta.Hours())
		minutes := int(delta.Minutes()) % 60
		timeAvailable = fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return webhookPayload{
		Embeds: []embed{{
			Title:       "Domain lost",
			Description: fmt.Sprintf("The domain **%s** is no longer available.", domain.Domain),
			Color:       colorRed,
			Fields: []embedField{
				{Name: "Domain", Value: domain.Domain, Inline: true},
				{Name: "TLD", Value: domain.Tld, Inline: true},
				{Name: "Niche", Value: nicheOrDefault(domain.Niche), Inline: true},
				{Name: "Time available", Value: timeAvailable, Inline: true},
				{Name: "Traffic", Value: formatNumber(domain.Traffic), Inline: true},
				{Name: "Referring Domains", Value: formatNumber(domain.ReferringDomains), Inline: true},
			},
			Footer:    embedFooter{Text: footerText + " - Watcher stopped"},
			Timestamp: utils.Now().Format(time.RFC3339),
		}},
	}
}

func testEmbed() webhookPayload {
	return webhookPayload{
		Embeds: []embed{{
			Title:       "Test Notification - Domain Monitor",
			Description: "This is a test notification to verify your webhook is working correctly.",
			Color:       colorBlue,
			Fields: []embedField{
				{Name: "Status", Value: "Webhook configured successfully", Inline: false},
			},
			Footer:    embedFooter{Text: footerText + " - Test"},
			Timestamp: utils.Now().Format(time.RFC3339),
		}},
	}
}

func nicheOrDefault(niche string) string {
	if niche == "" {
		return "not set"
	}
	return niche
}

// formatNumber renders an integer with thousands separators, "1,234".
func formatNumber(num int) string {
	if num == 0 {
		return "0"
	}
	sign := ""
	if num < 0 {
		sign = "-"
		num = -num
	}
	digits := fmt.Sprintf("%d", num)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	return sign + string(out)
}
