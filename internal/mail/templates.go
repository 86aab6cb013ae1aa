package mail

import (
	"fmt"
	"html"
	"strings"
)

// Identity carries the business details printed at the bottom of customer
// email.
type Identity struct {
	CompanyName  string
	CompanyEmail string
	CompanyPhone string
}

// BookingDetails are the booking fields the templates interpolate.
type BookingDetails struct {
	Name      string
	Email     string
	Date      string
	StartTime string
	EndTime   string
	Room      string
	PartySize string
	Notes     string
}

// Confirmation renders the booking confirmation message.
func Confirmation(b BookingDetails, id Identity) Message {
	subject := fmt.Sprintf("Booking confirmed - %s on %s", b.Room, b.Date)

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", b.Name)
	text.WriteString("Your booking has been confirmed. Here are the details:\n\n")
	writeDetails(&text, b)
	text.WriteString("\nWe look forward to seeing you.\n")
	writeSignature(&text, id)

	var htmlBody strings.Builder
	htmlBody.WriteString("<html><body>")
	fmt.Fprintf(&htmlBody, "<p>Dear %s,</p>", html.EscapeString(b.Name))
	htmlBody.WriteString("<p>Your booking has been <strong>confirmed</strong>. Here are the details:</p>")
	writeDetailsHTML(&htmlBody, b)
	htmlBody.WriteString("<p>We look forward to seeing you.</p>")
	writeSignatureHTML(&htmlBody, id)
	htmlBody.WriteString("</body></html>")

	return Message{
		To:       b.Email,
		Subject:  subject,
		Body:     text.String(),
		HTMLBody: htmlBody.String(),
	}
}

// Cancellation renders the booking cancellation message.
func Cancellation(b BookingDetails, id Identity) Message {
	subject := fmt.Sprintf("Booking cancelled - %s on %s", b.Room, b.Date)

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", b.Name)
	text.WriteString("Your booking has been cancelled:\n\n")
	writeDetails(&text, b)
	text.WriteString("\nIf this was unexpected, please contact us and we will be happy to help.\n")
	writeSignature(&text, id)

	var htmlBody strings.Builder
	htmlBody.WriteString("<html><body>")
	fmt.Fprintf(&htmlBody, "<p>Dear %s,</p>", html.EscapeString(b.Name))
	htmlBody.WriteString("<p>Your booking has been <strong>cancelled</strong>:</p>")
	writeDetailsHTML(&htmlBody, b)
	htmlBody.WriteString("<p>If this was unexpected, please contact us and we will be happy to help.</p>")
	writeSignatureHTML(&htmlBody, id)
	htmlBody.WriteString("</body></html>")

	return Message{
		To:       b.Email,
		Subject:  subject,
		Body:     text.String(),
		HTMLBody: htmlBody.String(),
	}
}

func writeDetails(sb *strings.Builder, b BookingDetails) {
	fmt.Fprintf(sb, "  Room:   %s\n", b.Room)
	fmt.Fprintf(sb, "  Date:   %s\n", b.Date)
	fmt.Fprintf(sb, "  Time:   %s - %s\n", b.StartTime, b.EndTime)
	if b.PartySize != "" {
		fmt.Fprintf(sb, "  Guests: %s\n", b.PartySize)
	}
	if b.Notes != "" {
		fmt.Fprintf(sb, "  Notes:  %s\n", b.Notes)
	}
}

func writeDetailsHTML(sb *strings.Builder, b BookingDetails) {
	sb.WriteString("<ul>")
	fmt.Fprintf(sb, "<li><strong>Room:</strong> %s</li>", html.EscapeString(b.Room))
	fmt.Fprintf(sb, "<li><strong>Date:</strong> %s</li>", html.EscapeString(b.Date))
	fmt.Fprintf(sb, "<li><strong>Time:</strong> %s - %s</li>", html.EscapeString(b.StartTime), html.EscapeString(b.EndTime))
	if b.PartySize != "" {
		fmt.Fprintf(sb, "<li><strong>Guests:</strong> %s</li>", html.EscapeString(b.PartySize))
	}
	if b.Notes != "" {
		fmt.Fprintf(sb, "<li><strong>Notes:</strong> %s</li>", html.EscapeString(b.Notes))
	}
	sb.WriteString("</ul>")
}

func writeSignature(sb *strings.Builder, id Identity) {
	sb.WriteString("\nBest regards,\n")
	sb.WriteString(id.CompanyName)
	sb.WriteString("\n")
	if id.CompanyEmail != "" {
		fmt.Fprintf(sb, "%s\n", id.CompanyEmail)
	}
	if id.CompanyPhone != "" {
		fmt.Fprintf(sb, "%s\n", id.CompanyPhone)
	}
}

func writeSignatureHTML(sb *strings.Builder, id Identity) {
	sb.WriteString("<p>Best regards,<br>")
	sb.WriteString(html.EscapeString(id.CompanyName))
	if id.CompanyEmail != "" {
		fmt.Fprintf(sb, "<br>%s", html.EscapeString(id.CompanyEmail))
	}
	if id.CompanyPhone != "" {
		fmt.Fprintf(sb, "<br>%s", html.EscapeString(id.CompanyPhone))
	}
	sb.WriteString("</p>")
}
