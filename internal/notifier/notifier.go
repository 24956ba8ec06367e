// Package notifier delivers captured leads to the academy's inbox.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/academia-artes/course-assistant/internal/model"
)

// Subject is the subject line of every lead email.
const Subject = "Nuevo mensaje de contacto desde el bot"

// ErrNotConfigured is returned when a transport lacks credentials or a
// destination address.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notifier delivers a lead to a fixed destination.
type Notifier interface {
	Notify(ctx context.Context, lead *model.Lead) error
	// Name identifies the transport in logs and metrics.
	Name() string
}

// FormatBody renders the plain-text email body for a lead.
func FormatBody(lead *model.Lead) string {
	whatsapp := "No"
	if lead.PrefersWhatsApp {
		whatsapp = "Sí"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Nombre: %s\n", lead.Name)
	fmt.Fprintf(&b, "RUT: %s\n", lead.NationalID)
	fmt.Fprintf(&b, "Correo: %s\n", lead.Email)
	fmt.Fprintf(&b, "Teléfono: %s\n", lead.Phone)
	fmt.Fprintf(&b, "¿Prefiere WhatsApp?: %s\n", whatsapp)
	fmt.Fprintf(&b, "Mensaje: %s\n", lead.Message)
	if lead.Channel != "" {
		fmt.Fprintf(&b, "\nCanal: %s (%s)\n", lead.Channel, lead.ConversationID)
	}
	if lead.ID != "" {
		fmt.Fprintf(&b, "Referencia: %s\n", lead.ID)
	}
	return b.String()
}
