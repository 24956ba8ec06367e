package model

import (
	"time"
)

// Lead is a completed intake ready for delivery.
type Lead struct {
	ID              string         `json:"id"`
	Channel         Channel        `json:"channel"`
	ConversationID  ConversationID `json:"conversation_id"`
	Name            string         `json:"name"`
	NationalID      string         `json:"national_id"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	PrefersWhatsApp bool           `json:"prefers_whatsapp"`
	Message         string         `json:"message"`
	CapturedAt      time.Time      `json:"captured_at"`
}

// ContactRequest is the body of POST /api/contacto.
type ContactRequest struct {
	Nombre      string `json:"nombre"`
	Rut         string `json:"rut"`
	Correo      string `json:"correo"`
	Telefono    string `json:"telefono"`
	Preferencia string `json:"preferencia"`
	Mensaje     string `json:"mensaje"`
}

// ContactResponse is the response of POST /api/contacto.
type ContactResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
