package model

import (
	"time"
)

// LeadEventType is the lifecycle stage of a lead.
type LeadEventType string

const (
	LeadEventCaptured       LeadEventType = "captured"
	LeadEventDelivered      LeadEventType = "delivered"
	LeadEventDeliveryFailed LeadEventType = "delivery_failed"
)

// LeadEvent is published to the event stream as a lead moves through delivery.
type LeadEvent struct {
	ID        string        `json:"id"`
	Type      LeadEventType `json:"type"`
	Lead      Lead          `json:"lead"`
	Reason    string        `json:"reason,omitempty"`
	Transport string        `json:"transport,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
