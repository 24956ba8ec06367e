package model

import (
	"time"
)

// IntakeStep is the field an intake is currently collecting.
type IntakeStep string

// Steps in collection order. StepComplete holds a record whose fields are all
// collected but whose delivery has not succeeded yet.
const (
	StepName              IntakeStep = "name"
	StepNationalID        IntakeStep = "national_id"
	StepEmail             IntakeStep = "email"
	StepPhone             IntakeStep = "phone"
	StepContactPreference IntakeStep = "contact_preference"
	StepMessage           IntakeStep = "message"
	StepComplete          IntakeStep = "complete"
)

var stepOrder = []IntakeStep{
	StepName,
	StepNationalID,
	StepEmail,
	StepPhone,
	StepContactPreference,
	StepMessage,
	StepComplete,
}

// Next returns the step after s. StepComplete is terminal.
func (s IntakeStep) Next() IntakeStep {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return StepComplete
}

// Valid reports whether s is a known step.
func (s IntakeStep) Valid() bool {
	for _, step := range stepOrder {
		if step == s {
			return true
		}
	}
	return false
}

// IntakeRecord is the in-progress lead form of one conversation.
type IntakeRecord struct {
	Step            IntakeStep `json:"step"`
	Name            string     `json:"name,omitempty"`
	NationalID      string     `json:"national_id,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	PrefersWhatsApp bool       `json:"prefers_whatsapp"`
	Message         string     `json:"message,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	Attempts        int        `json:"attempts,omitempty"`
	// LeadID is assigned when all fields are collected and kept across
	// delivery attempts.
	LeadID string `json:"lead_id,omitempty"`
	// Delivered marks a record whose lead was sent but which could not be
	// deleted afterwards. It counts as no intake.
	Delivered bool `json:"delivered,omitempty"`
}

// NewIntakeRecord returns a record positioned at the first step.
func NewIntakeRecord(now time.Time) *IntakeRecord {
	return &IntakeRecord{Step: StepName, StartedAt: now}
}

// Lead converts a completed record into a Lead for the given conversation.
func (r *IntakeRecord) Lead(key ConversationKey, id string, now time.Time) *Lead {
	return &Lead{
		ID:              id,
		Channel:         key.Channel,
		ConversationID:  key.ID,
		Name:            r.Name,
		NationalID:      r.NationalID,
		Email:           r.Email,
		Phone:           r.Phone,
		PrefersWhatsApp: r.PrefersWhatsApp,
		Message:         r.Message,
		CapturedAt:      now,
	}
}
