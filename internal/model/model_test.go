package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntakeStep_Next(t *testing.T) {
	assert.Equal(t, StepNationalID, StepName.Next())
	assert.Equal(t, StepEmail, StepNationalID.Next())
	assert.Equal(t, StepPhone, StepEmail.Next())
	assert.Equal(t, StepContactPreference, StepPhone.Next())
	assert.Equal(t, StepMessage, StepContactPreference.Next())
	assert.Equal(t, StepComplete, StepMessage.Next())
	assert.Equal(t, StepComplete, StepComplete.Next())
	assert.Equal(t, StepComplete, IntakeStep("bogus").Next())
}

func TestIntakeStep_Valid(t *testing.T) {
	assert.True(t, StepName.Valid())
	assert.True(t, StepComplete.Valid())
	assert.False(t, IntakeStep("").Valid())
	assert.False(t, IntakeStep("rut").Valid())
}

func TestIntakeRecord_Lead(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := NewIntakeRecord(now)
	assert.Equal(t, StepName, rec.Step)

	rec.Name = "Ana"
	rec.Email = "ana@example.cl"
	rec.PrefersWhatsApp = true

	lead := rec.Lead(Key(ChannelWeb, "10.0.0.1"), "lead-1", now)
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, ChannelWeb, lead.Channel)
	assert.Equal(t, ConversationID("10.0.0.1"), lead.ConversationID)
	assert.Equal(t, "Ana", lead.Name)
	assert.True(t, lead.PrefersWhatsApp)
	assert.Equal(t, now, lead.CapturedAt)
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "telegram:123", Key(ChannelTelegram, "123").String())
	assert.NotEqual(t, Key(ChannelTelegram, "1"), Key(ChannelWeb, "1"))
}

func TestContactAction(t *testing.T) {
	a := ContactAction()
	assert.Equal(t, ActionStartContact, a.Data)
	assert.NotEmpty(t, a.Label)
}
