package model

// ActionStartContact is the callback data carried by the contact button.
const ActionStartContact = "iniciar_contacto"

// Chat commands, without the leading slash.
const (
	CommandContact = "quiero_contacto"
	CommandStart   = "inicio"
)

// Action is an inline button offered alongside a reply.
type Action struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// ContactAction returns the button that starts the intake form.
func ContactAction() Action {
	return Action{Label: "📬 Quiero ser contactado", Data: ActionStartContact}
}

// Reply is a transport-neutral outbound message.
type Reply struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// AskRequest is the body of POST /api/ask. Action carries the data of a
// pressed button and replaces Message.
type AskRequest struct {
	Message string `json:"message"`
	IP      string `json:"ip,omitempty"`
	Action  string `json:"action,omitempty"`
}

// AskResponse is the response of POST /api/ask.
type AskResponse struct {
	Reply   string   `json:"reply"`
	Actions []Action `json:"actions,omitempty"`
}
