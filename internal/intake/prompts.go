package intake

import (
	"github.com/academia-artes/course-assistant/internal/model"
)

const (
	// MsgDelivered confirms a successful delivery.
	MsgDelivered = "¡Gracias! Tus datos han sido enviados correctamente. Pronto te contactaremos."
	// MsgDeliveryFailed tells the user their answers were kept for a retry.
	MsgDeliveryFailed = "⚠️ No pudimos enviar tus datos en este momento. Tus respuestas quedaron guardadas: envía cualquier mensaje para reintentar o escribe /quiero_contacto para comenzar de nuevo."
)

var questions = map[model.IntakeStep]string{
	model.StepName:              "Por favor, indícame tu nombre completo.",
	model.StepNationalID:        "Ahora dime tu RUT.",
	model.StepEmail:             "¿Cuál es tu correo electrónico?",
	model.StepPhone:             "¿Cuál es tu número de teléfono (solo números)?",
	model.StepContactPreference: "¿Prefieres que te contacten por WhatsApp? (Sí / No)",
	model.StepMessage:           "Por último, escribe tu mensaje o consulta.",
}

var acknowledgements = map[model.IntakeStep]string{
	model.StepName:              "Gracias.",
	model.StepNationalID:        "Perfecto.",
	model.StepEmail:             "Anotado.",
	model.StepPhone:             "Muy bien.",
	model.StepContactPreference: "Entendido.",
}

var warnings = map[model.IntakeStep]string{
	model.StepName:              "⚠️ Necesito tu nombre para continuar.",
	model.StepNationalID:        "⚠️ El RUT ingresado no parece válido. Intenta nuevamente.",
	model.StepEmail:             "⚠️ El correo ingresado no parece válido. Intenta nuevamente.",
	model.StepPhone:             "⚠️ El número debe tener solo dígitos (mínimo 7, máximo 15). Intenta nuevamente.",
	model.StepContactPreference: `Por favor, responde solo "Sí" o "No".`,
	model.StepMessage:           "⚠️ El mensaje no puede quedar vacío.",
}

// Question returns the prompt for step.
func Question(step model.IntakeStep) string {
	return questions[step]
}

func advancedText(from, to model.IntakeStep) string {
	return acknowledgements[from] + " " + questions[to]
}

func rejectedText(step model.IntakeStep) string {
	return warnings[step] + "\n" + questions[step]
}
