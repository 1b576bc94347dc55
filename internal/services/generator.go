package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"medichat-backend/internal/session"
)

// AnswerGenerator produces the assistant's reply from the bounded prior
// history, the current message, and a hard language constraint.
type AnswerGenerator interface {
	Generate(ctx context.Context, history []session.Turn, message, language string) (string, error)
}

const generatorInstruction = `Tu es un assistant d'information santé. Tu ne remplaces pas un médecin.
- Ne jamais diagnostiquer avec certitude.
- Pas de prescription, pas de dosage précis.
- Si urgence possible (douleur thoracique, détresse respiratoire, confusion, faiblesse d'un côté, saignement important, réaction allergique sévère, convulsions, aggravation rapide): recommander le 15 ou le 112.
- Si manque d'infos: poser 2 à 4 questions.
- Donner des conseils à faible risque: repos, hydratation, surveillance, consulter si aggravation.
- Terminer par: "Je ne suis pas un médecin..."`

var languageDirectives = map[string]string{
	"fr": "Réponds exclusivement en français.",
	"en": "Respond exclusively in English.",
	"de": "Antworte ausschließlich auf Deutsch.",
}

// GeminiGenerator produces answers through a Gemini chat session seeded
// with the conversation history.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

func NewGeminiGenerator(client *genai.Client, modelName string, timeout time.Duration) *GeminiGenerator {
	return &GeminiGenerator{client: client, modelName: modelName, timeout: timeout}
}

// Generate replays the bounded history into a chat session and sends the
// current message. The language constraint rides in the system instruction,
// so the model cannot drift to the language of a quoted phrase inside the
// user's message.
func (g *GeminiGenerator) Generate(ctx context.Context, history []session.Turn, message, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	instruction := generatorInstruction
	if directive, ok := languageDirectives[language]; ok {
		instruction += "\n" + directive
	}

	// The model struct is a cheap per-call construction; the underlying
	// client and its connections are shared.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.3)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}

	chat := model.StartChat()
	chat.History = toGenaiHistory(history)

	resp, err := chat.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	answer := strings.TrimSpace(extractText(resp))
	if answer == "" {
		return "", &GenerationError{Err: fmt.Errorf("model returned empty answer")}
	}
	return answer, nil
}

func toGenaiHistory(history []session.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return contents
}
