package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"medichat-backend/internal/lang"
)

// Category is the coarse topic bucket the remote classifier assigns to a
// message.
type Category string

const (
	CategoryMedical  Category = "medical"
	CategoryWellness Category = "wellness"
	CategoryOther    Category = "other"
)

// Classification is the classifier's verdict for one message. Language is
// already canonicalized to a supported code, or empty when the classifier
// gave none.
type Classification struct {
	Category Category
	Language string
}

// TopicClassifier decides whether a message is in scope and guesses its
// language.
type TopicClassifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

const classifierInstruction = `Tu es un filtre de sujets pour un assistant d'information santé.
Classe le message de l'utilisateur et réponds sur UNE SEULE ligne, au format exact:
categorie|langue

categorie: "medical" (symptômes, maladies, traitements, douleurs),
"wellness" (nutrition, sommeil, sport, stress), ou "other" (tout le reste).
langue: code ISO du message parmi "fr", "en", "de".
Aucun autre texte, aucune ponctuation supplémentaire.`

// GeminiClassifier calls Gemini with a short per-call timeout and parses
// its single-line reply defensively.
type GeminiClassifier struct {
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiClient builds the shared Gemini client both adapters use.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Message: "GEMINI_API_KEY is not set"}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ConfigurationError{Message: fmt.Sprintf("failed to create Gemini client: %v", err)}
	}
	return client, nil
}

func NewGeminiClassifier(client *genai.Client, modelName string, timeout time.Duration) *GeminiClassifier {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(classifierInstruction)}}

	return &GeminiClassifier{model: model, timeout: timeout}
}

// Classify sends the message to Gemini. Transport failures (network, timeout,
// non-2xx) surface as ClassificationError. A reply that arrives but cannot
// be parsed into a known category is recovered locally: category falls back
// to other and the language to the local heuristic guess.
func (c *GeminiClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return Classification{}, &ClassificationError{Err: err}
	}

	cls, ok := parseClassification(extractText(resp))
	if !ok {
		return Classification{Category: CategoryOther, Language: lang.Detect(message)}, nil
	}
	return cls, nil
}

// parseClassification turns the model's reply into a Classification,
// validating both halves against closed sets. Models wander from the format
// under load, so fences and stray quoting are stripped before parsing.
func parseClassification(raw string) (Classification, bool) {
	line := strings.TrimSpace(raw)
	line = strings.TrimPrefix(line, "```")
	line = strings.TrimSuffix(line, "```")
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.Trim(strings.ToLower(strings.TrimSpace(line)), `"'`)

	parts := strings.Split(line, "|")
	if len(parts) != 2 {
		return Classification{}, false
	}

	var category Category
	switch Category(strings.TrimSpace(parts[0])) {
	case CategoryMedical:
		category = CategoryMedical
	case CategoryWellness:
		category = CategoryWellness
	case CategoryOther:
		category = CategoryOther
	default:
		return Classification{}, false
	}

	language, ok := lang.Canonical(strings.TrimSpace(parts[1]))
	if !ok {
		language = ""
	}

	return Classification{Category: category, Language: language}, true
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
