package services

import (
	"context"
	"strings"

	"medichat-backend/internal/lang"
	"medichat-backend/internal/session"
)

// Fixed replies, one set per supported language. These are the only answers
// the service produces without calling the generator.
var greetingReplies = map[string]string{
	"fr": "Bonjour ! Je suis un assistant d'information santé. Décrivez-moi vos symptômes ou posez votre question.",
	"en": "Hello! I am a health information assistant. Describe your symptoms or ask your question.",
	"de": "Hallo! Ich bin ein Assistent für Gesundheitsinformationen. Beschreiben Sie Ihre Symptome oder stellen Sie Ihre Frage.",
}

var thanksReplies = map[string]string{
	"fr": "Avec plaisir ! Prenez soin de vous, et consultez un médecin si les symptômes persistent.",
	"en": "You're welcome! Take care, and see a doctor if your symptoms persist.",
	"de": "Gern geschehen! Passen Sie auf sich auf, und gehen Sie zum Arzt, wenn die Beschwerden anhalten.",
}

var languageReplies = map[string]string{
	"fr": "Je peux répondre en français, en anglais et en allemand.",
	"en": "I can answer in French, English and German.",
	"de": "Ich kann auf Französisch, Englisch und Deutsch antworten.",
}

var outOfScopeReplies = map[string]string{
	"fr": "Désolé, je ne peux répondre qu'aux questions de santé et de bien-être.",
	"en": "Sorry, I can only answer health and wellness questions.",
	"de": "Entschuldigung, ich kann nur Fragen zu Gesundheit und Wohlbefinden beantworten.",
}

// TurnRouter is the per-request decision engine: it short-circuits on local
// heuristics, otherwise classifies the message remotely, reconciles the
// verdict with the session's established domain, and either replies with a
// fixed template or calls the answer generator.
type TurnRouter struct {
	store      *session.Store
	classifier TopicClassifier
	generator  AnswerGenerator
}

func NewTurnRouter(store *session.Store, classifier TopicClassifier, generator AnswerGenerator) *TurnRouter {
	return &TurnRouter{store: store, classifier: classifier, generator: generator}
}

// HandleTurn routes one message for one session and returns the answer.
// Only the two remote calls can fail; every other path returns a reply.
func (r *TurnRouter) HandleTurn(ctx context.Context, sessionID, message string) (string, error) {
	norm := lang.Normalize(message)
	snap, exists := r.store.Get(sessionID)

	// Fast paths: resolved locally, no remote calls, no session mutation.
	// Order matters; both are cheaper than classification and pre-empt it.
	if lang.IsLanguageQuestion(norm) {
		return languageReplies[r.resolveLanguage(snap.Language, "", message)], nil
	}
	if lang.IsSocialMessage(norm) {
		language := r.resolveLanguage(snap.Language, "", message)
		if lang.IsThanksLike(norm) {
			return thanksReplies[language], nil
		}
		return greetingReplies[language], nil
	}

	cls, err := r.classifier.Classify(ctx, norm)
	if err != nil {
		return "", err
	}

	prevDomain := session.DomainUnknown
	if exists {
		prevDomain = snap.Domain
	}
	hasHistory := len(snap.History) > 0

	allowed, domain := reconcile(cls.Category, prevDomain, hasHistory)

	// Escape hatch: a short confirmatory reply ("oui", "3 jours") to a
	// clarifying question often classifies as off-topic because the
	// classifier never sees the conversation. Prior history plus a
	// follow-up shape overrides the denial.
	if !allowed && hasHistory && lang.LooksLikeFollowUp(norm) {
		allowed = true
		domain = prevDomain
		if domain == session.DomainUnknown {
			domain = session.DomainWellness
		}
	}

	// Persist the decision before generating, so the next turn sees the
	// updated domain even if this one fails later.
	r.store.Create(sessionID)
	r.store.SetDomain(sessionID, domain, allowed)

	language := r.resolveLanguage(snap.Language, cls.Language, message)
	r.store.SetLanguage(sessionID, language)

	if !allowed {
		return outOfScopeReplies[language], nil
	}

	answer, err := r.generator.Generate(ctx, snap.History, norm, language)
	if err != nil {
		return "", err
	}
	answer = stripEmphasis(answer)

	r.store.AppendHistory(sessionID, "user", norm)
	r.store.AppendHistory(sessionID, "assistant", answer)

	return answer, nil
}

// reconcile applies the domain transition rules to the classifier verdict.
// Medical is always in scope. Wellness is ambiguous in isolation and only
// passes once a health conversation is established. Off-topic never passes
// here (the follow-up escape hatch is the caller's).
func reconcile(category Category, prevDomain session.Domain, hasHistory bool) (bool, session.Domain) {
	switch category {
	case CategoryMedical:
		return true, session.DomainMedical
	case CategoryWellness:
		if prevDomain != session.DomainUnknown || hasHistory {
			return true, session.DomainWellness
		}
		return false, prevDomain
	default:
		return false, prevDomain
	}
}

// resolveLanguage picks the effective language: the session's established
// language wins, then the classifier's detection, then the local heuristic.
// The session value is never overwritten once set, so a conversation cannot
// flip languages mid-way.
func (r *TurnRouter) resolveLanguage(sessionLang, classifierLang, message string) string {
	if sessionLang != "" {
		return sessionLang
	}
	if classifierLang != "" {
		return classifierLang
	}
	return lang.Detect(message)
}

// stripEmphasis removes stray markdown emphasis markers the generator tends
// to emit despite instructions.
func stripEmphasis(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}
