package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"medichat-backend/internal/session"
)

type fakeClassifier struct {
	cls   Classification
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	f.calls++
	if f.err != nil {
		return Classification{}, f.err
	}
	return f.cls, nil
}

type fakeGenerator struct {
	answer      string
	err         error
	calls       int
	gotLanguage string
	gotHistory  []session.Turn
}

func (f *fakeGenerator) Generate(ctx context.Context, history []session.Turn, message, language string) (string, error) {
	f.calls++
	f.gotHistory = history
	f.gotLanguage = language
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestRouter(cls *fakeClassifier, gen *fakeGenerator) (*TurnRouter, *session.Store) {
	store := session.NewStore(30*time.Minute, 10)
	return NewTurnRouter(store, cls, gen), store
}

func TestHandleTurn_GreetingFastPath(t *testing.T) {
	cls := &fakeClassifier{}
	gen := &fakeGenerator{}
	router, _ := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "bonjour")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != greetingReplies["fr"] {
		t.Errorf("Expected French greeting reply, got %q", answer)
	}
	if cls.calls != 0 {
		t.Errorf("Greeting must not reach the classifier, got %d calls", cls.calls)
	}
	if gen.calls != 0 {
		t.Errorf("Greeting must not reach the generator, got %d calls", gen.calls)
	}
}

func TestHandleTurn_ThanksFastPath(t *testing.T) {
	cls := &fakeClassifier{}
	gen := &fakeGenerator{}
	router, _ := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "merciiii !!")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != thanksReplies["fr"] {
		t.Errorf("Expected French thanks reply, got %q", answer)
	}
	if cls.calls != 0 {
		t.Errorf("Thanks must not reach the classifier, got %d calls", cls.calls)
	}
}

func TestHandleTurn_LanguageQuestionFastPath(t *testing.T) {
	cls := &fakeClassifier{}
	gen := &fakeGenerator{}
	router, _ := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "What languages do you speak?")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != languageReplies["en"] {
		t.Errorf("Expected English language reply, got %q", answer)
	}
	if cls.calls != 0 || gen.calls != 0 {
		t.Error("Language question must stay on the fast path")
	}
}

func TestHandleTurn_FirstMedicalTurnAllowed(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryMedical, Language: "fr"}}
	gen := &fakeGenerator{answer: "Depuis combien de temps avez-vous mal ?"}
	router, store := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "j'ai mal au ventre depuis 2 jours")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != gen.answer {
		t.Errorf("Expected generated answer, got %q", answer)
	}
	if gen.gotLanguage != "fr" {
		t.Errorf("Expected generation in fr, got %q", gen.gotLanguage)
	}

	snap, ok := store.Get("sid")
	if !ok {
		t.Fatal("Expected session to exist after an allowed turn")
	}
	if snap.Domain != session.DomainMedical {
		t.Errorf("Expected domain %q, got %q", session.DomainMedical, snap.Domain)
	}
	if snap.Language != "fr" {
		t.Errorf("Expected session language fr, got %q", snap.Language)
	}
	if len(snap.History) != 2 {
		t.Fatalf("Expected 2 history entries (user + assistant), got %d", len(snap.History))
	}
	if snap.History[0].Role != "user" || snap.History[1].Role != "assistant" {
		t.Errorf("Unexpected history roles: %q, %q", snap.History[0].Role, snap.History[1].Role)
	}
}

func TestHandleTurn_WellnessDeniedOnFirstTurn(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryWellness, Language: "fr"}}
	gen := &fakeGenerator{}
	router, store := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "quel sport me conseilles-tu pour bien dormir ?")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != outOfScopeReplies["fr"] {
		t.Errorf("Expected out-of-scope reply, got %q", answer)
	}
	if gen.calls != 0 {
		t.Error("Denied turn must not reach the generator")
	}

	snap, _ := store.Get("sid")
	if snap.Domain != session.DomainUnknown {
		t.Errorf("Expected domain to stay %q, got %q", session.DomainUnknown, snap.Domain)
	}
}

func TestHandleTurn_WellnessAllowedOnEstablishedDomain(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryWellness, Language: "fr"}}
	gen := &fakeGenerator{answer: "Un peu de marche aide."}
	router, store := newTestRouter(cls, gen)

	store.Create("sid")
	store.SetDomain("sid", session.DomainMedical, true)

	answer, err := router.HandleTurn(context.Background(), "sid", "quel sport me conseilles-tu pour bien dormir ?")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != gen.answer {
		t.Errorf("Expected generated answer, got %q", answer)
	}

	snap, _ := store.Get("sid")
	if snap.Domain != session.DomainWellness {
		t.Errorf("Expected domain %q, got %q", session.DomainWellness, snap.Domain)
	}
}

func TestHandleTurn_OffTopicFollowUpEscapeHatch(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryOther, Language: "fr"}}
	gen := &fakeGenerator{answer: "Trois jours, donc. Avez-vous de la fièvre ?"}
	router, store := newTestRouter(cls, gen)

	store.Create("sid")
	store.SetDomain("sid", session.DomainMedical, true)
	store.AppendHistory("sid", "user", "j'ai mal au ventre")
	store.AppendHistory("sid", "assistant", "Depuis combien de jours ?")

	answer, err := router.HandleTurn(context.Background(), "sid", "3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != gen.answer {
		t.Errorf("Expected generated answer, got %q", answer)
	}
	if len(gen.gotHistory) != 2 {
		t.Errorf("Expected generator to receive 2 prior turns, got %d", len(gen.gotHistory))
	}

	snap, _ := store.Get("sid")
	if snap.Domain != session.DomainMedical {
		t.Errorf("Expected escape hatch to keep domain %q, got %q", session.DomainMedical, snap.Domain)
	}
}

func TestHandleTurn_OffTopicWithoutHistoryDenied(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryOther, Language: "fr"}}
	gen := &fakeGenerator{}
	router, _ := newTestRouter(cls, gen)

	// Same short follow-up shape, but no prior history: stays denied.
	answer, err := router.HandleTurn(context.Background(), "sid", "3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != outOfScopeReplies["fr"] {
		t.Errorf("Expected out-of-scope reply, got %q", answer)
	}
	if gen.calls != 0 {
		t.Error("Denied turn must not reach the generator")
	}
}

func TestHandleTurn_LanguageLockedAcrossTurns(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryMedical, Language: "fr"}}
	gen := &fakeGenerator{answer: "ok"}
	router, store := newTestRouter(cls, gen)

	store.Create("sid")
	store.SetLanguage("sid", "de")

	if _, err := router.HandleTurn(context.Background(), "sid", "j'ai mal au ventre"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gen.gotLanguage != "de" {
		t.Errorf("Expected the established session language de, got %q", gen.gotLanguage)
	}

	snap, _ := store.Get("sid")
	if snap.Language != "de" {
		t.Errorf("Expected session language to stay de, got %q", snap.Language)
	}
}

func TestHandleTurn_ClassifierFailureSurfaces(t *testing.T) {
	cls := &fakeClassifier{err: &ClassificationError{Err: errors.New("deadline exceeded")}}
	gen := &fakeGenerator{}
	router, _ := newTestRouter(cls, gen)

	_, err := router.HandleTurn(context.Background(), "sid", "j'ai mal au ventre depuis 2 jours")
	var cErr *ClassificationError
	if !errors.As(err, &cErr) {
		t.Fatalf("Expected ClassificationError, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("Failed classification must not reach the generator")
	}
}

func TestHandleTurn_GeneratorFailureKeepsDecision(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryMedical, Language: "fr"}}
	gen := &fakeGenerator{err: &GenerationError{Err: errors.New("timeout")}}
	router, store := newTestRouter(cls, gen)

	_, err := router.HandleTurn(context.Background(), "sid", "j'ai mal au ventre")
	var gErr *GenerationError
	if !errors.As(err, &gErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}

	// The routing decision was persisted before generation, so the next
	// turn still sees the established domain. History stays untouched.
	snap, ok := store.Get("sid")
	if !ok {
		t.Fatal("Expected session to exist after failed generation")
	}
	if snap.Domain != session.DomainMedical {
		t.Errorf("Expected domain %q, got %q", session.DomainMedical, snap.Domain)
	}
	if len(snap.History) != 0 {
		t.Errorf("Expected no history after failed generation, got %d entries", len(snap.History))
	}
}

func TestHandleTurn_StripsEmphasisMarkup(t *testing.T) {
	cls := &fakeClassifier{cls: Classification{Category: CategoryMedical, Language: "fr"}}
	gen := &fakeGenerator{answer: "**Repos** et *hydratation* recommandés."}
	router, _ := newTestRouter(cls, gen)

	answer, err := router.HandleTurn(context.Background(), "sid", "j'ai mal à la gorge")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != "Repos et hydratation recommandés." {
		t.Errorf("Expected emphasis markup stripped, got %q", answer)
	}
}
