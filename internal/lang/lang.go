// Package lang holds the text normalizer and the heuristic classifiers the
// turn router consults before spending a remote call. Everything here is
// pure: no I/O, no state, and every function returns a usable value for any
// input.
package lang

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Supported language codes, in tie-break priority order. French is the
// primary language and the fallback when no signal is found.
const (
	French  = "fr"
	English = "en"
	German  = "de"

	Primary = French
)

var supported = []string{French, English, German}

var matcher = language.NewMatcher([]language.Tag{
	language.French,
	language.English,
	language.German,
})

// Canonical maps an arbitrary language code ("FR", "fr-CA", "de-AT") onto
// one of the supported codes. Returns false when the code is unusable.
func Canonical(code string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	return supported[idx], true
}

// Normalize collapses internal whitespace runs to single spaces and trims.
// Every classifier below runs on normalized text so that formatting noise
// never changes a routing decision.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Marker words scored by Detect. Diacritics are listed as single-rune
// markers so that accented prose counts toward its language even when no
// whole word matches.
var markers = map[string][]string{
	French: {
		"bonjour", "salut", "coucou", "merci", "oui", "depuis",
		"docteur", "médecin", "santé", "douleur", "mal au", "j'ai",
		"jours", "semaine", "é", "è", "ê", "à", "ç",
	},
	English: {
		"hello", "hi", "hey", "thanks", "thank", "yes", "since",
		"doctor", "health", "pain", "hurts", "i have", "do you",
		"what", "you", "days", "week",
	},
	German: {
		"hallo", "guten", "danke", "ja", "seit",
		"arzt", "gesundheit", "schmerz", "schmerzen", "ich habe",
		"tage", "woche", "ä", "ö", "ü", "ß",
	},
}

// Detect scores the supported languages by marker occurrences in the
// lowercased text and returns the best one. Ties resolve in priority order
// (fr > en > de); a zero score everywhere falls back to the primary
// language. The remote classifier's language field supersedes this guess
// when available.
func Detect(text string) string {
	lower := strings.ToLower(Normalize(text))

	best := Primary
	bestScore := 0
	for _, code := range supported {
		score := 0
		for _, m := range markers[code] {
			score += strings.Count(lower, m)
		}
		if score > bestScore {
			best = code
			bestScore = score
		}
	}
	return best
}

var languageQuestionPhrases = []string{
	"quelles langues", "quelle langue", "parles-tu", "parlez-vous",
	"what languages", "which languages", "do you speak", "speak english",
	"welche sprachen", "welche sprache", "sprichst du", "sprechen sie",
}

// IsLanguageQuestion reports whether the message asks which languages the
// assistant speaks, in any supported language.
func IsLanguageQuestion(text string) bool {
	lower := strings.ToLower(Normalize(text))
	for _, p := range languageQuestionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// maxSocialLen bounds the social fast path: anything longer is assumed to
// carry real content after the greeting and must go through classification.
const maxSocialLen = 40

var socialTokens = map[string]bool{
	"bonjour": true, "salut": true, "coucou": true, "bonsoir": true,
	"merci": true,
	"hello": true, "hi": true, "hey": true, "thanks": true, "thx": true,
	"hallo": true, "danke": true, "moin": true, "servus": true,
}

var socialPhrases = []string{
	"guten tag", "guten morgen", "guten abend",
	"thank you", "good morning", "good evening",
	"bonne journée", "merci beaucoup", "danke schön", "vielen dank",
}

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}'-]+`)

// IsSocialMessage reports whether the message is a pure greeting or thanks:
// short, and containing a social token as a whole word. Long messages are
// never social, so a question appended after "bonjour" still gets routed.
func IsSocialMessage(text string) bool {
	norm := Normalize(text)
	if norm == "" || utf8.RuneCountInString(norm) > maxSocialLen {
		return false
	}
	lower := strings.ToLower(norm)

	for _, p := range socialPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, w := range wordSplit.Split(lower, -1) {
		if socialTokens[w] {
			return true
		}
	}
	return IsThanksLike(lower)
}

// thanksPattern tolerates the way people actually type gratitude: repeated
// letters, a trailing intensifier, trailing punctuation ("merciiii !!",
// "thankss", "dankeee schön").
var thanksPattern = regexp.MustCompile(
	`^(m+e+r+c+i+|t+h+a+n+k+s*|t+h+x+|d+a+n+k+e+)` +
		`( ?(beaucoup|bien|infiniment|you|a lot|so much|again|schön|sehr|dir))?` +
		`[ !.?]*$`)

// IsThanksLike reports whether the message is a fuzzy thanks variant.
func IsThanksLike(text string) bool {
	return thanksPattern.MatchString(strings.ToLower(Normalize(text)))
}

// maxFollowUpLen bounds follow-up detection the same way as the social
// path: real questions are longer than a confirmation.
const maxFollowUpLen = 40

var followUpTokens = map[string]bool{
	"oui": true, "non": true, "si": true, "d'accord": true, "ok": true,
	"okay": true, "peut-être": true,
	"yes": true, "no": true, "yeah": true, "yep": true, "nope": true,
	"maybe": true, "sure": true,
	"ja": true, "nein": true, "jein": true, "vielleicht": true, "genau": true,
}

var bareNumber = regexp.MustCompile(`\b\d+([.,]\d+)?\b`)

var durationWords = map[string]bool{
	"jour": true, "jours": true, "semaine": true, "semaines": true, "mois": true,
	"day": true, "days": true, "week": true, "weeks": true,
	"month": true, "months": true,
	"tag": true, "tage": true, "tagen": true,
	"woche": true, "wochen": true, "monat": true, "monate": true, "monaten": true,
}

// LooksLikeFollowUp reports whether a short message reads as an answer to a
// clarifying question: a yes/no/maybe token, a bare number ("3"), or a
// duration word ("2 days", "depuis 3 jours"). Only meaningful when the
// session already has history; the caller enforces that.
func LooksLikeFollowUp(text string) bool {
	norm := Normalize(text)
	if norm == "" || utf8.RuneCountInString(norm) > maxFollowUpLen {
		return false
	}
	lower := strings.ToLower(norm)

	if bareNumber.MatchString(lower) {
		return true
	}
	for _, w := range wordSplit.Split(lower, -1) {
		if followUpTokens[w] || durationWords[w] {
			return true
		}
	}
	return false
}
