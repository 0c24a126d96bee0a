package analyzer

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"safesphere/internal/domain/models"
)

// KeywordCategory is one case-insensitive keyword list with its scoring and finding text
type KeywordCategory struct {
	Flag     models.Flag
	Title    string
	Noun     string // e.g. "urgency indicator(s)"
	Advice   string
	Severity models.Severity
	Keywords []string // lowercase, matched as substrings
	Weight   int
	Cap      int
}

// PatternRule is a named, compiled regular expression
type PatternRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Library is the static pattern set the detectors consult.
// It is built once and must not be mutated afterwards; share it freely between goroutines.
type Library struct {
	Urgency        KeywordCategory
	Financial      KeywordCategory
	Authentication KeywordCategory
	ActionRequest  KeywordCategory
	ScamIndicators KeywordCategory
	Threats        KeywordCategory

	URLRules          []PatternRule
	LegitimateDomains []string
	PersonalInfoRules []PatternRule

	URLWeight          int
	URLCap             int
	GrammarWeight      int
	PersonalInfoWeight int
}

// KeywordCategories returns the six keyword categories in detector order
func (l *Library) KeywordCategories() []*KeywordCategory {
	return []*KeywordCategory{
		&l.Urgency,
		&l.Financial,
		&l.Authentication,
		&l.ActionRequest,
		&l.ScamIndicators,
		&l.Threats,
	}
}

func (l *Library) category(flag models.Flag) *KeywordCategory {
	for _, c := range l.KeywordCategories() {
		if c.Flag == flag {
			return c
		}
	}
	return nil
}

// DefaultLibrary builds the reference pattern library
func DefaultLibrary() *Library {
	return &Library{
		Urgency: KeywordCategory{
			Flag:     models.FlagUrgency,
			Title:    "Urgency Detected",
			Noun:     "urgency indicator(s)",
			Advice:   "Scammers often create false urgency to pressure quick decisions.",
			Severity: models.SeverityWarning,
			Keywords: []string{
				"urgent", "immediately", "act now", "limited time", "expires",
				"hurry", "quick", "fast", "now", "today only", "last chance",
				"don't miss", "ending soon", "final notice",
			},
			Weight: 8,
			Cap:    25,
		},
		Financial: KeywordCategory{
			Flag:     models.FlagFinancial,
			Title:    "Financial Terms Detected",
			Noun:     "financial term(s)",
			Advice:   "Be cautious of unsolicited financial requests.",
			Severity: models.SeverityWarning,
			Keywords: []string{
				"bank", "account", "credit card", "payment", "transaction",
				"money", "cash", "prize", "winner", "won", "lottery",
				"inheritance", "tax refund", "reward", "claim", "deposit",
				"transfer", "wire", "bitcoin", "cryptocurrency", "investment",
			},
			Weight: 10,
			Cap:    30,
		},
		Authentication: KeywordCategory{
			Flag:     models.FlagAuthentication,
			Title:    "Authentication Request Detected",
			Noun:     "authentication term(s)",
			Advice:   "Never share OTPs, passwords, or verification codes.",
			Severity: models.SeverityDanger,
			Keywords: []string{
				"otp", "one-time password", "verification code", "pin",
				"password", "security code", "confirm", "verify", "authenticate",
				"validate", "update", "suspended", "locked", "blocked",
				"unauthorized", "unusual activity", "suspicious activity",
			},
			Weight: 12,
			Cap:    35,
		},
		ActionRequest: KeywordCategory{
			Flag:     models.FlagActionRequest,
			Title:    "Action Request Detected",
			Noun:     "action request(s)",
			Advice:   "Verify before clicking links or downloading files.",
			Severity: models.SeverityWarning,
			Keywords: []string{
				"click here", "click now", "download", "open attachment",
				"follow link", "visit", "go to", "sign in", "log in",
				"enter", "provide", "send", "reply", "call now", "contact",
			},
			Weight: 7,
			Cap:    20,
		},
		ScamIndicators: KeywordCategory{
			Flag:     models.FlagScamIndicators,
			Title:    "Scam Indicators Found",
			Noun:     "common scam indicator(s)",
			Advice:   `"Too good to be true" offers are often scams.`,
			Severity: models.SeverityWarning,
			Keywords: []string{
				"congratulations", "selected", "chosen", "qualified",
				"free", "gift", "bonus", "offer", "deal", "discount",
				"guarantee", "100%", "risk-free", "no catch", "limited offer",
				"act fast", "don't delay", "time sensitive",
			},
			Weight: 9,
			Cap:    25,
		},
		Threats: KeywordCategory{
			Flag:     models.FlagThreats,
			Title:    "Threatening Language Detected",
			Noun:     "threat(s)",
			Advice:   "Legitimate organizations rarely use threatening language.",
			Severity: models.SeverityDanger,
			Keywords: []string{
				"suspend", "terminate", "cancel", "expire", "close",
				"legal action", "arrest", "warrant", "court", "fine",
				"penalty", "consequence", "lose access", "deactivate",
			},
			Weight: 11,
			Cap:    30,
		},

		URLRules: []PatternRule{
			// URL shorteners
			{Name: "shortener-bitly", Pattern: regexp.MustCompile(`(?i)\bbit\.ly\b`)},
			{Name: "shortener-tinyurl", Pattern: regexp.MustCompile(`(?i)tinyurl`)},
			{Name: "shortener-googl", Pattern: regexp.MustCompile(`(?i)\bgoo\.gl\b`)},
			{Name: "shortener-owly", Pattern: regexp.MustCompile(`(?i)\bow\.ly\b`)},
			{Name: "shortener-tco", Pattern: regexp.MustCompile(`(?i)\bt\.co\b`)},

			// Bare IPv4 host
			{Name: "ipv4-host", Pattern: regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},

			// Hyphenated brand-adjacent tokens
			{Name: "hyphen-verify", Pattern: regexp.MustCompile(`(?i)-verify`)},
			{Name: "hyphen-secure", Pattern: regexp.MustCompile(`(?i)-secure`)},
			{Name: "hyphen-update", Pattern: regexp.MustCompile(`(?i)-update`)},
			{Name: "hyphen-login", Pattern: regexp.MustCompile(`(?i)-login`)},

			// Lookalike brands
			{Name: "lookalike-paypal", Pattern: regexp.MustCompile(`(?i)paypal[^.]`)},
			{Name: "lookalike-amazon", Pattern: regexp.MustCompile(`(?i)amaz0n`)},
			{Name: "lookalike-google", Pattern: regexp.MustCompile(`(?i)g00gle`)},
			{Name: "lookalike-facebook", Pattern: regexp.MustCompile(`(?i)faceb00k`)},
			{Name: "lookalike-microsoft", Pattern: regexp.MustCompile(`(?i)micr0soft`)},

			// Suspicious TLDs
			{Name: "suspicious-tld", Pattern: regexp.MustCompile(`(?i)\.(?:tk|ml|ga|cf|gq)(?:[/:?#]|$)`)},

			// Long digit runs
			{Name: "digit-run", Pattern: regexp.MustCompile(`\d{5,}`)},
		},

		LegitimateDomains: []string{
			"paypal.com", "amazon.com", "google.com", "microsoft.com",
			"facebook.com", "apple.com", "netflix.com", "linkedin.com",
		},

		PersonalInfoRules: []PatternRule{
			{Name: "social-security", Pattern: regexp.MustCompile(`(?i)social security`)},
			{Name: "ssn", Pattern: regexp.MustCompile(`(?i)ssn`)},
			{Name: "date-of-birth", Pattern: regexp.MustCompile(`(?i)date of birth`)},
			{Name: "dob", Pattern: regexp.MustCompile(`(?i)dob`)},
			{Name: "maiden-name", Pattern: regexp.MustCompile(`(?i)mother'?s maiden name`)},
			{Name: "passport", Pattern: regexp.MustCompile(`(?i)passport`)},
			{Name: "drivers-license", Pattern: regexp.MustCompile(`(?i)driver'?s license`)},
			{Name: "credit-card-number", Pattern: regexp.MustCompile(`(?i)credit card number`)},
			{Name: "cvv", Pattern: regexp.MustCompile(`(?i)cvv`)},
			{Name: "account-number", Pattern: regexp.MustCompile(`(?i)account number`)},
			{Name: "routing-number", Pattern: regexp.MustCompile(`(?i)routing number`)},
		},

		URLWeight:          20,
		URLCap:             40,
		GrammarWeight:      8,
		PersonalInfoWeight: 15,
	}
}

// Validation errors
var (
	ErrEmptyKeyword       = errors.New("empty keyword")
	ErrDuplicateKeyword   = errors.New("duplicate keyword")
	ErrKeywordNotLower    = errors.New("keyword is not lowercase")
	ErrInvalidWeight      = errors.New("weight must be positive")
	ErrInvalidCap         = errors.New("cap must be at least one weight")
	ErrMissingPattern     = errors.New("rule has no compiled pattern")
	ErrNoLegitDomains     = errors.New("no legitimate domains configured")
	ErrInvalidLegitDomain = errors.New("legitimate domain must contain a dot")
)

// Validate checks the library for structural problems. All problems are joined into one error.
func (l *Library) Validate() error {
	var errs []error

	for _, c := range l.KeywordCategories() {
		seen := make(map[string]bool, len(c.Keywords))
		for _, kw := range c.Keywords {
			switch {
			case strings.TrimSpace(kw) == "":
				errs = append(errs, fmt.Errorf("%s: %w", c.Flag, ErrEmptyKeyword))
			case kw != strings.ToLower(kw):
				errs = append(errs, fmt.Errorf("%s: %q: %w", c.Flag, kw, ErrKeywordNotLower))
			case seen[kw]:
				errs = append(errs, fmt.Errorf("%s: %q: %w", c.Flag, kw, ErrDuplicateKeyword))
			}
			seen[kw] = true
		}
		if c.Weight <= 0 {
			errs = append(errs, fmt.Errorf("%s: %w", c.Flag, ErrInvalidWeight))
		} else if c.Cap < c.Weight {
			errs = append(errs, fmt.Errorf("%s: %w", c.Flag, ErrInvalidCap))
		}
	}

	for _, rules := range [][]PatternRule{l.URLRules, l.PersonalInfoRules} {
		for _, r := range rules {
			if r.Pattern == nil {
				errs = append(errs, fmt.Errorf("rule %q: %w", r.Name, ErrMissingPattern))
			}
		}
	}

	if len(l.LegitimateDomains) == 0 {
		errs = append(errs, ErrNoLegitDomains)
	}
	for _, d := range l.LegitimateDomains {
		if !strings.Contains(d, ".") {
			errs = append(errs, fmt.Errorf("%q: %w", d, ErrInvalidLegitDomain))
		}
	}

	if l.URLWeight <= 0 || l.GrammarWeight <= 0 || l.PersonalInfoWeight <= 0 {
		errs = append(errs, fmt.Errorf("url/grammar/personal-info: %w", ErrInvalidWeight))
	} else if l.URLCap < l.URLWeight {
		errs = append(errs, fmt.Errorf("url: %w", ErrInvalidCap))
	}

	return errors.Join(errs...)
}

// KeywordOverlap is a keyword listed in more than one category
type KeywordOverlap struct {
	Keyword string
	Flags   []models.Flag
}

// Overlaps lists keywords shared between categories, sorted by keyword.
// Shared keywords are allowed: each category scores independently.
func (l *Library) Overlaps() []KeywordOverlap {
	owners := make(map[string][]models.Flag)
	for _, c := range l.KeywordCategories() {
		for _, kw := range c.Keywords {
			owners[kw] = append(owners[kw], c.Flag)
		}
	}

	var out []KeywordOverlap
	for kw, flags := range owners {
		if len(flags) > 1 {
			out = append(out, KeywordOverlap{Keyword: kw, Flags: flags})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// brandOf returns the label before the first dot ("paypal" for "paypal.com")
func brandOf(domain string) string {
	if i := strings.IndexByte(domain, '.'); i > 0 {
		return domain[:i]
	}
	return domain
}
