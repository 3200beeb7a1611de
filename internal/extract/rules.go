package extract

import (
	"regexp"
	"strings"
)

// payeeRule is one step of the extraction cascade. fn returns the candidate
// payee and whether the rule applied.
type payeeRule struct {
	name string
	fn   func(string) (string, bool)
}

var (
	// Reversal: <CODE>: <10-digit phone> — the phone is the payee.
	reversalPattern = regexp.MustCompile(`(?i)reversal:\s*(?:RJ|TX|CSH|ZVC|ECO|INN)\d+\s*:\s*(\d{10})\b`)

	// Any parenthesized segment.
	parenPattern = regexp.MustCompile(`\(([^)]+)\)`)

	// A restated reference label inside parentheses, e.g. "(#Ref CSH123...)".
	refLabelPattern = regexp.MustCompile(`(?i)#\s*ref\s*(?:RJ|TX|CSH|ZVC|ECO|INN)\d*`)

	// ". - <name>" directly after a code or token.
	dotDashPattern = regexp.MustCompile(`\.\s*-\s*(\S.*)$`)

	// "- <name>" (dash, space, name) anywhere.
	dashNamePattern = regexp.MustCompile(`(?:^|\s)-\s+(\S.*)$`)

	// "<CODE> - <name>" immediately following the structured code.
	codeDashPattern = regexp.MustCompile(`(?i)(?:RJ|TX|CSH|ZVC|ECO|INN)\d+\s*-\s*(\S.*)$`)

	// "<leading phone> <name>" — phone first, name after.
	leadingPhonePattern = regexp.MustCompile(`^0\d{9}\s*(\S.*)$`)

	// A standalone local mobile number (0 plus nine digits).
	mobilePattern = regexp.MustCompile(`\b0\d{9}\b`)

	// Bare mobile number occupying a whole segment.
	bareMobilePattern = regexp.MustCompile(`^0\d{9}$`)

	// Name-cleaning patterns: phone noise in its three observed shapes.
	phoneAfterSlashPattern   = regexp.MustCompile(`\s*/\s*\d{10,}`)
	trailingPhonePattern     = regexp.MustCompile(`\s+\d{10,}\s*$`)
	concatenatedPhonePattern = regexp.MustCompile(`([A-Za-z])\d{10,}\b`)

	// Capitalized or all-caps word, the shape of a proper-name token.
	nameTokenPattern = regexp.MustCompile(`^[A-Z][A-Za-z'.-]+$`)
)

// bankPrefixes are institution names that lead some statement descriptions;
// the payee is whatever follows them.
var bankPrefixes = []string{
	"ABSA BANK",
	"CAPITEC",
	"NEDBANK",
	"STANDARD BANK",
	"FNB",
}

// payeeRules is the ordered cascade. First match wins.
var payeeRules = []payeeRule{
	{"reversal-phone", payeeFromReversal},
	{"parenthesized-segment", payeeFromParentheses},
	{"dot-dash-name", payeeFromDotDash},
	{"dash-name", payeeFromDash},
	{"code-dash-name", payeeFromCodeDash},
	{"bank-prefix", payeeFromBankPrefix},
	{"phone-forms", payeeFromPhoneForms},
	{"short-verbatim", payeeFromShortDescription},
	{"name-token-scan", payeeFromNameTokens},
}

func payeeFromReversal(description string) (string, bool) {
	if m := reversalPattern.FindStringSubmatch(description); m != nil {
		return m[1], true
	}
	return "", false
}

func payeeFromParentheses(description string) (string, bool) {
	for _, m := range parenPattern.FindAllStringSubmatch(description, -1) {
		segment := strings.TrimSpace(m[1])
		if segment == "" || refLabelPattern.MatchString(segment) {
			continue
		}
		if bareMobilePattern.MatchString(segment) {
			return segment, true
		}
		if cleaned, ok := cleanName(segment); ok {
			return cleaned, true
		}
	}
	return "", false
}

func payeeFromDotDash(description string) (string, bool) {
	if m := dotDashPattern.FindStringSubmatch(description); m != nil {
		return cleanName(m[1])
	}
	return "", false
}

func payeeFromDash(description string) (string, bool) {
	if m := dashNamePattern.FindStringSubmatch(description); m != nil {
		return cleanName(m[1])
	}
	return "", false
}

func payeeFromCodeDash(description string) (string, bool) {
	if m := codeDashPattern.FindStringSubmatch(description); m != nil {
		return cleanName(m[1])
	}
	return "", false
}

func payeeFromBankPrefix(description string) (string, bool) {
	upper := strings.ToUpper(description)
	for _, bank := range bankPrefixes {
		idx := strings.Index(upper, bank)
		if idx < 0 {
			continue
		}
		rest := description[idx+len(bank):]
		if cleaned, ok := cleanName(rest); ok {
			return cleaned, true
		}
	}
	return "", false
}

// payeeFromPhoneForms handles the two phone shapes: a leading phone number
// followed by a name yields the name; otherwise a standalone mobile number
// anywhere is itself the payee. The second form exists so that a number a
// customer paid from is kept rather than stripped as digit noise.
func payeeFromPhoneForms(description string) (string, bool) {
	if m := leadingPhonePattern.FindStringSubmatch(description); m != nil {
		if cleaned, ok := cleanName(m[1]); ok {
			return cleaned, true
		}
	}
	if phone := mobilePattern.FindString(description); phone != "" {
		return phone, true
	}
	return "", false
}

func payeeFromShortDescription(description string) (string, bool) {
	if len(description) <= shortDescriptionLimit {
		return description, true
	}
	return "", false
}

// payeeFromNameTokens is the last heuristic: join the final one or two
// tokens that look like proper names.
func payeeFromNameTokens(description string) (string, bool) {
	var names []string
	for _, token := range strings.Fields(description) {
		token = strings.Trim(token, ".,:;()")
		if len(token) >= 2 && nameTokenPattern.MatchString(token) {
			names = append(names, token)
		}
	}

	if len(names) == 0 {
		return "", false
	}
	if len(names) == 1 {
		return names[0], true
	}
	return strings.Join(names[len(names)-2:], " "), true
}

// cleanName strips phone-number noise and stray punctuation from a payee
// candidate. ok is false when nothing usable remains.
func cleanName(s string) (string, bool) {
	s = phoneAfterSlashPattern.ReplaceAllString(s, "")
	s = trailingPhonePattern.ReplaceAllString(s, "")
	s = concatenatedPhonePattern.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "-:.,/")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", false
	}
	return s, true
}
