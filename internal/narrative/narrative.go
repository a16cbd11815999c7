// Package narrative implements the PPTX-only post-pass (spec §4.8): a
// fixed sequence of line-oriented rewrite rules applied once to the
// assembled slide text, in the same regexp-driven style the teacher
// codebase's recognizer package uses to post-process raw OCR output.
package narrative

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cjkSeparatorRun = regexp.MustCompile(`(\p{Han}{1,}(?:/\p{Han}{1,}){1,})`)
	asciiSeparatorRun = regexp.MustCompile(`([A-Za-z0-9]+(?: / [A-Za-z0-9]+){1,})`)

	slideSeparators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)@@@Slide_(\d+)@@@`),
		regexp.MustCompile(`(?i)===\s*Slide\s+(\d+)\s*===`),
		regexp.MustCompile(`(?i)---\s*Slide\s+(\d+)\s*---`),
		regexp.MustCompile(`(?i)\[Slide\s+(\d+)\]`),
		regexp.MustCompile(`(?i)\(Slide\s+(\d+)\)`),
	}

	imagePlaceholderPatterns = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\[图像\s*(\d+)\s*OCR\s*内容\]:`), "[图片 $1 内容]："},
		{regexp.MustCompile(`(?i)Image\s*(\d+)\s*Text:`), "[图片 $1 内容]："},
		{regexp.MustCompile(`(?i)\[Image\s*(\d+)\]`), "[图片 $1]："},
	}

	formulaIndicator = regexp.MustCompile(`[=∑∏∫±≈≠≤≥]|[\x{0391}-\x{03A9}\x{03B1}-\x{03C9}]`)
	greekOrEquals    = regexp.MustCompile(`=|[\x{0391}-\x{03A9}\x{03B1}-\x{03C9}]`)
	formulaPrefix    = "公式："

	leadingIndent = regexp.MustCompile(`^(\s*)`)
)

// Optimize applies the five narrative rules, in order, exactly once. It is
// idempotent: Optimize(Optimize(x)) == Optimize(x) for all x, since every
// rule either leaves already-rewritten text alone (checked via the target
// form or an explicit skip condition) or operates on patterns the previous
// rules never reintroduce.
func Optimize(text string) string {
	text = applyKeywordSeparators(text)
	text = applySlideSeparators(text)
	text = applyPerLine(text, applyFormulaPrefix)
	text = applyImagePlaceholders(text)
	text = applyPerLine(text, applySoftPunctuation)
	return text
}

func applyPerLine(text string, rule func(string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = rule(line)
	}
	return strings.Join(lines, "\n")
}

// applyKeywordSeparators rewrites runs of 2+ CJK tokens joined by "/" and
// runs of 2+ ASCII word groups joined by " / " into a more natural
// enumeration, appending a closing phrase.
func applyKeywordSeparators(text string) string {
	text = cjkSeparatorRun.ReplaceAllStringFunc(text, func(run string) string {
		return strings.ReplaceAll(run, "/", "、") + "等内容"
	})
	text = asciiSeparatorRun.ReplaceAllStringFunc(text, func(run string) string {
		return strings.ReplaceAll(run, " / ", ", ") + " 等内容"
	})
	return text
}

// applySlideSeparators normalizes the assorted slide-separator spellings
// the source documents use into a uniform Markdown header.
func applySlideSeparators(text string) string {
	for _, re := range slideSeparators {
		text = re.ReplaceAllString(text, "## Slide $1")
	}
	return text
}

// applyFormulaPrefix prepends "公式：" to lines that look like a formula:
// not a header or list item, containing a math indicator, containing
// either "=" or a Greek letter, longer than 3 characters, and not already
// prefixed.
func applyFormulaPrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) <= 3 {
		return line
	}
	if isHeaderOrList(trimmed) {
		return line
	}
	if strings.HasPrefix(trimmed, formulaPrefix) {
		return line
	}
	if !formulaIndicator.MatchString(trimmed) || !greekOrEquals.MatchString(trimmed) {
		return line
	}

	indent := leadingIndent.FindString(line)
	return indent + formulaPrefix + trimmed
}

// applyImagePlaceholders normalizes the OCR assembly's placeholder text and
// a couple of other commonly-seen spellings into one canonical form.
func applyImagePlaceholders(text string) string {
	for _, p := range imagePlaceholderPatterns {
		text = p.re.ReplaceAllString(text, p.repl)
	}
	return text
}

// applySoftPunctuation appends a terminal punctuation mark to lines that
// read like prose but lack one, skipping headers, list items, table rows,
// and formula lines (which carry their own conventions).
func applySoftPunctuation(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return line
	}
	if isHeaderOrList(trimmed) {
		return line
	}
	if strings.Count(trimmed, "|") >= 2 {
		return line
	}
	if strings.HasPrefix(trimmed, formulaPrefix) {
		return line
	}
	if endsWithTerminalPunctuation(trimmed) {
		return line
	}

	if isMostlyCJK(trimmed) {
		if utf8RuneCount(trimmed) > 5 {
			return line + "。"
		}
		return line
	}
	if len(trimmed) > 10 {
		return line + "."
	}
	return line
}

func isHeaderOrList(trimmed string) bool {
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "+") {
		return true
	}
	r := []rune(trimmed)
	i := 0
	for i < len(r) && unicode.IsDigit(r[i]) {
		i++
	}
	return i > 0 && i < len(r) && (r[i] == '.' || r[i] == ')')
}

var terminalPunctuation = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true, '：': true,
	'.': true, '!': true, '?': true, ';': true, ':': true,
}

func endsWithTerminalPunctuation(trimmed string) bool {
	r := []rune(trimmed)
	if len(r) == 0 {
		return false
	}
	return terminalPunctuation[r[len(r)-1]]
}

func isMostlyCJK(s string) bool {
	var cjk, other int
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			cjk++
		} else if !unicode.IsSpace(r) {
			other++
		}
	}
	return cjk > other
}

func utf8RuneCount(s string) int {
	return len([]rune(s))
}
