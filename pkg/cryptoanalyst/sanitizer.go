package cryptoanalyst

import (
	"regexp"
	"strings"
)

// Pre-compiled cleanup rules. CleanText applies them in declaration order;
// the order is load-bearing (markup must be unwrapped before the character
// allow-list runs, URLs must be removed before slashes are stripped).
var (
	reBlockMath    = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	reInlineMath   = regexp.MustCompile(`\$.*?\$`)
	reTexCommand   = regexp.MustCompile(`\\[a-zA-Z]+\{.*?\}`)
	reTexEnv       = regexp.MustCompile(`(?s)\\begin\{.*?\}.*?\\end\{.*?\}`)
	reBoldMark     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reItalicMark   = regexp.MustCompile(`\*(.*?)\*`)
	reUnderlineEm  = regexp.MustCompile(`_(.*?)_`)
	reInlineCode   = regexp.MustCompile("`(.*?)`")
	reBareURL      = regexp.MustCompile(`http\S+`)
	reDisallowed   = regexp.MustCompile(`[^\w\s.,!?;:()\-+]`)
	reBlankRuns    = regexp.MustCompile(`\n\s*\n`)
	reSpaceRuns    = regexp.MustCompile(` +`)
)

// CleanText strips LaTeX fragments, markdown emphasis markers, bare URLs and
// characters outside a fixed allow-list from model output, then collapses
// blank-line and space runs and trims the result. It never fails and is
// idempotent: cleaning already-clean text returns it unchanged.
func CleanText(text string) string {
	text = reBlockMath.ReplaceAllString(text, "")
	text = reInlineMath.ReplaceAllString(text, "")
	text = reTexCommand.ReplaceAllString(text, "")
	text = reTexEnv.ReplaceAllString(text, "")
	text = reBoldMark.ReplaceAllString(text, "$1")
	text = reItalicMark.ReplaceAllString(text, "$1")
	text = reUnderlineEm.ReplaceAllString(text, "$1")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reBareURL.ReplaceAllString(text, "")
	text = reDisallowed.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	text = reSpaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
