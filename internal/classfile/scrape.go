package classfile

import (
	"regexp"
	"strings"
)

// Caps on the raw material fed to the builder's model calls.
const (
	maxSyllabusLines = 2000
	maxProblemBlocks = 1500
)

var (
	ruleLineRe   = regexp.MustCompile(`^[-–—]{3,}$`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
	blankBlockRe = regexp.MustCompile(`\n\s*\n+`)

	inlineMathRe  = regexp.MustCompile(`\\\((.*?)\\\)`)
	displayMathRe = regexp.MustCompile(`\\\[(.*?)\\\]`)
	doubleDollrRe = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	singleDollrRe = regexp.MustCompile(`\$([^$]+)\$`)
	texCommandRe  = regexp.MustCompile(`\\[a-zA-Z]+`)
)

// ScrapeSyllabus cleans already-extracted syllabus text into individual
// lines: whitespace collapsed, horizontal rules dropped.
func ScrapeSyllabus(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || ruleLineRe.MatchString(ln) {
			continue
		}
		ln = spaceRunRe.ReplaceAllString(ln, " ")
		out = append(out, ln)
		if len(out) == maxSyllabusLines {
			break
		}
	}
	return out
}

// ScrapePracticeProblems splits already-extracted problem text into
// paragraph blocks with math notation flattened to plain text.
func ScrapePracticeProblems(text string) []string {
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}

	var out []string
	for _, blk := range blankBlockRe.Split(strings.Join(lines, "\n"), -1) {
		blk = strings.TrimSpace(blk)
		if blk == "" {
			continue
		}
		blk = spaceRunRe.ReplaceAllString(blk, " ")
		out = append(out, strings.TrimSpace(latexToPlain(blk)))
		if len(out) == maxProblemBlocks {
			break
		}
	}
	return out
}

// latexToPlain strips LaTeX math delimiters and commands, keeping the
// readable expression.
func latexToPlain(s string) string {
	s = inlineMathRe.ReplaceAllString(s, "$1")
	s = displayMathRe.ReplaceAllString(s, "$1")
	s = doubleDollrRe.ReplaceAllString(s, "$1")
	s = singleDollrRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, `\cdot`, "*")
	s = strings.ReplaceAll(s, `\times`, "*")
	s = strings.ReplaceAll(s, `\frac`, "frac")
	s = texCommandRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	return spaceRunRe.ReplaceAllString(s, " ")
}
