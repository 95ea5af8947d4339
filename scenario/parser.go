package scenario

import (
	"os"
	"strings"
)

type tokenType int

const (
	tokHeaderBar tokenType = iota // ;====...
	tokComment                    // ; text
	tokGiven
	tokWhen
	tokThen
	tokBlank
	tokEOF
)

type token struct {
	typ  tokenType
	text string
	line int
}

type lexer struct {
	lines []string
}

func (l *lexer) tokenize() []token {
	var tokens []token
	i := 0
	for i < len(l.lines) {
		stripped := strings.TrimSpace(l.lines[i])
		lineNum := i + 1

		if stripped == "" {
			tokens = append(tokens, token{tokBlank, "", lineNum})
			i++
			continue
		}

		if strings.HasPrefix(stripped, ";") && strings.Contains(stripped, "===") {
			tokens = append(tokens, token{tokHeaderBar, stripped, lineNum})
			i++
			continue
		}

		if strings.HasPrefix(stripped, ";") {
			tokens = append(tokens, token{tokComment, strings.TrimSpace(stripped[1:]), lineNum})
			i++
			continue
		}

		if typ, ok := clauseType(stripped); ok {
			text, end := l.readClause(i)
			tokens = append(tokens, token{typ, text, lineNum})
			i = end + 1
			continue
		}

		// Unknown line: skip.
		i++
	}
	tokens = append(tokens, token{tokEOF, "", len(l.lines) + 1})
	return tokens
}

func clauseType(line string) (tokenType, bool) {
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, "GIVEN "):
		return tokGiven, true
	case strings.HasPrefix(upper, "WHEN "):
		return tokWhen, true
	case strings.HasPrefix(upper, "THEN "):
		return tokThen, true
	}
	return 0, false
}

// readClause reads a clause that may span multiple lines until a
// terminating '.'. Returns the joined text without keyword or period.
func (l *lexer) readClause(start int) (string, int) {
	var parts []string
	i := start
	for i < len(l.lines) {
		line := strings.TrimSpace(l.lines[i])
		if i == start {
			upper := strings.ToUpper(line)
			for _, prefix := range []string{"GIVEN ", "WHEN ", "THEN "} {
				if strings.HasPrefix(upper, prefix) {
					line = line[len(prefix):]
					break
				}
			}
		}
		parts = append(parts, line)
		if strings.HasSuffix(line, ".") {
			break
		}
		i++
	}
	text := strings.Join(parts, " ")
	if strings.HasSuffix(text, ".") {
		text = strings.TrimSpace(text[:len(text)-1])
	}
	return text, i
}

type parser struct {
	tokens     []token
	sourceFile string
	pos        int
	scenarios  []Scenario
	errors     []ParseError
}

func (p *parser) parse() Result {
	p.skipBlanks()
	for !p.atEnd() {
		switch p.peek().typ {
		case tokHeaderBar:
			p.parseScenario()
		case tokGiven, tokWhen, tokThen:
			// Headerless scenario.
			p.parseBody("Untitled scenario", p.peek().line)
		default:
			p.advance()
		}
		p.skipBlanks()
	}
	return Result{Scenarios: p.scenarios, Errors: p.errors}
}

func (p *parser) parseScenario() {
	title, startLine, ok := p.parseHeader()
	if !ok {
		return
	}
	p.skipBlanks()
	p.parseBody(title, startLine)
}

// parseHeader consumes a ;=== bar, the comment lines forming the title,
// and the closing bar if present.
func (p *parser) parseHeader() (string, int, bool) {
	if p.peek().typ != tokHeaderBar {
		return "", 0, false
	}
	startLine := p.peek().line
	p.advance()

	var titleParts []string
	for !p.atEnd() && p.peek().typ == tokComment {
		titleParts = append(titleParts, p.peek().text)
		p.advance()
	}
	if !p.atEnd() && p.peek().typ == tokHeaderBar {
		p.advance()
	}
	return strings.TrimSpace(strings.Join(titleParts, " ")), startLine, true
}

func (p *parser) parseBody(title string, startLine int) {
	p.skipBlanks()
	givens := p.parseClauses(tokGiven, "GIVEN")
	p.skipBlanks()
	whens := p.parseClauses(tokWhen, "WHEN")
	p.skipBlanks()
	thens := p.parseClauses(tokThen, "THEN")

	sc := Scenario{
		Title:      title,
		Givens:     givens,
		Whens:      whens,
		Thens:      thens,
		SourceFile: p.sourceFile,
		LineNumber: startLine,
	}
	if problems := sc.Validate(); len(problems) > 0 {
		for _, msg := range problems {
			p.errors = append(p.errors, ParseError{
				Message:    msg + " (scenario: '" + title + "')",
				LineNumber: startLine,
				SourceFile: p.sourceFile,
			})
		}
		return
	}
	p.scenarios = append(p.scenarios, sc)
}

func (p *parser) parseClauses(typ tokenType, clauseName string) []Clause {
	var clauses []Clause
	for !p.atEnd() && p.peek().typ == typ {
		tok := p.advance()
		clauses = append(clauses, Clause{
			Type:       clauseName,
			Text:       tok.text,
			LineNumber: tok.line,
		})
		p.skipBlanks()
	}
	return clauses
}

func (p *parser) peek() token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return token{tokEOF, "", -1}
}

func (p *parser) advance() token {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) atEnd() bool { return p.peek().typ == tokEOF }

func (p *parser) skipBlanks() {
	for !p.atEnd() && p.peek().typ == tokBlank {
		p.advance()
	}
}

// Parse parses GWT text into scenarios, collecting structural errors.
func Parse(content, sourceFile string) Result {
	lx := lexer{lines: strings.Split(content, "\n")}
	ps := parser{tokens: lx.tokenize(), sourceFile: sourceFile}
	return ps.parse()
}

// ParseFile parses a GWT file.
func ParseFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Parse(string(data), path), nil
}

// ParseMarkdown extracts GWT blocks embedded in a Markdown file and
// parses each. A block is a ;=== header section followed by clause
// lines, possibly indented inside prose.
func ParseMarkdown(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	lines := strings.Split(string(data), "\n")

	var blocks []string
	var current []string
	inBlock := false

	flushIfClauses := func() {
		for _, ln := range current {
			if _, ok := clauseType(strings.TrimSpace(ln)); ok {
				blocks = append(blocks, strings.Join(current, "\n"))
				break
			}
		}
		current = nil
		inBlock = false
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") && strings.Contains(stripped, "===") {
			if !inBlock {
				inBlock = true
				current = []string{stripped}
			} else {
				current = append(current, stripped)
			}
			continue
		}

		if !inBlock {
			continue
		}
		if strings.HasPrefix(stripped, ";") {
			current = append(current, stripped)
			continue
		}
		if _, ok := clauseType(stripped); ok {
			current = append(current, stripped)
			continue
		}
		if stripped == "" {
			current = append(current, "")
			continue
		}
		flushIfClauses()
	}
	if inBlock {
		flushIfClauses()
	}

	var result Result
	for _, block := range blocks {
		result.Merge(Parse(block, path))
	}
	return result, nil
}
