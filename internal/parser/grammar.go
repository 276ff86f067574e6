package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"scribl/internal/config"
)

var ErrUnparsable = errors.New("unable to parse statement")

// Statement is one successfully parsed tag-language statement.
type Statement struct {
	Header        string
	Name          string
	URLs          []string
	Labels        []string
	Tags          []string
	Notes         []string
	Synonyms      []string
	Relationships []Relation
}

// Relation is a relationship clause: a marker and the partner entity name.
type Relation struct {
	Marker  string
	Partner string
}

// Grammar recognises statements of the tag language. It is built once from a
// schema and is safe to share between parsers.
type Grammar struct {
	headers map[string]struct{}
	labels  map[string]struct{}
	markers map[rune]struct{}
}

func NewGrammar(schema *config.Schema) *Grammar {
	g := &Grammar{
		headers: make(map[string]struct{}),
		labels:  make(map[string]struct{}),
		markers: make(map[rune]struct{}),
	}
	for _, entity := range schema.EntityTypes {
		g.headers[entity.Header] = struct{}{}
	}
	for _, label := range config.AgentLabels() {
		g.labels[label] = struct{}{}
	}
	for _, marker := range schema.Markers() {
		r, _ := utf8.DecodeRuneInString(marker)
		g.markers[r] = struct{}{}
	}
	return g
}

// Parse matches one statement:
//
//	header name (label | url | relationship | notes | synonyms | tags)*
//
// Clauses are read until one fails to match. The statement parsed up to that
// point is returned and the rest of the line is ignored. Only a missing header
// or name is an error.
func (g *Grammar) Parse(line string) (*Statement, error) {
	s := &scanner{input: line, grammar: g}

	header := s.token()
	if _, ok := g.headers[header]; !ok {
		return nil, s.fail("expected statement header")
	}
	s.advance(len(header))

	name, ok := s.name()
	if !ok {
		return nil, s.fail("expected entity name")
	}
	stmt := &Statement{Header: header, Name: name}

	for !s.done() {
		if !s.clause(stmt) {
			break
		}
	}
	return stmt, nil
}

type scanner struct {
	input   string
	pos     int
	grammar *Grammar
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

func (s *scanner) done() bool {
	s.skipSpace()
	return s.pos >= len(s.input)
}

func (s *scanner) advance(n int) {
	s.pos += n
}

func (s *scanner) peek() rune {
	if s.pos >= len(s.input) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.pos:])
	return r
}

// token returns the whitespace-delimited run at the current position without
// consuming it.
func (s *scanner) token() string {
	s.skipSpace()
	rest := s.input[s.pos:]
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		return rest[:i]
	}
	return rest
}

func (s *scanner) fail(expected string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrUnparsable, expected, s.pos)
}

// clause reads one optional clause into stmt. On a mismatch it reports false
// and leaves both the scanner and stmt untouched.
func (s *scanner) clause(stmt *Statement) bool {
	start := s.pos
	if s.isMarker(s.peek()) {
		marker := string(s.peek())
		s.advance(len(marker))
		partner, ok := s.name()
		if !ok {
			s.pos = start
			return false
		}
		stmt.Relationships = append(stmt.Relationships, Relation{Marker: marker, Partner: partner})
		return true
	}

	keyword := s.token()
	if _, ok := s.grammar.labels[keyword]; ok {
		s.advance(len(keyword))
		stmt.Labels = append(stmt.Labels, keyword)
		return true
	}

	var ok bool
	switch keyword {
	case config.URLMarker:
		s.advance(len(keyword))
		url := s.token()
		if ok = validURL(url); ok {
			s.advance(len(url))
			stmt.URLs = append(stmt.URLs, url)
		}
	case config.NoteMarker:
		s.advance(len(keyword))
		var note string
		if note, ok = s.name(); ok {
			stmt.Notes = append(stmt.Notes, note)
		}
	case config.SynonymMarker:
		s.advance(len(keyword))
		var names []string
		if names, ok = s.nameList(); ok {
			stmt.Synonyms = append(stmt.Synonyms, names...)
		}
	case config.TagMarker:
		s.advance(len(keyword))
		var names []string
		if names, ok = s.nameList(); ok {
			stmt.Tags = append(stmt.Tags, names...)
		}
	}
	if !ok {
		s.pos = start
	}
	return ok
}

func validURL(token string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(token, scheme) && len(token) > len(scheme) {
			return true
		}
	}
	return false
}

func (s *scanner) isMarker(r rune) bool {
	_, ok := s.grammar.markers[r]
	return ok
}

// nameWord reads one word of a name. Words start with a letter or digit and
// never contain the field prefix or a comma.
func (s *scanner) nameWord() (string, bool) {
	s.skipSpace()
	start := s.pos
	first := s.peek()
	if s.pos >= len(s.input) || !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return "", false
	}
	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		if unicode.IsSpace(r) || isNameBreak(r) {
			break
		}
		s.pos += size
	}
	return s.input[start:s.pos], true
}

func isNameBreak(r rune) bool {
	return r == ':' || r == ','
}

// name reads one or more words and joins them with single spaces.
func (s *scanner) name() (string, bool) {
	var words []string
	for {
		save := s.pos
		word, ok := s.nameWord()
		if !ok {
			s.pos = save
			break
		}
		words = append(words, word)
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}

// nameList reads a comma-delimited list of names. A trailing comma with no
// name after it is left unread.
func (s *scanner) nameList() ([]string, bool) {
	first, ok := s.name()
	if !ok {
		return nil, false
	}
	names := []string{first}
	for {
		save := s.pos
		s.skipSpace()
		if s.peek() != ',' {
			s.pos = save
			return names, true
		}
		s.advance(1)
		next, ok := s.name()
		if !ok {
			s.pos = save
			return names, true
		}
		names = append(names, next)
	}
}
