// Package ticketcsv reads and writes weighbridge tickets as delimited text.
//
// Column order is: id, date, time in, time out, plate number, location,
// net weight, bunch count.
package ticketcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/palmyard/backend/internal/models"
)

const (
	DefaultDelimiter = ','
	minFields        = 8
	dateLayout       = "2006-01-02"
)

// ErrEmptyImport means a batch contained no valid ticket rows.
var ErrEmptyImport = errors.New("import contains no valid tickets")

type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipHeader      SkipReason = "header"
	SkipShortRow    SkipReason = "short_row"
	SkipMissingID   SkipReason = "missing_id"
	SkipMissingDate SkipReason = "missing_date"
	SkipInvalidDate SkipReason = "invalid_date"
	SkipDuplicate   SkipReason = "duplicate"
)

type Result struct {
	Tickets    []models.Ticket    `json:"-"`
	Rows       int                `json:"rows"`
	Skipped    int                `json:"skipped"`
	Degraded   int                `json:"degraded"`
	Duplicates int                `json:"duplicates"`
	Reasons    map[SkipReason]int `json:"reasons"`
}

type Parser struct {
	Delimiter rune
}

func NewParser() Parser {
	return Parser{Delimiter: DefaultDelimiter}
}

func (p Parser) delimiter() rune {
	if p.Delimiter == 0 {
		return DefaultDelimiter
	}
	return p.Delimiter
}

// ParseLine converts a single record into a ticket. A non-empty SkipReason
// means the row was dropped. degraded reports numeric fields that fell back
// to zero.
func (p Parser) ParseLine(line string) (t models.Ticket, degraded bool, reason SkipReason) {
	return p.parseFields(splitRecord(line, p.delimiter()))
}

func (p Parser) parseFields(fields []string) (models.Ticket, bool, SkipReason) {
	if len(fields) < minFields {
		return models.Ticket{}, false, SkipShortRow
	}
	// Text columns are kept verbatim so exported values read back unchanged.
	id, rawDate := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
	if id == "" {
		return models.Ticket{}, false, SkipMissingID
	}
	if rawDate == "" {
		return models.Ticket{}, false, SkipMissingDate
	}
	date, ok := NormalizeDate(rawDate)
	if !ok {
		return models.Ticket{}, false, SkipInvalidDate
	}

	net, okNet := parseAmount(fields[6])
	bunch, okBunch := parseAmount(fields[7])
	t := models.Ticket{
		ID:          id,
		Date:        date,
		TimeIn:      fields[2],
		TimeOut:     fields[3],
		PlateNumber: fields[4],
		Location:    fields[5],
		NetWeight:   net,
		BunchCount:  bunch,
	}
	return t, !okNet || !okBunch, SkipNone
}

// Parse reads a whole batch. The first record is dropped when it looks like
// a header. Within a batch the first occurrence of an id wins.
func (p Parser) Parse(r io.Reader) (Result, error) {
	res := Result{Reasons: map[SkipReason]int{}}
	seen := map[string]struct{}{}
	skip := func(reason SkipReason) {
		res.Skipped++
		res.Reasons[reason]++
	}

	sc := newRecordScanner(r, p.delimiter())
	first := true
	for sc.Scan() {
		fields := sc.Fields()
		if first {
			first = false
			if isHeader(fields) {
				skip(SkipHeader)
				continue
			}
		}
		if isBlank(fields) {
			continue
		}
		res.Rows++
		t, degraded, reason := p.parseFields(fields)
		if reason != SkipNone {
			skip(reason)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			res.Duplicates++
			skip(SkipDuplicate)
			continue
		}
		seen[t.ID] = struct{}{}
		if degraded {
			res.Degraded++
		}
		res.Tickets = append(res.Tickets, t)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read ticket csv: %w", err)
	}
	if len(res.Tickets) == 0 {
		return res, ErrEmptyImport
	}
	return res, nil
}

func isHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(fields[0]))
	return first == "id" || first == "no tiket" || strings.Contains(first, "tiket")
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// NormalizeDate rewrites D/M/Y into YYYY-MM-DD and checks that the result is
// a real calendar date. Values without a slash are only validated.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			return "", false
		}
		day, errD := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
		year := strings.TrimSpace(parts[2])
		if errD != nil || errM != nil || year == "" {
			return "", false
		}
		raw = fmt.Sprintf("%s-%02d-%02d", year, month, day)
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", false
	}
	return raw, true
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

type fieldState int

const (
	stateFieldStart fieldState = iota
	stateUnquoted
	stateQuoted
	stateQuoteInQuoted
)

// recordScanner splits a stream into records with a quoted/unquoted state
// machine. Newlines inside quotes belong to the field.
type recordScanner struct {
	r      *bufio.Reader
	delim  rune
	fields []string
	err    error
	done   bool

	started bool
}

const bom = '\ufeff'

func newRecordScanner(r io.Reader, delim rune) *recordScanner {
	return &recordScanner{r: bufio.NewReader(r), delim: delim}
}

func (s *recordScanner) Fields() []string { return s.fields }

func (s *recordScanner) Err() error { return s.err }

func (s *recordScanner) Scan() bool {
	if s.done {
		return false
	}
	m := newSplitter(s.delim)
	read := false
	for {
		c, _, err := s.r.ReadRune()
		if c == bom && !s.started {
			s.started = true
			continue
		}
		s.started = true
		if err == io.EOF {
			s.done = true
			if !read {
				return false
			}
			s.fields = m.finish()
			return true
		}
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		read = true
		if c == '\n' && m.state != stateQuoted {
			s.fields = m.finish()
			return true
		}
		m.feed(c)
	}
}

type splitter struct {
	delim  rune
	state  fieldState
	cur    strings.Builder
	fields []string
}

func newSplitter(delim rune) *splitter {
	return &splitter{delim: delim}
}

func (m *splitter) feed(c rune) {
	switch m.state {
	case stateFieldStart:
		switch c {
		case '"':
			m.state = stateQuoted
		case m.delim:
			m.endField()
		case '\r':
		default:
			m.cur.WriteRune(c)
			m.state = stateUnquoted
		}
	case stateUnquoted:
		switch c {
		case m.delim:
			m.endField()
		case '\r':
		default:
			m.cur.WriteRune(c)
		}
	case stateQuoted:
		if c == '"' {
			m.state = stateQuoteInQuoted
			return
		}
		m.cur.WriteRune(c)
	case stateQuoteInQuoted:
		switch c {
		case '"':
			m.cur.WriteRune('"')
			m.state = stateQuoted
		case m.delim:
			m.endField()
		case '\r':
		default:
			// Text after a closing quote is kept literally.
			m.cur.WriteRune(c)
			m.state = stateUnquoted
		}
	}
}

func (m *splitter) endField() {
	m.fields = append(m.fields, m.cur.String())
	m.cur.Reset()
	m.state = stateFieldStart
}

func (m *splitter) finish() []string {
	m.endField()
	return m.fields
}

func splitRecord(line string, delim rune) []string {
	m := newSplitter(delim)
	for _, c := range strings.TrimPrefix(strings.TrimRight(line, "\r\n"), string(bom)) {
		m.feed(c)
	}
	return m.finish()
}
