package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

// Reader yields titles from a catalog file. A line whose last field opens a
// quote that stays open is joined with the following lines until the quote
// closes, so a quoted field may span lines. When such a join never closes or
// does not decode, only the first line is reported corrupt and the lines after
// it are read again on their own.
type Reader struct {
	br         *bufio.Reader
	line       int
	recordLine int
	raw        string
	started    bool
	pending    []physicalLine
}

type physicalLine struct {
	num  int
	text string // includes the terminator
	// salvaged lines were read again after a failed join; blank ones are
	// still reported so their text survives a rewrite.
	salvaged bool
}

// NewReader wraps r. The BOM and header line are consumed on the first Next.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Line reports the physical line on which the last returned record started.
func (r *Reader) Line() int {
	return r.recordLine
}

// Raw returns the undecoded text of the last record, without its terminator,
// including one that failed to decode.
func (r *Reader) Raw() string {
	return r.raw
}

// Next returns the next title. A StorageCorrupt error affects that record
// only and the caller may keep reading. io.EOF marks the end.
func (r *Reader) Next() (domain.Title, error) {
	if !r.started {
		r.started = true
		if _, err := r.readLine(); err != nil {
			return domain.Title{}, err
		}
	}

	for {
		lines, closed, err := r.nextRecord()
		if err != nil {
			return domain.Title{}, err
		}
		first := lines[0]
		r.recordLine = first.num

		record := joinLines(lines)
		if strings.TrimSpace(record) == "" {
			if first.salvaged {
				r.raw = record
				return domain.Title{}, r.corrupt(fmt.Errorf("blank line inside a corrupt record"))
			}
			continue
		}

		r.raw = record
		if !closed {
			r.salvage(lines)
			return domain.Title{}, r.corrupt(fmt.Errorf("unterminated quoted field"))
		}
		t, err := DecodeRecord(record)
		if err != nil {
			r.salvage(lines)
			return domain.Title{}, r.corrupt(err)
		}
		return t, nil
	}
}

func (r *Reader) corrupt(cause error) error {
	return errors.StorageCorrupt(fmt.Sprintf("record at line %d", r.recordLine), cause)
}

// salvage narrows a failed record to its first line and queues the rest to be
// read again.
func (r *Reader) salvage(lines []physicalLine) {
	if len(lines) < 2 {
		return
	}
	r.raw = trimTerminator(lines[0].text)
	rest := make([]physicalLine, 0, len(lines)-1+len(r.pending))
	for _, l := range lines[1:] {
		l.salvaged = true
		rest = append(rest, l)
	}
	r.pending = append(rest, r.pending...)
}

// nextRecord collects the physical lines of one logical record. closed is
// false when a quoted field was still open at EOF, or when a single line ends
// inside a quote that did not start a field.
func (r *Reader) nextRecord() ([]physicalLine, bool, error) {
	first, err := r.readLine()
	if err != nil {
		return nil, false, err
	}
	lines := []physicalLine{first}

	open, atFieldStart := quoteState(first.text)
	if !open {
		return lines, true, nil
	}
	if !atFieldStart {
		return lines, false, nil
	}

	text := first.text
	for {
		next, err := r.readLine()
		if err == io.EOF {
			return lines, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		lines = append(lines, next)
		text += next.text
		if open, _ = quoteState(text); !open {
			return lines, true, nil
		}
	}
}

// readLine returns the next physical line, queued lines first.
func (r *Reader) readLine() (physicalLine, error) {
	if len(r.pending) > 0 {
		l := r.pending[0]
		r.pending = r.pending[1:]
		return l, nil
	}

	chunk, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return physicalLine{}, errors.StorageUnavailable("read catalog", err)
	}
	if chunk == "" {
		return physicalLine{}, io.EOF
	}
	r.line++
	if r.line == 1 {
		chunk = strings.TrimPrefix(chunk, BOM)
	}
	return physicalLine{num: r.line, text: chunk}, nil
}

// quoteState scans s the way SplitFields does and reports whether it ends
// inside quotes, and whether that quote opened at the start of a field.
func quoteState(s string) (open, atFieldStart bool) {
	fieldStart := true
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == Quote:
			if open && i+1 < len(s) && s[i+1] == Quote {
				i++
				continue
			}
			if !open {
				atFieldStart = fieldStart
			}
			open = !open
			fieldStart = false
		case c == Delimiter && !open:
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return open, open && atFieldStart
}

func joinLines(lines []physicalLine) string {
	if len(lines) == 1 {
		return trimTerminator(lines[0].text)
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
	}
	return trimTerminator(b.String())
}

func trimTerminator(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// Write renders a complete catalog file: BOM, header, then one record per title.
func Write(w io.Writer, titles []domain.Title) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(BOM + Header() + "\n"); err != nil {
		return err
	}
	for _, t := range titles {
		if _, err := bw.WriteString(EncodeRecord(t) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
