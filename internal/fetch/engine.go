package fetch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"streamplot/internal/schema"
	"streamplot/internal/series"
)

// Mode selects how a pass turns input lines into events.
type Mode uint8

const (
	// Stream emits a dataset skeleton for each header line and one
	// SliceAppended per data row. A blank line ends the current
	// dataset, the next non-blank line is a fresh header.
	Stream Mode = iota
	// Batch accumulates blank-line-delimited batches and emits one
	// DataSetReady per batch.
	Batch
	// Snapshot reads the whole input and emits a single DataSetReady.
	Snapshot
)

// ModeFor picks the pass mode. A refresh interval forces Snapshot,
// otherwise an epoch selector means Batch, otherwise Stream.
func ModeFor(refresh time.Duration, epoch schema.Selector) Mode {
	switch {
	case refresh > 0:
		return Snapshot
	case epoch.IsSet():
		return Batch
	default:
		return Stream
	}
}

func (m Mode) String() string {
	switch m {
	case Batch:
		return "batch"
	case Snapshot:
		return "snapshot"
	default:
		return "stream"
	}
}

// maxLineBytes bounds a single input line. Longer lines abandon the
// pass with a transport error instead of growing without limit.
const maxLineBytes = 1 << 20

// engine runs the per-mode line algorithms for a single pass. Emitted
// events go through the emit callback, whose error aborts the pass.
type engine struct {
	x     schema.Selector
	epoch schema.Selector
	mode  Mode
	emit  func(Event) error
}

// run consumes the source line by line until EOF or the first error
// that abandons the pass.
func (e *engine) run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	switch e.mode {
	case Batch:
		return e.readBatches(sc)
	case Snapshot:
		return e.readAll(sc)
	default:
		return e.readLines(sc)
	}
}

func (e *engine) readLines(sc *bufio.Scanner) error {
	var sch *schema.Schema
	for sc.Scan() {
		fields, err := splitFields(sc.Text())
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			sch = nil
			continue
		}
		if sch == nil {
			sch = schema.New(e.x, e.epoch, fields)
			if err := e.emit(DataSetCreated{Set: sch.EmptySet()}); err != nil {
				return err
			}
			continue
		}
		if err := e.emit(SliceAppended{Slice: sch.Slice(fields)}); err != nil {
			return err
		}
	}
	return scanErr(sc)
}

func (e *engine) readBatches(sc *bufio.Scanner) error {
	var batch [][]string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		set := e.buildSet(batch)
		batch = batch[:0]
		return e.emit(DataSetReady{Set: set})
	}
	for sc.Scan() {
		fields, err := splitFields(sc.Text())
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		batch = append(batch, fields)
	}
	if err := scanErr(sc); err != nil {
		return err
	}
	return flush()
}

func (e *engine) readAll(sc *bufio.Scanner) error {
	var sch *schema.Schema
	var set *series.SeriesSet
	for sc.Scan() {
		fields, err := splitFields(sc.Text())
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			continue
		}
		if sch == nil {
			sch = schema.New(e.x, e.epoch, fields)
			set = sch.EmptySet()
			continue
		}
		set.AppendSlice(sch.Slice(fields))
	}
	if err := scanErr(sc); err != nil {
		return err
	}
	if set == nil {
		set = &series.SeriesSet{}
	}
	return e.emit(DataSetReady{Set: set})
}

// buildSet assembles one dataset from a batch of already split lines.
// The first line is the header, the rest are rows.
func (e *engine) buildSet(batch [][]string) *series.SeriesSet {
	sch := schema.New(e.x, e.epoch, batch[0])
	set := sch.EmptySet()
	for _, row := range batch[1:] {
		set.AppendSlice(sch.Slice(row))
	}
	return set
}

// splitFields splits one physical line into comma separated fields.
// Blank lines split to nothing. A line the csv reader cannot make
// sense of, such as an unterminated quote, fails the pass.
func splitFields(line string) ([]string, error) {
	if line == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ParseError{Line: line, Err: err}
	}
	return fields, nil
}

func scanErr(sc *bufio.Scanner) error {
	if err := sc.Err(); err != nil {
		return &TransportError{Op: "read", Err: err}
	}
	return nil
}
