package fetch

import "strconv"

// TransportError reports that the byte source itself failed: a command
// that would not start, a broken pipe, a read error, a nonzero exit.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "fetch " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a line whose fields could not be split. Cells
// that merely fail numeric parsing are not errors, they become NaN.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return "parse line " + strconv.Quote(e.Line) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
