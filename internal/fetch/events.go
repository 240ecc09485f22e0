package fetch

import "streamplot/internal/series"

// Event is what a pass publishes on the loop's event channel. The
// concrete types below are the only implementations.
type Event interface {
	isEvent()
}

// DataSetCreated announces the empty dataset a streaming pass derived
// from a header line. The rows that follow arrive as SliceAppended.
type DataSetCreated struct {
	Set *series.SeriesSet
}

// SliceAppended carries one parsed data row of a streaming pass.
type SliceAppended struct {
	Slice series.Slice
}

// DataSetReady carries a complete dataset, either one batch or a whole
// snapshot of the input.
type DataSetReady struct {
	Set *series.SeriesSet
}

// FetchFailed reports that a pass was abandoned. A pass emits at most
// one of these, and the loop stays alive for the next trigger.
type FetchFailed struct {
	Err error
}

func (DataSetCreated) isEvent() {}
func (SliceAppended) isEvent()  {}
func (DataSetReady) isEvent()   {}
func (FetchFailed) isEvent()    {}
