package playback

// Record is a countdown of fixed duration in seconds. Whether it is playing
// is not stored here; it is derived from the Scheduler's active record.
type Record struct {
	id        int
	duration  uint64
	remaining uint64
}

func newRecord(id int, duration uint64) *Record {
	return &Record{id: id, duration: duration, remaining: duration}
}

func (r *Record) countDown() uint64 {
	if r.remaining > 0 {
		r.remaining--
	}

	return r.remaining
}

func (r *Record) reset() {
	r.remaining = r.duration
}

// RecordState is a copy of a Record taken under the scheduler lock. Seq is
// the sequence of the last event emitted before the copy; events up to Seq
// are already reflected in it.
type RecordState struct {
	ID        int    `json:"id"`
	Seq       uint64 `json:"seq"`
	Duration  uint64 `json:"duration"`
	Remaining uint64 `json:"remaining"`
	Active    bool   `json:"active"`
	Playing   bool   `json:"playing"`
}
