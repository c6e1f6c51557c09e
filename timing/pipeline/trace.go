package pipeline

// CycleRecord lists the instructions issued and retired in one cycle, by
// program index.
type CycleRecord struct {
	Cycle   uint64 `json:"cycle"`
	Issued  []int  `json:"issued"`
	Retired []int  `json:"retired"`
}

// Trace is the ordered sequence of cycle records of a simulation run. Cycle
// numbers start at 1.
type Trace []CycleRecord

// Cycles returns the number of simulated cycles.
func (t Trace) Cycles() uint64 {
	return uint64(len(t))
}

// IssuedCount returns the total number of issue events.
func (t Trace) IssuedCount() int {
	count := 0
	for _, rec := range t {
		count += len(rec.Issued)
	}
	return count
}

// RetiredCount returns the total number of retirement events.
func (t Trace) RetiredCount() int {
	count := 0
	for _, rec := range t {
		count += len(rec.Retired)
	}
	return count
}

// IssueCycle returns the cycle in which the instruction with the given
// program index was issued.
func (t Trace) IssueCycle(index int) (uint64, bool) {
	for _, rec := range t {
		for _, i := range rec.Issued {
			if i == index {
				return rec.Cycle, true
			}
		}
	}
	return 0, false
}

// RetireCycle returns the cycle in which the instruction with the given
// program index was retired.
func (t Trace) RetireCycle(index int) (uint64, bool) {
	for _, rec := range t {
		for _, i := range rec.Retired {
			if i == index {
				return rec.Cycle, true
			}
		}
	}
	return 0, false
}
