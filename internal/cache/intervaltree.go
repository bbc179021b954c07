package cache

import "sort"

// IntervalTree provides O(log n + k) overlap queries using a sorted-slice approach.
// Transcripts are loaded once and never modified after build.
type IntervalTree struct {
	intervals []interval
	maxEnd    []int64 // maxEnd[i] = max(end) for intervals[:i+1]
}

// interval holds a transcript span on the forward strand, half-open.
type interval struct {
	start      int64
	end        int64
	transcript *Transcript
}

// BuildIntervalTree creates an interval tree from a slice of transcripts.
func BuildIntervalTree(transcripts []*Transcript) *IntervalTree {
	if len(transcripts) == 0 {
		return &IntervalTree{}
	}

	intervals := make([]interval, len(transcripts))
	for i, t := range transcripts {
		span := t.ForwardSpan()
		intervals[i] = interval{start: span.Begin, end: span.End, transcript: t}
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// Prefix-max array: maxEnd[i] = max(end) for intervals[0..i]
	maxEnd := make([]int64, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = intervals[i].end
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &IntervalTree{intervals: intervals, maxEnd: maxEnd}
}

// FindOverlaps returns all transcripts whose span shares a base with the
// forward-strand region [begin, end). Results are ordered by transcript start.
func (t *IntervalTree) FindOverlaps(begin, end int64) []*Transcript {
	if len(t.intervals) == 0 || begin >= end {
		return nil
	}

	// Candidates have start < end; hi is the first index with start >= end.
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start >= end
	})

	// lo is the first index whose prefix max end exceeds begin; nothing
	// before it can reach the query.
	lo := sort.Search(hi, func(i int) bool {
		return t.maxEnd[i] > begin
	})

	var result []*Transcript
	for i := lo; i < hi; i++ {
		if t.intervals[i].end > begin {
			result = append(result, t.intervals[i].transcript)
		}
	}
	return result
}
