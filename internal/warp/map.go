package warp

import (
	"sort"

	"github.com/misterdjules/soundbox/internal/numeric"
)

// Map is the warp-marker map. It keeps one owning, sample-index-ordered
// slice of markers plus a derived, beat-time-ordered view of indices into
// that slice — the "single ordered container keyed by sample index plus a
// parallel sorted view" shape, so there is never a second owning
// reference to a marker to keep in sync or dangle.
type Map struct {
	byIndex   []Marker       // owns the data, sorted ascending by SampleIndex
	beatOrder []int          // indices into byIndex, sorted ascending by BeatTime
	indexSet  map[uint64]int // SampleIndex -> position in byIndex
	beatSet   map[float64]int

	cacheValid bool
	loCached   Marker
	hiCached   Marker
}

// NewMap returns an empty warp-marker map.
func NewMap() *Map {
	return &Map{
		indexSet: make(map[uint64]int),
		beatSet:  make(map[float64]int),
	}
}

// Len reports how many markers are in the map. bySampleIndex and
// byBeatTime are always the same size because beatOrder is derived
// directly from byIndex — map symmetry holds by construction.
func (m *Map) Len() int {
	return len(m.byIndex)
}

// Add validates and inserts a (sampleTime, beatTime) marker against a clip
// of the given duration. Validation runs in the order the design
// requires:
//  1. both times are finite/valid
//  2. 0 <= sampleTime <= duration (tolerant at the upper bound)
//  3. beatTime >= 0
//  4. an empty map accepts unconditionally
//  5. the sample-index key must not already exist
//  6. the beat-time key must not already exist
//  7. the sample-time and beat-time bounding segments must agree
//  8. the candidate must not sit on top of either bounding endpoint
//
// A successful insertion invalidates the segment cache.
func (m *Map) Add(sampleTime, beatTime, duration float64) bool {
	if !numeric.IsValidTime(sampleTime) || !numeric.IsValidTime(beatTime) {
		return false
	}
	if sampleTime < 0 {
		return false
	}
	if !numeric.AlmostEqual(sampleTime, duration, numeric.TimeTolerance, numeric.TimeTolerance) && sampleTime > duration {
		return false
	}
	if beatTime < 0 {
		return false
	}

	candidate := NewMarker(sampleTime, beatTime)

	if len(m.byIndex) == 0 {
		m.insert(candidate)
		return true
	}

	if _, exists := m.indexSet[candidate.SampleIndex]; exists {
		return false
	}
	if _, exists := m.beatSet[beatTime]; exists {
		return false
	}

	loS, hiS, foundS := m.findBoundingBySampleIndex(candidate.SampleIndex)
	if !foundS {
		// Outside the sample-time range entirely — accept. This is how
		// the second default endpoint marker gets in.
		m.insert(candidate)
		return true
	}

	loB, hiB, foundB := m.FindBoundingByBeatTime(beatTime)
	if !foundB {
		return false
	}
	if !loB.Equal(loS) || !hiB.Equal(hiS) {
		return false
	}

	if numeric.AlmostEqual(sampleTime, loS.SampleTime, numeric.TimeTolerance, numeric.TimeTolerance) ||
		numeric.AlmostEqual(sampleTime, hiS.SampleTime, numeric.TimeTolerance, numeric.TimeTolerance) ||
		numeric.AlmostEqual(beatTime, loS.BeatTime, numeric.TimeTolerance, numeric.TimeTolerance) ||
		numeric.AlmostEqual(beatTime, hiS.BeatTime, numeric.TimeTolerance, numeric.TimeTolerance) {
		return false
	}

	m.insert(candidate)
	return true
}

func (m *Map) insert(marker Marker) {
	pos := sort.Search(len(m.byIndex), func(i int) bool {
		return m.byIndex[i].SampleIndex >= marker.SampleIndex
	})
	m.byIndex = append(m.byIndex, Marker{})
	copy(m.byIndex[pos+1:], m.byIndex[pos:])
	m.byIndex[pos] = marker

	m.rebuildViews()
	m.cacheValid = false
}

func (m *Map) rebuildViews() {
	m.indexSet = make(map[uint64]int, len(m.byIndex))
	for i, marker := range m.byIndex {
		m.indexSet[marker.SampleIndex] = i
	}

	order := make([]int, len(m.byIndex))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return m.byIndex[order[a]].BeatTime < m.byIndex[order[b]].BeatTime
	})
	m.beatOrder = order

	m.beatSet = make(map[float64]int, len(m.byIndex))
	for _, idx := range order {
		m.beatSet[m.byIndex[idx].BeatTime] = idx
	}
}

// First returns the marker with the minimal sample index.
func (m *Map) First() (Marker, bool) {
	if len(m.byIndex) == 0 {
		return Marker{}, false
	}
	return m.byIndex[0], true
}

// Last returns the marker with the maximal sample index.
func (m *Map) Last() (Marker, bool) {
	if len(m.byIndex) == 0 {
		return Marker{}, false
	}
	return m.byIndex[len(m.byIndex)-1], true
}

// FindBoundingBySampleTime returns the pair of markers bracketing
// sampleTime: lo.SampleIndex <= query's quantized index < hi.SampleIndex.
// It fails if there are fewer than two markers, or the query is beyond
// the outermost marker on the high side.
func (m *Map) FindBoundingBySampleTime(sampleTime float64) (lo, hi Marker, ok bool) {
	queryIndex := uint64(numeric.Round(sampleTime * numeric.DefaultSampleRate))
	return m.findBoundingBySampleIndex(queryIndex)
}

func (m *Map) findBoundingBySampleIndex(queryIndex uint64) (lo, hi Marker, ok bool) {
	if len(m.byIndex) < 2 {
		return Marker{}, Marker{}, false
	}

	lowerBound := sort.Search(len(m.byIndex), func(i int) bool {
		return m.byIndex[i].SampleIndex >= queryIndex
	})
	if lowerBound == len(m.byIndex) {
		return Marker{}, Marker{}, false
	}

	lowIdx := lowerBound
	if lowerBound != 0 && m.byIndex[lowerBound].SampleIndex != queryIndex {
		lowIdx = lowerBound - 1
	}
	lowMarker := m.byIndex[lowIdx]
	if lowMarker.SampleIndex > queryIndex {
		return Marker{}, Marker{}, false
	}

	highBound := sort.Search(len(m.byIndex), func(i int) bool {
		return m.byIndex[i].SampleIndex > queryIndex
	})
	if highBound == len(m.byIndex) {
		return Marker{}, Marker{}, false
	}
	highMarker := m.byIndex[highBound]
	if highMarker.SampleIndex <= queryIndex {
		return Marker{}, Marker{}, false
	}

	return lowMarker, highMarker, true
}

// FindBoundingByBeatTime returns the pair of markers bracketing beatTime,
// analogous to FindBoundingBySampleTime but using tolerance-aware equality
// when matching the lower bound (and rejecting a high bound that's almost
// equal to the query, since that case belongs to the low bound instead).
func (m *Map) FindBoundingByBeatTime(beatTime float64) (lo, hi Marker, ok bool) {
	if len(m.beatOrder) < 2 {
		return Marker{}, Marker{}, false
	}

	lowerPos := sort.Search(len(m.beatOrder), func(i int) bool {
		return m.byIndex[m.beatOrder[i]].BeatTime >= beatTime
	})
	if lowerPos == len(m.beatOrder) {
		return Marker{}, Marker{}, false
	}

	candidate := m.byIndex[m.beatOrder[lowerPos]]
	lowPos := lowerPos
	if lowerPos != 0 && !numeric.AlmostEqual(candidate.BeatTime, beatTime, numeric.TimeTolerance, numeric.TimeTolerance) {
		lowPos = lowerPos - 1
	}
	lowMarker := m.byIndex[m.beatOrder[lowPos]]
	if lowMarker.BeatTime > beatTime && !numeric.AlmostEqual(lowMarker.BeatTime, beatTime, numeric.TimeTolerance, numeric.TimeTolerance) {
		return Marker{}, Marker{}, false
	}

	highPos := sort.Search(len(m.beatOrder), func(i int) bool {
		return m.byIndex[m.beatOrder[i]].BeatTime > beatTime
	})
	if highPos == len(m.beatOrder) {
		return Marker{}, Marker{}, false
	}
	highMarker := m.byIndex[m.beatOrder[highPos]]
	if highMarker.BeatTime < beatTime || numeric.AlmostEqual(highMarker.BeatTime, beatTime, numeric.TimeTolerance, numeric.TimeTolerance) {
		return Marker{}, Marker{}, false
	}

	return lowMarker, highMarker, true
}

// SampleToBeatTime converts a sample time to a beat time by consulting
// the one-segment cache first, falling back to a full bounding search.
// A query that quantizes to the last marker's sample index is resolved
// on the final segment. Returns 0.0 if no bounding segment can be found —
// a contractual sentinel, not an error channel.
func (m *Map) SampleToBeatTime(sampleTime float64) float64 {
	lo, hi, found := m.cachedSegmentForSampleTime(sampleTime)
	if !found {
		lo, hi, found = m.FindBoundingBySampleTime(sampleTime)
	}
	if !found && len(m.byIndex) >= 2 {
		n := len(m.byIndex)
		lo, hi = m.byIndex[n-2], m.byIndex[n-1]
		found = uint64(numeric.Round(sampleTime*numeric.DefaultSampleRate)) == hi.SampleIndex
	}
	if !found {
		return 0.0
	}
	m.loCached, m.hiCached, m.cacheValid = lo, hi, true
	return numeric.LinearMap(sampleTime, lo.SampleTime, hi.SampleTime, lo.BeatTime, hi.BeatTime)
}

// BeatToSampleTime is the symmetric conversion with axes swapped; a query
// almost equal to the last marker's beat time is resolved on the final
// segment.
func (m *Map) BeatToSampleTime(beatTime float64) float64 {
	lo, hi, found := m.cachedSegmentForBeatTime(beatTime)
	if !found {
		lo, hi, found = m.FindBoundingByBeatTime(beatTime)
	}
	if !found && len(m.byIndex) >= 2 {
		n := len(m.byIndex)
		lo, hi = m.byIndex[n-2], m.byIndex[n-1]
		found = numeric.AlmostEqual(beatTime, hi.BeatTime, numeric.TimeTolerance, numeric.TimeTolerance)
	}
	if !found {
		return 0.0
	}
	m.loCached, m.hiCached, m.cacheValid = lo, hi, true
	return numeric.LinearMap(beatTime, lo.BeatTime, hi.BeatTime, lo.SampleTime, hi.SampleTime)
}

func (m *Map) cachedSegmentForSampleTime(sampleTime float64) (lo, hi Marker, ok bool) {
	if !m.cacheValid {
		return Marker{}, Marker{}, false
	}
	belowOrAtLow := sampleTime > m.loCached.SampleTime || numeric.AlmostEqual(sampleTime, m.loCached.SampleTime, numeric.TimeTolerance, numeric.TimeTolerance)
	if belowOrAtLow && sampleTime < m.hiCached.SampleTime {
		return m.loCached, m.hiCached, true
	}
	return Marker{}, Marker{}, false
}

func (m *Map) cachedSegmentForBeatTime(beatTime float64) (lo, hi Marker, ok bool) {
	if !m.cacheValid {
		return Marker{}, Marker{}, false
	}
	belowOrAtLow := beatTime > m.loCached.BeatTime || numeric.AlmostEqual(beatTime, m.loCached.BeatTime, numeric.TimeTolerance, numeric.TimeTolerance)
	if belowOrAtLow && beatTime < m.hiCached.BeatTime {
		return m.loCached, m.hiCached, true
	}
	return Marker{}, Marker{}, false
}
