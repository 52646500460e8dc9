package core

import (
	"fmt"

	"github.com/signalsfoundry/corrvis/model"
)

// AntennaPair is an ordered antenna pair (0-based, A1 <= A2) occupying one
// baseline slot.
type AntennaPair struct {
	A1, A2 int
}

// BaselineTable maps antenna pairs to dense output slots. The slot order is
// fixed: ascending A1 over present antennas, then ascending A2. Downstream
// readers rely on this layout, so it must not change.
type BaselineTable struct {
	mode  model.CorrelationMode
	nAnt  int
	slots []int // nAnt*nAnt, -1 where no slot is defined
	pairs []AntennaPair
}

// NewBaselineTable assigns slots for nAnt configured antennas, of which only
// those reported by present participate.
func NewBaselineTable(nAnt int, present func(ant int) bool, mode model.CorrelationMode) (*BaselineTable, error) {
	if nAnt < 0 {
		return nil, fmt.Errorf("negative antenna count %d", nAnt)
	}
	switch mode {
	case model.CorrAuto, model.CorrCross, model.CorrBoth:
	default:
		return nil, fmt.Errorf("unsupported correlation mode %v", mode)
	}

	t := &BaselineTable{
		mode:  mode,
		nAnt:  nAnt,
		slots: make([]int, nAnt*nAnt),
	}
	for i := range t.slots {
		t.slots[i] = -1
	}

	next := 0
	assign := func(a1, a2 int) {
		t.slots[a1*nAnt+a2] = next
		t.pairs = append(t.pairs, AntennaPair{A1: a1, A2: a2})
		next++
	}

	for a1 := 0; a1 < nAnt; a1++ {
		if !present(a1) {
			continue
		}
		if mode == model.CorrAuto {
			assign(a1, a1)
			continue
		}
		start := a1
		if mode == model.CorrCross {
			start = a1 + 1
		}
		for a2 := start; a2 < nAnt; a2++ {
			if !present(a2) {
				continue
			}
			assign(a1, a2)
		}
	}
	return t, nil
}

// Slot returns the slot for (a1, a2). The pair must already be in canonical
// order (a1 <= a2).
func (t *BaselineTable) Slot(a1, a2 int) (int, bool) {
	if a1 < 0 || a2 < 0 || a1 >= t.nAnt || a2 >= t.nAnt {
		return 0, false
	}
	s := t.slots[a1*t.nAnt+a2]
	return s, s >= 0
}

// Len returns the number of assigned slots.
func (t *BaselineTable) Len() int { return len(t.pairs) }

// Pair returns the antenna pair occupying slot.
func (t *BaselineTable) Pair(slot int) AntennaPair { return t.pairs[slot] }

// Mode returns the correlation mode the table was built for.
func (t *BaselineTable) Mode() model.CorrelationMode { return t.mode }

// ExpectedBaselines is the closed-form slot count for n antennas.
func ExpectedBaselines(n int, mode model.CorrelationMode) int {
	switch mode {
	case model.CorrAuto:
		return n
	case model.CorrCross:
		return n * (n - 1) / 2
	default:
		return n * (n + 1) / 2
	}
}

// EncodeBaseline returns the UVFITS random-parameter baseline code for
// 1-based antenna numbers.
func EncodeBaseline(ant1, ant2 int) float32 {
	if ant2 > 255 {
		return float32(ant1*2048 + ant2 + 65536)
	}
	return float32(ant1*256 + ant2)
}
