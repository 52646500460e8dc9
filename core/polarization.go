package core

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/corrvis/model"
)

// Pol product types, following the UVFITS STOKES axis convention.
const (
	PolTypeStokes   = 1
	PolTypeCircular = -1
	PolTypeLinear   = -5
)

// PolIndex maps a pair of feed indices to a polarization product slot. It
// is built once from the declared product list.
type PolIndex struct {
	products string
	n        int
	// slots is indexed by pol1*2+pol2; -1 marks an undeclared product.
	slots [4]int
}

// NewPolIndex parses a product list such as "XXYYXYYX" or "RRLLRLLR".
// Between one and four products must be declared.
func NewPolIndex(products string) (*PolIndex, error) {
	products = strings.ToUpper(strings.TrimSpace(products))
	n := (len(products) + 1) / 2
	if n < 1 || n > 4 {
		return nil, fmt.Errorf("bad number of polarization products: %d", n)
	}

	p := &PolIndex{products: products, n: n, slots: [4]int{-1, -1, -1, -1}}
	feeds := feedIndexer()
	for i := 0; i < n && 2*i+1 < len(products); i++ {
		f1, f2 := feeds(products[2*i]), feeds(products[2*i+1])
		if f1 < 0 || f2 < 0 {
			return nil, fmt.Errorf("polarization products %q use more than two feeds", products)
		}
		p.slots[f1*2+f2] = i
	}
	return p, nil
}

// Len returns the number of declared products.
func (p *PolIndex) Len() int { return p.n }

// Slot returns the product slot for feeds pol1 and pol2 (each 0 or 1), or
// false when the product was not declared.
func (p *PolIndex) Slot(pol1, pol2 int) (int, bool) {
	if pol1 < 0 || pol1 > 1 || pol2 < 0 || pol2 > 1 {
		return 0, false
	}
	s := p.slots[pol1*2+pol2]
	return s, s >= 0
}

// Type returns the product type code for the declared list.
func (p *PolIndex) Type() int {
	if p.products == "" {
		return PolTypeStokes
	}
	switch p.products[0] {
	case 'X', 'Y':
		return PolTypeLinear
	case 'R', 'L':
		return PolTypeCircular
	default:
		return PolTypeStokes
	}
}

// feedIndexer maps product letters to feed indices. Linear and circular
// labels map to their fixed feeds; other letters (e.g. Stokes I) take feeds
// in order of first appearance.
func feedIndexer() func(byte) int {
	var seen []byte
	return func(c byte) int {
		if idx, err := model.PolIndexForLabel(c); err == nil {
			return idx
		}
		for i, s := range seen {
			if s == c {
				return i
			}
		}
		if len(seen) == 2 {
			return -1
		}
		seen = append(seen, c)
		return len(seen) - 1
	}
}
