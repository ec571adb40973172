package technicals

import "math"

// CPR width classes, narrowest first
const (
	NarrowCPR   = "Narrow CPR"
	CompactCPR  = "Compact CPR"
	MidCPR      = "Mid CPR"
	WideCPR     = "Wide CPR"
	VeryWideCPR = "Very Wide CPR"
)

var cprBins = []struct {
	upper float64
	label string
}{
	{0.25, NarrowCPR},
	{0.5, CompactCPR},
	{0.75, MidCPR},
	{0.9, WideCPR},
}

// priceBands scale the CPR width for high priced instruments
var priceBands = []float64{2500, 5000, 10000, 20000, 40000, 80000, 160000, 320000}

// OHLC is one bar
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Pivots holds standard floor pivot levels with the central pivot range
type Pivots struct {
	OHLC
	Pivot       float64    `json:"pivot"`
	BC          float64    `json:"bc"`
	TC          float64    `json:"tc"`
	Resistances [5]float64 `json:"resistances"`
	Supports    [5]float64 `json:"supports"`
	CPRWidth    float64    `json:"cpr_width"`
	CPR         string     `json:"cpr"`
}

// StandardPivots computes floor pivots from the previous session's bar
func StandardPivots(bar OHLC) Pivots {
	h, l, c := bar.High, bar.Low, bar.Close
	p := (h + l + c) / 3
	bc := (h + l) / 2
	tc := (p - bc) + p

	r1 := 2*p - l
	s1 := 2*p - h

	out := Pivots{
		OHLC:  bar,
		Pivot: p,
		BC:    bc,
		TC:    tc,
		Resistances: [5]float64{
			r1,
			p + (h - l),
			(p + r1) / 2,
			h + 2*(p-l),
			p + 2*(h-l),
		},
		Supports: [5]float64{
			s1,
			p - (h - l),
			(p + s1) / 2,
			l - 2*(h-p),
			p - 2*(h-l),
		},
	}
	out.CPRWidth = cprWidth(tc, bc, p, c)
	out.CPR = ClassifyCPR(out.CPRWidth)
	return out
}

// cprWidth is |TC-BC| as a percentage of the pivot, scaled by the price band of the close
func cprWidth(tc, bc, pivot, close float64) float64 {
	if pivot == 0 {
		return 0
	}
	width := math.Round(math.Abs(tc-bc)/pivot*100*100) / 100

	band := 0
	for band < len(priceBands) && priceBands[band] < close {
		band++
	}
	if band == 0 {
		return width
	}
	return width * float64(band)
}

// ClassifyCPR maps a CPR width to its class
func ClassifyCPR(width float64) string {
	for _, bin := range cprBins {
		if width <= bin.upper {
			return bin.label
		}
	}
	return VeryWideCPR
}
