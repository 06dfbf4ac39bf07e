package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Dimension status markers.
const (
	StatusOK            = "ok"
	StatusNoData        = "no_data"
	StatusNoCompetitors = "no_competitors"
)

// Overall score weights.
const (
	WeightPrice     = 0.30
	WeightAreaValue = 0.25
	WeightAttention = 0.20
	WeightFeature   = 0.25
)

// areaWindow is the relative area tolerance for peers with another layout.
const areaWindow = 0.20

// Standing is a target's percentile among peers on one dimension.
type Standing struct {
	Status string `json:"status"`
	// Peers counts peers with a usable value for this dimension.
	Peers      int     `json:"peers"`
	Percentile float64 `json:"percentile,omitempty"`
	Rank       string  `json:"rank,omitempty"`
}

func (p Standing) OK() bool { return p.Status == StatusOK }

// PriceDimension compares unit prices; lower is better.
type PriceDimension struct {
	Standing
	Target     float64 `json:"target,omitempty"`
	PeerMean   float64 `json:"peer_mean,omitempty"`
	PeerMedian float64 `json:"peer_median,omitempty"`
	// Advantage is PeerMean - Target; positive means the target is cheaper.
	Advantage float64 `json:"advantage,omitempty"`
}

// AreaValueDimension compares area per unit of total price; higher is better.
type AreaValueDimension struct {
	Standing
	Target   float64 `json:"target,omitempty"`
	PeerMean float64 `json:"peer_mean,omitempty"`
}

// AttentionDimension compares attention counts; higher is better.
type AttentionDimension struct {
	Standing
	Target   float64 `json:"target,omitempty"`
	PeerMean float64 `json:"peer_mean,omitempty"`
}

// FeatureDimension holds categorical selling points.
type FeatureDimension struct {
	SouthFacing    bool     `json:"south_facing"`
	SouthAdvantage bool     `json:"south_advantage"`
	PeerSouthShare float64  `json:"peer_south_share"`
	HighFloor      bool     `json:"high_floor"`
	LowFloor       bool     `json:"low_floor"`
	Subway         bool     `json:"subway"`
	VRTour         bool     `json:"vr_tour"`
	TaxExempt      bool     `json:"tax_exempt"`
	Tags           []string `json:"tags,omitempty"`
	Score          float64  `json:"score"`
}

// ScoreComponent is one weighted term of the overall score.
type ScoreComponent struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Competitiveness is the full positioning of one record against its peers.
type Competitiveness struct {
	Target          *Record            `json:"target"`
	Peers           []*Record          `json:"peers"`
	SameLayoutPeers int                `json:"same_layout_peers"`
	Price           PriceDimension     `json:"price"`
	AreaValue       AreaValueDimension `json:"area_value"`
	Attention       AttentionDimension `json:"attention"`
	Feature         FeatureDimension   `json:"feature"`
	Components      []ScoreComponent   `json:"components"`
	Overall         float64            `json:"overall"`
}

// FilterCompetitors selects comparable records for target: every record with
// the same layout, then records of another layout whose area is within 20%
// of the target's. The target itself is never included. Pool order is kept
// inside each group.
func FilterCompetitors(target *Record, pool []*Record) []*Record {
	layout, hasLayout := target.Text(FieldLayout)
	area, hasArea := target.Number(FieldArea)
	lo, hi := area*(1-areaWindow), area*(1+areaWindow)

	var same, near []*Record
	for _, r := range pool {
		if r == target || r.ID == target.ID {
			continue
		}
		l, ok := r.Text(FieldLayout)
		if hasLayout && ok && l == layout {
			same = append(same, r)
			continue
		}
		if !hasArea {
			continue
		}
		if a, ok := r.Number(FieldArea); ok && a >= lo && a <= hi {
			near = append(near, r)
		}
	}
	return append(same, near...)
}

// Analyze positions target against its competitors in pool. It never fails;
// dimensions without data carry a status marker and are left out of the
// overall score.
func Analyze(target *Record, pool *Dataset) *Competitiveness {
	peers := FilterCompetitors(target, pool.Records)
	c := &Competitiveness{Target: target, Peers: peers}
	if l, ok := target.Text(FieldLayout); ok {
		for _, p := range peers {
			if pl, ok := p.Text(FieldLayout); ok && pl == l {
				c.SameLayoutPeers++
			}
		}
	}
	c.Price = priceDimension(target, peers)
	c.AreaValue = areaValueDimension(target, peers)
	c.Attention = attentionDimension(target, peers, pool.Fields.Has(FieldAttention))
	c.Feature = featureDimension(target, peers)

	if c.Price.OK() {
		c.Components = append(c.Components, ScoreComponent{Name: "price", Score: 100 - c.Price.Percentile, Weight: WeightPrice})
	}
	if c.AreaValue.OK() {
		c.Components = append(c.Components, ScoreComponent{Name: "area_value", Score: c.AreaValue.Percentile, Weight: WeightAreaValue})
	}
	if c.Attention.OK() {
		c.Components = append(c.Components, ScoreComponent{Name: "attention", Score: c.Attention.Percentile, Weight: WeightAttention})
	}
	c.Components = append(c.Components, ScoreComponent{Name: "feature", Score: c.Feature.Score, Weight: WeightFeature})
	c.Overall = OverallScore(c.Components)
	return c
}

// OverallScore is the weighted mean of the given components, rounded to one
// decimal and clamped to [0, 100]. Without components it is 50.
func OverallScore(components []ScoreComponent) float64 {
	var sum, weights float64
	for _, c := range components {
		sum += c.Score * c.Weight
		weights += c.Weight
	}
	if weights == 0 {
		return 50.0
	}
	return math.Max(0, math.Min(100, round(sum/weights, 1)))
}

// standing counts better-placed peers and turns the count into a percentile.
func standing(peers int, better int) Standing {
	return Standing{
		Status:     StatusOK,
		Peers:      peers,
		Percentile: float64(better+1) / float64(peers+1) * 100,
		Rank:       fmt.Sprintf("%d/%d", better+1, peers+1),
	}
}

func unavailable(peers []*Record) Standing {
	if len(peers) == 0 {
		return Standing{Status: StatusNoCompetitors}
	}
	return Standing{Status: StatusNoData}
}

func priceDimension(target *Record, peers []*Record) PriceDimension {
	tp, ok := target.Number(FieldUnitPrice)
	if !ok || len(peers) == 0 {
		return PriceDimension{Standing: unavailable(peers)}
	}
	var vals []float64
	greater := 0
	for _, p := range peers {
		if v, ok := p.Number(FieldUnitPrice); ok {
			vals = append(vals, v)
			if v > tp {
				greater++
			}
		}
	}
	if len(vals) == 0 {
		return PriceDimension{Standing: Standing{Status: StatusNoData}}
	}
	m := mean(vals)
	return PriceDimension{
		Standing:   standing(len(vals), greater),
		Target:     tp,
		PeerMean:   m,
		PeerMedian: median(vals),
		Advantage:  m - tp,
	}
}

func valueRatio(r *Record) (float64, bool) {
	a, oka := r.Number(FieldArea)
	t, okt := r.Number(FieldTotalPrice)
	if !oka || !okt || t == 0 {
		return 0, false
	}
	return a / t, true
}

func areaValueDimension(target *Record, peers []*Record) AreaValueDimension {
	tr, ok := valueRatio(target)
	if !ok || len(peers) == 0 {
		return AreaValueDimension{Standing: unavailable(peers)}
	}
	var vals []float64
	lower := 0
	for _, p := range peers {
		if v, ok := valueRatio(p); ok {
			vals = append(vals, v)
			if v < tr {
				lower++
			}
		}
	}
	if len(vals) == 0 {
		return AreaValueDimension{Standing: Standing{Status: StatusNoData}}
	}
	return AreaValueDimension{Standing: standing(len(vals), lower), Target: tr, PeerMean: mean(vals)}
}

func attentionDimension(target *Record, peers []*Record, present bool) AttentionDimension {
	if !present {
		return AttentionDimension{Standing: Standing{Status: StatusNoData}}
	}
	ta, ok := target.Number(FieldAttention)
	if !ok || len(peers) == 0 {
		return AttentionDimension{Standing: unavailable(peers)}
	}
	var vals []float64
	lower := 0
	for _, p := range peers {
		if v, ok := p.Number(FieldAttention); ok {
			vals = append(vals, v)
			if v < ta {
				lower++
			}
		}
	}
	if len(vals) == 0 {
		return AttentionDimension{Standing: Standing{Status: StatusNoData}}
	}
	return AttentionDimension{Standing: standing(len(vals), lower), Target: ta, PeerMean: mean(vals)}
}

// Feature score increments over the base of 50.
const (
	featureBase      = 50
	bonusSouth       = 15
	bonusSubway      = 10
	bonusTaxExempt   = 10
	bonusVRTour      = 5
	bonusHighFloor   = 10
	featureScoreCeil = 100
)

func isSouthFacing(r *Record) bool {
	o, ok := r.Text(FieldOrientation)
	return ok && (strings.Contains(o, "南") || strings.Contains(strings.ToLower(o), "south"))
}

// SplitTags splits a pipe-delimited tag list, dropping blanks.
func SplitTags(r *Record) []string {
	raw, ok := r.Text(FieldTags)
	if !ok {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func featureDimension(target *Record, peers []*Record) FeatureDimension {
	f := FeatureDimension{SouthFacing: isSouthFacing(target)}
	if len(peers) > 0 {
		south := 0
		for _, p := range peers {
			if isSouthFacing(p) {
				south++
			}
		}
		f.PeerSouthShare = float64(south) / float64(len(peers)) * 100
		f.SouthAdvantage = f.SouthFacing && f.PeerSouthShare < 50
	}
	switch FloorClass(target) {
	case FloorHigh:
		f.HighFloor = true
	case FloorLow:
		f.LowFloor = true
	}
	f.Tags = SplitTags(target)
	for _, t := range f.Tags {
		lt := strings.ToLower(t)
		if containsAny(lt, "地铁", "subway", "metro") {
			f.Subway = true
		}
		if strings.Contains(lt, "vr") {
			f.VRTour = true
		}
		if containsAny(lt, "满五", "满5", "五年", "5-year", "5 year", "tax") {
			f.TaxExempt = true
		}
	}

	score := float64(featureBase)
	if f.SouthFacing {
		score += bonusSouth
	}
	if f.Subway {
		score += bonusSubway
	}
	if f.TaxExempt {
		score += bonusTaxExempt
	}
	if f.VRTour {
		score += bonusVRTour
	}
	if f.HighFloor {
		score += bonusHighFloor
	}
	f.Score = math.Min(score, featureScoreCeil)
	return f
}
