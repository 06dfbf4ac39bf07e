package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Domain selects the alias and validation rules applied to a dataset.
type Domain string

const (
	DomainForSale     Domain = "for-sale"
	DomainTransaction Domain = "transaction"
)

// ParseDomain accepts the canonical names plus a few common spellings.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for-sale", "forsale", "for_sale", "sale", "listing", "listings", "在售", "在售房源":
		return DomainForSale, nil
	case "transaction", "transactions", "deal", "deals", "sold", "成交", "成交房源":
		return DomainTransaction, nil
	default:
		return "", fmt.Errorf("unknown domain %q (use for-sale or transaction)", s)
	}
}

// Field identifies a canonical column.
type Field int

const (
	FieldCommunity Field = iota
	FieldLayout
	FieldArea
	FieldFloor
	FieldTotalPrice
	FieldUnitPrice
	FieldListingPrice
	FieldDealDate
	FieldDaysOnMarket
	FieldOrientation
	FieldDecoration
	FieldTags
	FieldBuildYear
	FieldAttention
	FieldDistrict
	FieldBusinessArea

	numFields
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindDate
)

var fieldInfo = [numFields]struct {
	key    string
	header string
	kind   fieldKind
}{
	FieldCommunity:    {"community", "小区名称", kindText},
	FieldLayout:       {"layout", "户型", kindText},
	FieldArea:         {"area", "面积(㎡)", kindNumber},
	FieldFloor:        {"floor", "楼层", kindText},
	FieldTotalPrice:   {"total_price", "总价(万)", kindNumber},
	FieldUnitPrice:    {"unit_price", "单价(元/平)", kindNumber},
	FieldListingPrice: {"listing_price", "挂牌价(万)", kindNumber},
	FieldDealDate:     {"deal_date", "成交日期", kindDate},
	FieldDaysOnMarket: {"days_on_market", "成交周期(天)", kindNumber},
	FieldOrientation:  {"orientation", "朝向", kindText},
	FieldDecoration:   {"decoration", "装修", kindText},
	FieldTags:         {"tags", "标签", kindText},
	FieldBuildYear:    {"build_year", "建成年代", kindNumber},
	FieldAttention:    {"attention", "关注人数", kindNumber},
	FieldDistrict:     {"district", "区域", kindText},
	FieldBusinessArea: {"business_area", "商圈", kindText},
}

// Key is the stable English identifier used in JSON, logs and issues.
func (f Field) Key() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldInfo[f].key
}

// Header is the canonical column name the normalizer produces.
func (f Field) Header() string {
	if f < 0 || f >= numFields {
		return ""
	}
	return fieldInfo[f].header
}

func (f Field) String() string { return f.Key() }

func (f Field) MarshalText() ([]byte, error) { return []byte(f.Key()), nil }

func (f *Field) UnmarshalText(b []byte) error {
	v, ok := FieldByKey(string(b))
	if !ok {
		return fmt.Errorf("unknown field %q", string(b))
	}
	*f = v
	return nil
}

// Numeric reports whether the field holds a number.
func (f Field) Numeric() bool { return f >= 0 && f < numFields && fieldInfo[f].kind == kindNumber }

// AllFields lists canonical fields in declaration order.
func AllFields() []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		out = append(out, f)
	}
	return out
}

// FieldByKey resolves either an English key or a canonical header.
func FieldByKey(s string) (Field, bool) {
	s = strings.TrimSpace(s)
	for f := Field(0); f < numFields; f++ {
		if strings.EqualFold(fieldInfo[f].key, s) || fieldInfo[f].header == s {
			return f, true
		}
	}
	return 0, false
}

// FieldSet records which canonical fields a dataset carries.
type FieldSet uint32

func (s FieldSet) Has(f Field) bool { return f >= 0 && f < numFields && s&(1<<uint(f)) != 0 }

// HasAll reports whether every listed field is present.
func (s FieldSet) HasAll(fs ...Field) bool {
	for _, f := range fs {
		if !s.Has(f) {
			return false
		}
	}
	return true
}

func (s FieldSet) With(f Field) FieldSet { return s | 1<<uint(f) }

// Fields returns the members in declaration order.
func (s FieldSet) Fields() []Field {
	var out []Field
	for f := Field(0); f < numFields; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Record is one cleaned listing or transaction. A nil slot means the value
// is missing or was rejected during cleaning.
type Record struct {
	ID  string `json:"id"`
	Row int    `json:"row"`

	Community    *string    `json:"community,omitempty"`
	Layout       *string    `json:"layout,omitempty"`
	Area         *float64   `json:"area,omitempty"`
	Floor        *string    `json:"floor,omitempty"`
	TotalPrice   *float64   `json:"total_price,omitempty"`
	UnitPrice    *float64   `json:"unit_price,omitempty"`
	ListingPrice *float64   `json:"listing_price,omitempty"`
	DealDate     *time.Time `json:"deal_date,omitempty"`
	DaysOnMarket *float64   `json:"days_on_market,omitempty"`
	Orientation  *string    `json:"orientation,omitempty"`
	Decoration   *string    `json:"decoration,omitempty"`
	Tags         *string    `json:"tags,omitempty"`
	BuildYear    *float64   `json:"build_year,omitempty"`
	Attention    *float64   `json:"attention,omitempty"`
	District     *string    `json:"district,omitempty"`
	BusinessArea *string    `json:"business_area,omitempty"`
}

func (r *Record) numberSlot(f Field) **float64 {
	switch f {
	case FieldArea:
		return &r.Area
	case FieldTotalPrice:
		return &r.TotalPrice
	case FieldUnitPrice:
		return &r.UnitPrice
	case FieldListingPrice:
		return &r.ListingPrice
	case FieldDaysOnMarket:
		return &r.DaysOnMarket
	case FieldBuildYear:
		return &r.BuildYear
	case FieldAttention:
		return &r.Attention
	}
	return nil
}

func (r *Record) textSlot(f Field) **string {
	switch f {
	case FieldCommunity:
		return &r.Community
	case FieldLayout:
		return &r.Layout
	case FieldFloor:
		return &r.Floor
	case FieldOrientation:
		return &r.Orientation
	case FieldDecoration:
		return &r.Decoration
	case FieldTags:
		return &r.Tags
	case FieldDistrict:
		return &r.District
	case FieldBusinessArea:
		return &r.BusinessArea
	}
	return nil
}

// Number returns a numeric field value and whether it is present.
func (r *Record) Number(f Field) (float64, bool) {
	p := r.numberSlot(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Text returns a text field value and whether it is present.
func (r *Record) Text(f Field) (string, bool) {
	p := r.textSlot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Value renders any field as display text; missing values render as "".
func (r *Record) Value(f Field) string {
	if f == FieldDealDate {
		if r.DealDate == nil {
			return ""
		}
		return r.DealDate.Format("2006-01-02")
	}
	if v, ok := r.Number(f); ok {
		return formatNumber(v)
	}
	v, _ := r.Text(f)
	return v
}

// Dataset is the cleaned, ordered collection of records from one load.
type Dataset struct {
	Domain  Domain    `json:"domain"`
	Fields  FieldSet  `json:"-"`
	Records []*Record `json:"records"`
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Find returns the record with the given ID, or nil.
func (d *Dataset) Find(id string) *Record {
	if d == nil {
		return nil
	}
	for _, r := range d.Records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// withRecords shares the schema of d over a different record slice.
func (d *Dataset) withRecords(recs []*Record) *Dataset {
	return &Dataset{Domain: d.Domain, Fields: d.Fields, Records: recs}
}

// numbers collects the values of f over records where every field in also is present.
func (d *Dataset) numbers(f Field, also ...Field) []float64 {
	var out []float64
	for _, r := range d.Records {
		v, ok := r.Number(f)
		if !ok {
			continue
		}
		skip := false
		for _, g := range also {
			if _, ok := r.Number(g); !ok {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, v)
		}
	}
	return out
}
