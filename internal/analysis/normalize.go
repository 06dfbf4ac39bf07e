package analysis

import "strings"

// Rename is one header substitution applied by the normalizer.
type Rename struct {
	Field Field  `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Rules maps each canonical field to source aliases in priority order.
type Rules struct {
	Domain  Domain
	order   []Field
	aliases map[Field][]string
}

var sharedAliases = map[Field][]string{
	FieldCommunity:    {"小区", "小区名", "楼盘名称", "楼盘", "社区名称", "community", "community_name"},
	FieldLayout:       {"房屋户型", "户型结构", "居室", "layout", "room_type"},
	FieldArea:         {"建筑面积(㎡)", "建筑面积(平米)", "建筑面积", "面积", "面积(平米)", "area", "area_sqm"},
	FieldFloor:        {"楼层信息", "所在楼层", "楼层位置", "floor"},
	FieldOrientation:  {"房屋朝向", "朝向信息", "orientation"},
	FieldDecoration:   {"装修情况", "装修状况", "decoration"},
	FieldTags:         {"房源标签", "特色标签", "tags"},
	FieldBuildYear:    {"年代", "建筑年代", "建成年份", "build_year", "year_built"},
	FieldAttention:    {"关注", "关注数", "关注人数(人)", "attention", "followers"},
	FieldDistrict:     {"行政区", "城区", "district"},
	FieldBusinessArea: {"板块", "商圈名称", "business_area"},
}

var forSaleAliases = map[Field][]string{
	FieldTotalPrice: {"总价", "总价(万元)", "挂牌总价(万)", "售价(万)", "total_price", "price"},
	FieldUnitPrice:  {"单价", "单价(元/㎡)", "挂牌单价(元/平)", "unit_price", "price_per_sqm"},
}

var transactionAliases = map[Field][]string{
	FieldTotalPrice:   {"成交总价(万)", "成交价(万)", "成交总价", "成交价", "总价", "deal_price", "total_price"},
	FieldUnitPrice:    {"成交单价(元/平)", "成交单价", "单价", "unit_price"},
	FieldListingPrice: {"挂牌价", "挂牌总价(万)", "挂牌价格(万)", "listing_price"},
	FieldDealDate:     {"成交时间", "签约日期", "日期", "deal_date", "date"},
	FieldDaysOnMarket: {"成交周期", "周期(天)", "成交天数", "days_on_market"},
}

// RulesFor returns the built-in rule set of a domain.
func RulesFor(domain Domain) *Rules {
	r := &Rules{Domain: domain, order: AllFields(), aliases: map[Field][]string{}}
	extra := forSaleAliases
	if domain == DomainTransaction {
		extra = transactionAliases
	}
	for _, src := range []map[Field][]string{extra, sharedAliases} {
		for f, names := range src {
			r.aliases[f] = append(r.aliases[f], names...)
		}
	}
	return r
}

// WithExtra returns a copy of r with user aliases appended after the
// built-in ones. Keys are field keys or canonical headers; unknown keys and
// aliases that collide with a canonical header are dropped.
func (r *Rules) WithExtra(extra map[string][]string) *Rules {
	out := &Rules{Domain: r.Domain, order: r.order, aliases: make(map[Field][]string, len(r.aliases))}
	for f, names := range r.aliases {
		out.aliases[f] = append([]string(nil), names...)
	}
	for key, names := range extra {
		f, ok := FieldByKey(key)
		if !ok {
			continue
		}
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" || isCanonicalHeader(n) || contains(out.aliases[f], n) {
				continue
			}
			out.aliases[f] = append(out.aliases[f], n)
		}
	}
	return out
}

// Aliases returns the priority list for a field.
func (r *Rules) Aliases(f Field) []string { return append([]string(nil), r.aliases[f]...) }

// Apply renames the first present alias of every absent canonical field.
// Canonical columns already in the table are never overwritten, so applying
// the same rules twice changes nothing.
func (r *Rules) Apply(t *Table) (*Table, []Rename) {
	out := t.Clone()
	var renames []Rename
	for _, f := range r.order {
		header := f.Header()
		if out.Has(header) {
			continue
		}
		for _, alias := range r.aliases[f] {
			if idx := out.Index(alias); idx >= 0 {
				out.Columns[idx] = header
				renames = append(renames, Rename{Field: f, From: alias, To: header})
				break
			}
		}
	}
	return out, renames
}

// Normalize applies the built-in rules of domain to t.
func Normalize(t *Table, domain Domain) (*Table, []Rename) {
	return RulesFor(domain).Apply(t)
}

func isCanonicalHeader(s string) bool {
	for f := Field(0); f < numFields; f++ {
		if f.Header() == s {
			return true
		}
	}
	return false
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
