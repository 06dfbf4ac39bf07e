// Package sample generates synthetic listing and transaction tables using
// the column names found in typical brokerage exports.
package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/brianvoe/gofakeit/v6"
)

// Options controls one generated table.
type Options struct {
	Domain analysis.Domain
	Rows   int
	// Seed makes output reproducible; 0 picks a random seed.
	Seed int64
	// Start is the first deal month for transactions; zero means twelve
	// months before the current month.
	Start time.Time
	// Months spreads deal dates over this many months.
	Months int
	// Dirty mixes in blank, malformed and out-of-range cells.
	Dirty bool
}

var forSaleHeaders = []string{
	"小区", "户型结构", "建筑面积", "总价", "单价", "楼层信息", "房屋朝向",
	"装修情况", "房源标签", "建筑年代", "关注", "行政区", "板块",
}

var transactionHeaders = []string{
	"小区", "户型结构", "建筑面积", "成交价(万)", "成交单价", "挂牌价", "成交时间",
	"成交周期", "楼层信息", "房屋朝向", "装修情况", "建筑年代", "行政区", "板块",
}

type district struct {
	name  string
	areas []string
	// base unit price in yuan per square metre
	base float64
}

var districts = []district{
	{"浦东", []string{"陆家嘴", "张江", "川沙"}, 68000},
	{"徐汇", []string{"徐家汇", "田林", "漕河泾"}, 82000},
	{"闵行", []string{"莘庄", "七宝", "梅陇"}, 52000},
	{"宝山", []string{"大场", "顾村"}, 42000},
}

var (
	communitySuffixes = []string{"花园", "苑", "新村", "公寓", "家园", "名邸"}
	orientations      = []string{"南", "南北", "东南", "东", "西", "北", "西南"}
	decorations       = []string{"精装", "简装", "毛坯", "其他"}
	floorLevels       = []string{"低楼层", "中楼层", "高楼层"}
	tagPool           = []string{"近地铁", "VR看装修", "房本满五年", "房本满两年", "随时看房", "必看好房"}
)

// Generate builds a raw table for opts.Domain with opts.Rows rows.
func Generate(opts Options) *analysis.Table {
	if opts.Rows <= 0 {
		opts.Rows = 100
	}
	if opts.Months <= 0 {
		opts.Months = 12
	}
	if opts.Start.IsZero() {
		now := time.Now()
		opts.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -opts.Months, 0)
	}
	f := gofakeit.New(opts.Seed)

	communities := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		communities = append(communities, f.LastName()+f.RandomString(communitySuffixes))
	}

	headers := forSaleHeaders
	if opts.Domain == analysis.DomainTransaction {
		headers = transactionHeaders
	}
	rows := make([][]string, 0, opts.Rows)
	for i := 0; i < opts.Rows; i++ {
		rows = append(rows, row(f, opts, communities))
	}
	name := fmt.Sprintf("sample-%s", opts.Domain)
	return analysis.NewTable(name, headers, rows)
}

func row(f *gofakeit.Faker, opts Options, communities []string) []string {
	d := districts[f.Number(0, len(districts)-1)]
	rooms := f.Number(1, 4)
	halls := f.Number(1, 2)
	area := round1(float64(rooms)*f.Float64Range(22, 38) + 18)
	year := f.Number(1990, 2022)
	ageFactor := 1 - float64(2022-year)*0.006
	unit := math.Round(d.base * ageFactor * f.Float64Range(0.8, 1.2))
	total := round1(unit * area / 10000)

	cells := map[string]string{
		"小区":   communities[f.Number(0, len(communities)-1)],
		"户型结构": fmt.Sprintf("%d室%d厅", rooms, halls),
		"建筑面积": ftoa(area),
		"楼层信息": fmt.Sprintf("%s(共%d层)", f.RandomString(floorLevels), f.Number(6, 33)),
		"房屋朝向": f.RandomString(orientations),
		"装修情况": f.RandomString(decorations),
		"建筑年代": strconv.Itoa(year),
		"行政区":  d.name,
		"板块":   f.RandomString(d.areas),
	}
	var headers []string
	if opts.Domain == analysis.DomainTransaction {
		headers = transactionHeaders
		discount := f.Float64Range(0, 0.12)
		day := f.Number(0, opts.Months*30)
		cells["成交价(万)"] = ftoa(total)
		cells["成交单价"] = ftoa(unit)
		cells["挂牌价"] = ftoa(round1(total / (1 - discount)))
		cells["成交时间"] = opts.Start.AddDate(0, 0, day).Format("2006.01.02")
		cells["成交周期"] = strconv.Itoa(f.Number(3, 240))
	} else {
		headers = forSaleHeaders
		cells["总价"] = ftoa(total)
		cells["单价"] = fmt.Sprintf("%s元/平", strconv.FormatFloat(unit, 'f', 0, 64))
		cells["房源标签"] = tags(f)
		cells["关注"] = strconv.Itoa(f.Number(0, 300))
	}

	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = cells[h]
	}
	if opts.Dirty {
		dirty(f, out)
	}
	return out
}

func tags(f *gofakeit.Faker) string {
	n := f.Number(0, 3)
	picked := make([]string, 0, n)
	for len(picked) < n {
		t := f.RandomString(tagPool)
		dup := false
		for _, p := range picked {
			dup = dup || p == t
		}
		if !dup {
			picked = append(picked, t)
		}
	}
	return strings.Join(picked, " ")
}

// dirty blanks, garbles or inflates one cell in roughly one row of ten.
func dirty(f *gofakeit.Faker, row []string) {
	if f.Number(1, 10) != 1 {
		return
	}
	i := f.Number(0, len(row)-1)
	switch f.Number(0, 2) {
	case 0:
		row[i] = ""
	case 1:
		row[i] = "暂无数据"
	default:
		row[i] = "99999999"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
