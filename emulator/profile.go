package emulator

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/slices"
)

// Profile counts dispatched instructions per kind and syscalls per name.
type Profile struct {
	Kinds    map[arch.Kind]int `json:"-"`
	Syscalls map[string]int    `json:"syscalls"`
	Steps    int               `json:"steps"`
}

func NewProfile() *Profile {
	return &Profile{
		Kinds:    make(map[arch.Kind]int),
		Syscalls: make(map[string]int),
	}
}

func (p *Profile) countKind(k arch.Kind) {
	p.Kinds[k]++
	p.Steps++
}

func (p *Profile) countSyscall(name string) {
	p.Syscalls[name]++
}

func (p *Profile) syscallNames() []string {
	names := make([]string, 0, len(p.Syscalls))
	for name := range p.Syscalls {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ByMnemonic returns the kind counts keyed by mnemonic.
func (p *Profile) ByMnemonic() map[string]int {
	out := make(map[string]int, len(p.Kinds))
	for k, n := range p.Kinds {
		out[k.String()] = n
	}
	return out
}

func (p *Profile) String() string {
	names := p.syscallNames()
	s := fmt.Sprintf("steps=%d", p.Steps)
	for _, k := range arch.Kinds {
		if n := p.Kinds[k]; n > 0 {
			s += fmt.Sprintf(" %s=%d", k, n)
		}
	}
	for _, name := range names {
		s += fmt.Sprintf(" sys.%s=%d", name, p.Syscalls[name])
	}
	return s
}

// RenderHTML writes bar charts of the kind and syscall counts.
func (p *Profile) RenderHTML(w io.Writer) error {
	kinds := charts.NewBar()
	kinds.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Instructions by kind",
			Subtitle: fmt.Sprintf("%d steps", p.Steps),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	labels := make([]string, 0, len(arch.Kinds))
	data := make([]opts.BarData, 0, len(arch.Kinds))
	for _, k := range arch.Kinds {
		labels = append(labels, k.String())
		data = append(data, opts.BarData{Value: p.Kinds[k]})
	}
	kinds.SetXAxis(labels).AddSeries("count", data)

	sys := charts.NewBar()
	sys.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Syscalls"}))
	names := p.syscallNames()
	sysData := make([]opts.BarData, 0, len(names))
	for _, name := range names {
		sysData = append(sysData, opts.BarData{Value: p.Syscalls[name]})
	}
	sys.SetXAxis(names).AddSeries("count", sysData)

	page := components.NewPage()
	page.AddCharts(kinds, sys)
	return page.Render(w)
}
