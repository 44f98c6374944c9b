package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/dubaieta/core/regression"
)

// WriteImportanceChart renders the top n importances as a standalone HTML
// bar chart. A non-positive n renders every feature.
func WriteImportanceChart(w io.Writer, imps []regression.Importance, n int) error {
	if n > 0 && len(imps) > n {
		imps = imps[:n]
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Feature importance", Subtitle: "advanced model"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Feature", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Importance"}),
	)

	names := make([]string, 0, len(imps))
	values := make([]opts.BarData, 0, len(imps))
	for _, imp := range imps {
		names = append(names, imp.Feature)
		values = append(values, opts.BarData{Value: imp.Importance})
	}
	bar.SetXAxis(names).AddSeries("importance", values)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
