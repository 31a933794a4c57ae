package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// handlePolarChart renders the live trail as an XY scatter (HTML) using
// go-echarts. Debugging-only endpoint to eyeball the trail without a
// terminal attached.
func (ws *WebServer) handlePolarChart(w http.ResponseWriter, r *http.Request) {
	if ws.scope == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "scope not configured")
		return
	}

	st := ws.scope.Snapshot()
	cx, cy := ws.scope.Center()

	data := make([]opts.ScatterData, 0, len(st.Trail))
	for _, p := range st.Trail {
		// Center-relative, with north up.
		x := p.X - cx
		y := cy - p.Y
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, p.Distance}})
	}

	pad := 0.4*float64(st.CanvasSize)*1.05 + 1

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scope Trail (Polar->XY)", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Scope Trail", Subtitle: fmt.Sprintf("angle=%d points=%d", st.Angle, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(telemetry.MaxDistanceCM),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#d73027", "#fc8d59", "#fee08b", "#d9ef8b", "#91cf60", "#1a9850"}},
		}),
	)

	scatter.AddSeries("trail", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePlotPNG renders a static PNG snapshot of the trail with gonum/plot.
func (ws *WebServer) handlePlotPNG(w http.ResponseWriter, r *http.Request) {
	if ws.scope == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "scope not configured")
		return
	}

	st := ws.scope.Snapshot()
	cx, cy := ws.scope.Center()

	xys := make(plotter.XYs, 0, len(st.Trail))
	for _, tp := range st.Trail {
		xys = append(xys, plotter.XY{X: tp.X - cx, Y: cy - tp.Y})
	}

	p := plot.New()
	p.Title.Text = "scope trail"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	half := 0.4*float64(st.CanvasSize) + 1
	p.X.Min, p.X.Max = -half, half
	p.Y.Min, p.Y.Max = -half, half

	if len(xys) > 0 {
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build scatter: %v", err))
			return
		}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
	}

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		// Response already started; nothing sensible left to do.
		return
	}
}
