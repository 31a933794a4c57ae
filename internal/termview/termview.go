// Package termview draws the scope model into a terminal using tcell. The
// redraw loop runs at a fixed frame rate independent of sample arrival: each
// frame clears the canvas, redraws the polar grid, the live sweep line, and
// the fading trail.
package termview

import (
	"context"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/fieldscan/sonarscope/internal/scope"
)

// aspectX stretches the model grid horizontally. Terminal cells are roughly
// twice as tall as they are wide, so a circle needs the doubling to look
// round.
const aspectX = 2

// statusRows is the number of rows above the canvas used for the status line.
const statusRows = 1

const (
	ringRune  = '·'
	spokeRune = '.'
	sweepRune = '*'
	trailRune = 'o'
)

// View renders a Scope onto a tcell screen.
type View struct {
	screen      tcell.Screen
	scope       *scope.Scope
	frameRateHz int
}

// New creates a View. The screen must already be initialized.
func New(screen tcell.Screen, sc *scope.Scope, frameRateHz int) *View {
	if frameRateHz <= 0 {
		frameRateHz = 30
	}
	return &View{screen: screen, scope: sc, frameRateHz: frameRateHz}
}

// Run redraws at the configured frame rate until ctx is cancelled or the
// user quits (q, Escape, or Ctrl-C). It owns screen teardown.
func (v *View) Run(ctx context.Context) error {
	defer v.screen.Fini()

	quit := make(chan struct{})
	go func() {
		for {
			switch ev := v.screen.PollEvent().(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					close(quit)
					return
				}
			case *tcell.EventResize:
				v.screen.Sync()
			case nil:
				// Screen finalized.
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(v.frameRateHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quit:
			return nil
		case <-ticker.C:
			v.renderFrame()
		}
	}
}

// renderFrame ages the trail by one frame and redraws everything.
func (v *View) renderFrame() {
	v.scope.Advance()
	st := v.scope.Snapshot()

	v.screen.Clear()
	v.drawStatus(st)
	v.drawGrid(st)
	v.drawSweepLine(st)
	v.drawTrail(st)
	v.screen.Show()
}

// cellFor maps model canvas coordinates to screen cells.
func (v *View) cellFor(x, y float64) (int, int) {
	return int(math.Round(x * aspectX)), statusRows + int(math.Round(y))
}

func (v *View) setCell(x, y float64, r rune, style tcell.Style) {
	sx, sy := v.cellFor(x, y)
	w, h := v.screen.Size()
	if sx < 0 || sy < statusRows || sx >= w || sy >= h {
		return
	}
	v.screen.SetContent(sx, sy, r, nil, style)
}

func (v *View) drawStatus(st scope.State) {
	text := statusLine(st)
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for i, r := range text {
		w, _ := v.screen.Size()
		if i >= w {
			break
		}
		v.screen.SetContent(i, 0, r, nil, style)
	}
}

// drawGrid draws the concentric range rings and angular spokes every 30
// degrees across the swept half-plane.
func (v *View) drawGrid(st scope.State) {
	cx, cy := v.scope.Center()
	maxRadius := 0.4 * float64(st.CanvasSize)
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)

	// Four evenly spaced rings; the outermost is the 400cm boundary. Only
	// the swept upper half is drawn.
	for ring := 1; ring <= 4; ring++ {
		radius := maxRadius * float64(ring) / 4
		for deg := 180.0; deg <= 360; deg += 2 {
			rad := deg * math.Pi / 180
			v.setCell(cx+math.Cos(rad)*radius, cy+math.Sin(rad)*radius, ringRune, style)
		}
	}

	// Spokes at 30 degree intervals of the sweep arc.
	for sweepDeg := 0; sweepDeg <= 180; sweepDeg += 30 {
		rad := float64(sweepDeg-90) * math.Pi / 180
		for r := maxRadius / 8; r <= maxRadius; r += 0.5 {
			v.setCell(cx+math.Cos(rad)*r, cy+math.Sin(rad)*r, spokeRune, style)
		}
	}
}

// drawSweepLine draws the live indicator from the center to the arc edge at
// the current angle.
func (v *View) drawSweepLine(st scope.State) {
	cx, cy := v.scope.Center()
	maxRadius := 0.4 * float64(st.CanvasSize)
	rad := float64(st.Angle-90) * math.Pi / 180
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	for r := 0.0; r <= maxRadius; r += 0.5 {
		v.setCell(cx+math.Cos(rad)*r, cy+math.Sin(rad)*r, sweepRune, style)
	}
}

// drawTrail plots every live trail point, dimmed by age.
func (v *View) drawTrail(st scope.State) {
	for _, p := range st.Trail {
		r, g, b := scope.Color(p.Distance)
		opacity := v.scope.Opacity(p)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(float64(r)*opacity),
			int32(float64(g)*opacity),
			int32(float64(b)*opacity),
		))
		v.setCell(p.X, p.Y, trailRune, style)
	}
}
