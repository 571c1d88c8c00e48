package graderoster

import (
	"bytes"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette holds the chart colors.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	TextColor  drawing.Color
}

// DefaultPalette is a light theme.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorWhite,
	Bar:        drawing.ColorFromHex("2f6f4f"),
	TextColor:  drawing.ColorFromHex("222222"),
}

// Chart renders a PNG bar chart of members per grade.
func Chart(roster gradeservice.Roster, palette ChartPalette) ([]byte, error) {
	bars := make([]chart.Value, 0, len(roster.Groups))
	peak := 0
	for _, g := range roster.Groups {
		n := len(g.Members)
		if n > peak {
			peak = n
		}
		bars = append(bars, chart.Value{
			Label: g.Marker.String(),
			Value: float64(n),
			Style: chart.Style{
				FillColor:   palette.Bar,
				StrokeColor: palette.Bar,
			},
		})
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "none", Value: 0})
	}

	graph := chart.BarChart{
		Title:  "Members by grade",
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		TitleStyle: chart.Style{
			FontColor: palette.TextColor,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			// An explicit range keeps an all-zero roster renderable.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak + 1)},
		},
		BarWidth: 60,
		Bars:     bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
