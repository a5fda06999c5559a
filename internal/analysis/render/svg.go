package render

import (
	"fmt"
	"strings"

	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// Canvas geometry. The value axis is fixed to the clinically interesting
// domain; out-of-domain points still plot, only the axis is pinned.
const (
	width         = 850
	height        = 450
	paddingLeft   = 80
	paddingBottom = 80
	paddingTop    = 40
	paddingRight  = 100

	minGlucose = 40
	maxGlucose = 250

	hypoLine  = 70
	hyperLine = 180
)

// TrendSVG renders the glucose window, per-sample instability markers, the
// threshold reference lines and the predicted point as an SVG document. It is
// a pure function: identical numeric inputs produce byte-identical output,
// which keeps golden-file testing possible. Timestamps may be epoch seconds
// or milliseconds; labels are rendered in UTC.
func TrendSVG(glucoses, peaks []float64, predicted float64, timestamps []int64) []byte {
	count := len(glucoses)
	if count == 0 {
		return nil
	}

	var points []string
	var circles strings.Builder
	for i, g := range glucoses {
		x := xCoord(i, count)
		y := yCoord(g)
		points = append(points, fnum(x)+","+fnum(y))
		fmt.Fprintf(&circles, `<circle cx="%s" cy="%s" r="4" fill="#1f77b4"/>`, fnum(x), fnum(y))
	}
	polyline := strings.Join(points, " ")

	var peakCircles, rangeLines, rangeTicks, valueLabels strings.Builder
	for i, peak := range peaks {
		if i >= count {
			break
		}
		value := glucoses[i]
		x := xCoord(i, count)
		yPeak := yCoord(peak)
		fmt.Fprintf(&peakCircles, `<circle cx="%s" cy="%s" r="4" fill="red"/>`, fnum(x), fnum(yPeak))
		// Mirror the excursion about the plotted value to show the implied range.
		extreme := 2*value - peak
		yExtreme := yCoord(extreme)
		fmt.Fprintf(&rangeLines, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="orange" stroke-width="2" stroke-dasharray="4,2"/>`,
			fnum(x), fnum(yPeak), fnum(x), fnum(yExtreme))
		fmt.Fprintf(&rangeTicks, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="orange" stroke-width="2"/>`,
			fnum(x-5), fnum(yExtreme), fnum(x+5), fnum(yExtreme))
		fmt.Fprintf(&valueLabels, `<text x="%s" y="%s" font-size="11" fill="blue">%.0f</text>`,
			fnum(x+5), fnum(yCoord(value)-10), value)
	}

	var timeLabels strings.Builder
	for i, ts := range timestamps {
		if i >= count {
			break
		}
		x := xCoord(i, count)
		y := float64(height - paddingBottom + 25)
		label := telemetry.EpochTime(ts).Format("02/01 15:04")
		fmt.Fprintf(&timeLabels, `<text x="%s" y="%s" font-size="10" text-anchor="end" transform="rotate(-45 %s,%s)">%s</text>`,
			fnum(x), fnum(y), fnum(x), fnum(y), label)
	}

	xLast := xCoord(count-1, count)
	xPred := xCoord(count, count)
	yLast := yCoord(glucoses[count-1])
	yPred := yCoord(predicted)

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, width, height)
	svg.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	fmt.Fprintf(&svg, `<line x1="%d" y1="%s" x2="%d" y2="%s" stroke="red" stroke-dasharray="5,5"/><text x="10" y="%s" font-size="12" fill="red">70 (Hypo)</text>`,
		paddingLeft, fnum(yCoord(hypoLine)), width-paddingRight, fnum(yCoord(hypoLine)), fnum(yCoord(hypoLine)+4))
	fmt.Fprintf(&svg, `<line x1="%d" y1="%s" x2="%d" y2="%s" stroke="red" stroke-dasharray="5,5"/><text x="10" y="%s" font-size="12" fill="red">180 (Hyper)</text>`,
		paddingLeft, fnum(yCoord(hyperLine)), width-paddingRight, fnum(yCoord(hyperLine)), fnum(yCoord(hyperLine)+4))
	fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black" stroke-width="2"/>`,
		paddingLeft, paddingTop, paddingLeft, height-paddingBottom)
	fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black" stroke-width="2"/>`,
		paddingLeft, height-paddingBottom, width-paddingRight, height-paddingBottom)
	fmt.Fprintf(&svg, `<text x="%s" y="%d" font-size="14" font-weight="bold" text-anchor="middle">Time (Day/Month)</text>`,
		fnum(float64(width+paddingLeft-paddingRight)/2), height-10)
	fmt.Fprintf(&svg, `<text x="20" y="%s" font-size="14" font-weight="bold" transform="rotate(-90 20,%s)" text-anchor="middle">Glucose (mg/dL)</text>`,
		fnum(float64(height)/2), fnum(float64(height)/2))
	svg.WriteString(timeLabels.String())
	fmt.Fprintf(&svg, `<polyline points="%s" fill="none" stroke="#1f77b4" stroke-width="3"/>`, polyline)
	svg.WriteString(circles.String())
	svg.WriteString(valueLabels.String())
	svg.WriteString(peakCircles.String())
	svg.WriteString(rangeLines.String())
	svg.WriteString(rangeTicks.String())
	fmt.Fprintf(&svg, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="purple" stroke-width="2" stroke-dasharray="4,2"/>`,
		fnum(xLast), fnum(yLast), fnum(xPred), fnum(yPred))
	fmt.Fprintf(&svg, `<circle cx="%s" cy="%s" r="5" fill="purple"/>`, fnum(xPred), fnum(yPred))
	fmt.Fprintf(&svg, `<text x="%s" y="%s" font-size="12" fill="purple" font-weight="bold">Prediction</text>`,
		fnum(xPred+8), fnum(yPred-5))
	fmt.Fprintf(&svg, `<text x="%s" y="%s" font-size="12" fill="purple" font-weight="bold">%.2f mg/dL</text>`,
		fnum(xPred+8), fnum(yPred+10), predicted)
	svg.WriteString(`</svg>`)

	return []byte(svg.String())
}

func yCoord(glucose float64) float64 {
	scale := (glucose - minGlucose) / (maxGlucose - minGlucose)
	return float64(height-paddingBottom) - scale*float64(height-paddingTop-paddingBottom)
}

func xCoord(i, count int) float64 {
	return float64(paddingLeft) + float64(i)*float64(width-paddingLeft-paddingRight)/float64(count)
}

func fnum(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
