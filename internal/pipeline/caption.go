package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

// CaptionStyle holds the per-source wording of a social caption.
type CaptionStyle struct {
	Emoji string
	// UnitPhrase replaces the series unit in prose, e.g. "Million Square
	// Kilometers" for "10^6 km²". Empty means use the unit directly.
	UnitPhrase string
	Hashtags   []string
}

// Caption composes the daily post text, e.g.
//
//	🌏🔥🌡️: Today's North Atlantic Sea Surface Temperature Anomaly is 0.85°C above the 1982–2010 mean.
//
//	#ClimateChange #NorthAtlantic
//
// Magnitudes are absolute; the direction word carries the sign.
func Caption(info domain.SeriesInfo, style CaptionStyle, res domain.AnomalyResult) string {
	var b strings.Builder

	if style.Emoji != "" {
		b.WriteString(style.Emoji)
		b.WriteString(": ")
	}

	fmt.Fprintf(&b, "Today's %s Anomaly is %s", info.Title, formatMagnitude(res.Anomaly, info.Unit, style.UnitPhrase))
	if res.Sigma != nil {
		fmt.Fprintf(&b, " (%.2fσ)", math.Abs(*res.Sigma))
	}
	fmt.Fprintf(&b, " %s the %d–%d mean.", direction(res.Anomaly), res.ReferenceStart, res.ReferenceEnd)

	if len(style.Hashtags) > 0 {
		b.WriteString("\n\n")
		tags := make([]string, len(style.Hashtags))
		for i, tag := range style.Hashtags {
			tags[i] = "#" + strings.TrimPrefix(tag, "#")
		}
		b.WriteString(strings.Join(tags, " "))
	}

	return b.String()
}

func formatMagnitude(anomaly float64, unit, phrase string) string {
	value := fmt.Sprintf("%.2f", math.Abs(anomaly))
	if phrase != "" {
		return value + " " + phrase
	}
	if unit == "" {
		return value
	}
	// Symbols such as °C attach directly; words take a space.
	if strings.HasPrefix(unit, "°") || unit == "%" {
		return value + unit
	}
	return value + " " + unit
}

func direction(anomaly float64) string {
	if anomaly < 0 {
		return "below"
	}
	return "above"
}
