package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/Alias1177/SignalDesk/models"
)

var directionIcon = map[models.Direction]string{
	models.Long:  "🟢",
	models.Short: "🔴",
	models.Break: "🟡",
}

// FormatPlay renders a play as a plain-text message
func FormatPlay(play models.Play, snap *models.Snapshot) string {
	var b strings.Builder

	symbol := ""
	price := 0.0
	if snap != nil {
		symbol = snap.Symbol
		price = snap.Price
	}

	fmt.Fprintf(&b, "%s %s %s | %s (%s)\n", directionIcon[play.Direction], play.Direction, symbol, play.Name, play.ID)
	if price > 0 {
		fmt.Fprintf(&b, "Price: %s\n", formatPrice(price))
	}
	fmt.Fprintf(&b, "Entry: %s - %s\n", formatPrice(play.EntryZone.Low), formatPrice(play.EntryZone.High))
	fmt.Fprintf(&b, "Stop: %s\n", formatPrice(play.Stop))

	targets := make([]string, 0, len(play.Targets))
	for _, t := range play.Targets {
		targets = append(targets, formatPrice(t))
	}
	if len(targets) > 0 {
		fmt.Fprintf(&b, "Targets: %s\n", strings.Join(targets, " / "))
	}
	fmt.Fprintf(&b, "Leverage: %dx-%dx\n", play.LeverageRange.Min, play.LeverageRange.Max)

	q := play.Quality
	fmt.Fprintf(&b, "Quality: %d/10 (gate %d", q.Value, q.Gate)
	if q.Catalyst > 0 {
		fmt.Fprintf(&b, ", catalyst +%d", q.Catalyst)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "Factors: align %d, mom %d, crowd %d, struct %d, risk %d\n",
		q.Factors.Alignment, q.Factors.Momentum, q.Factors.Crowd, q.Factors.Structure, q.Factors.Risk)
	if q.GateDetail != "" {
		fmt.Fprintf(&b, "Gate: %s\n", q.GateDetail)
	}

	if snap != nil {
		fmt.Fprintf(&b, "Regime: %s%s, stress %d/10\n", snap.Regime.HTFTrend, regimeFlags(snap.Regime), snap.Stress)
		if len(snap.Context.Funding) > 0 {
			fmt.Fprintf(&b, "Funding: %.4f%% (z %.2f)\n", snap.Context.LastFunding()*100, snap.Context.FundingZ)
		}
	}
	if len(play.Reasons) > 0 {
		fmt.Fprintf(&b, "Why: %s\n", strings.Join(play.Reasons, "; "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func regimeFlags(r models.Regime) string {
	var flags []string
	if r.ADXStrong {
		flags = append(flags, "adx strong")
	}
	if r.LTFCompression {
		flags = append(flags, "compression")
	}
	if r.LTFExpansion {
		flags = append(flags, "expansion")
	}
	if len(flags) == 0 {
		return ""
	}
	return " (" + strings.Join(flags, ", ") + ")"
}

// formatPrice keeps more decimals for low priced assets
func formatPrice(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1000:
		return fmt.Sprintf("%.1f", v)
	case a >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}
