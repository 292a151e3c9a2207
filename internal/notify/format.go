package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// OpportunityAlert renders a newly found opportunity.
func OpportunityAlert(o domain.Opportunity) (title, message string) {
	title = "📈 Arbitrage Opportunity Found!"
	if o.ROIPercentage > 50 {
		title = "🔥 Arbitrage Opportunity Found!"
	}
	riskMark := "✅"
	if o.RiskScore > 6 {
		riskMark = "⚠️"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Product:** %s\n\n", truncate(o.ProductTitle, 80))
	b.WriteString("**💰 Profit Analysis:**\n")
	fmt.Fprintf(&b, "• Net Profit: %s\n", money(o.NetProfit))
	fmt.Fprintf(&b, "• ROI: %.1f%%\n", o.ROIPercentage)
	fmt.Fprintf(&b, "• Risk Score: %.1f/10 %s\n\n", o.RiskScore, riskMark)
	b.WriteString("**📊 Platform Comparison:**\n")
	fmt.Fprintf(&b, "• Buy from %s: %s\n", o.SourcePlatform.Title(), money(o.SourcePrice))
	fmt.Fprintf(&b, "• Sell on %s: %s\n\n", o.TargetPlatform.Title(), money(o.TargetPrice))
	b.WriteString("**💸 Cost Breakdown:**\n")
	fmt.Fprintf(&b, "• Source Cost: %s\n", money(o.SourcePrice.Add(o.SourceShipping)))
	fmt.Fprintf(&b, "• Target Fees: %s\n", money(o.TargetFee))
	fmt.Fprintf(&b, "• Source Fees: %s\n\n", money(o.SourceFee))
	b.WriteString("**🔗 Links:**\n")
	fmt.Fprintf(&b, "• Source: %s\n", truncate(o.SourceURL, 50))
	fmt.Fprintf(&b, "• Target: %s\n\n", truncate(o.TargetURL, 50))
	fmt.Fprintf(&b, "**📅 Found:** %s", o.CreatedAt.UTC().Format("2006-01-02 15:04"))
	return title, b.String()
}

// DailyDigest renders the daily summary with up to five top opportunities.
func DailyDigest(summary domain.OpportunitySummary, top []domain.Opportunity) (title, message string) {
	title = "📊 Daily Arbitrage Summary"
	if summary.TotalOpportunities == 0 {
		return title, "No new arbitrage opportunities found today."
	}

	var b strings.Builder
	b.WriteString("**Today's Results:**\n")
	fmt.Fprintf(&b, "• %d opportunities found\n", summary.TotalOpportunities)
	fmt.Fprintf(&b, "• %s total potential profit\n", money(summary.TotalProfit))
	fmt.Fprintf(&b, "• %.1f%% average ROI\n", summary.AverageROI)
	if len(top) > 0 {
		b.WriteString("\n**Top Opportunities:**\n")
		for i, o := range top[:min(len(top), 5)] {
			fmt.Fprintf(&b, "%d. %s profit - %s\n", i+1, money(o.NetProfit), truncate(o.ProductTitle, 40))
		}
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// ErrorAlert renders a component failure.
func ErrorAlert(component string, err error, at time.Time) (title, message string) {
	title = "🚨 System Error Alert"
	message = fmt.Sprintf("**Component:** %s\n**Error:** %v\n**Time:** %s\n\nPlease check the system logs for more details.",
		component, err, at.UTC().Format("2006-01-02 15:04:05"))
	return title, message
}

func money(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
