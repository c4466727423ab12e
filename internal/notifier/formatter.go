package notifier

import (
	"fmt"
	"html"
	"strings"

	"SpreadScope/internal/calculator"
	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
)

// FormatSpreadSummary formats the latest row of a result into a Telegram message.
func FormatSpreadSummary(res *model.SpreadResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b>\n\n", html.EscapeString(res.Meta.Title)))
	last, ok := res.Latest()
	if !ok {
		b.WriteString("暂无数据")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("时间: %s\n", last.Time.Format("2006-01-02 15:04")))
	change := last.Close - last.SessionOpen
	b.WriteString(fmt.Sprintf("最新价差: %.2f (较开盘 %+.2f)\n", last.Close, change))
	b.WriteString(fmt.Sprintf("均价: %.2f | 开盘: %.2f\n", last.AvgPrice, last.SessionOpen))
	b.WriteString(fmt.Sprintf("最高: %.2f | 最低: %.2f\n\n", last.DayHigh, last.DayLow))

	if last.SMA.Valid {
		b.WriteString(fmt.Sprintf("📈 <b>布林带(%d, %g):</b>\n", calculator.BandPeriod, calculator.BandWidth))
		b.WriteString(fmt.Sprintf("  上轨: %.2f\n", last.UpperBand.Value))
		b.WriteString(fmt.Sprintf("  中轨: %.2f\n", last.SMA.Value))
		b.WriteString(fmt.Sprintf("  下轨: %.2f\n", last.LowerBand.Value))
		switch {
		case last.Close > last.UpperBand.Value:
			b.WriteString("\n⚠️ 价差突破上轨")
		case last.Close < last.LowerBand.Value:
			b.WriteString("\n⚠️ 价差跌破下轨")
		}
	} else {
		b.WriteString(fmt.Sprintf("布林带: 数据不足 (%d/%d)\n", len(res.Rows), calculator.BandPeriod))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFailure formats a failed computation for a chat.
func FormatFailure(title, message string) string {
	return fmt.Sprintf("❌ <b>%s</b>\n\n%s", html.EscapeString(title), message)
}

// FormatPresets lists the available presets.
func FormatPresets(presets []config.PresetInfo) string {
	var b strings.Builder
	b.WriteString("📋 <b>可用品种预设</b>\n\n")
	for _, p := range presets {
		b.WriteString(fmt.Sprintf("• %s [%s] %s\n", html.EscapeString(p.Name), p.Code, strings.Join(p.Legs, "-")))
	}
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "可用命令:\n" +
		"• /presets 查看品种预设\n" +
		"• /spread &lt;品种&gt; [周期] 计算价差，例如 /spread SH 5min\n" +
		"• /help 帮助"
}
