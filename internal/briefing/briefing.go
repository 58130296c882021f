// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package briefing renders the daily digest and delivers it through the
// openclaw messaging CLI.
package briefing

import (
	"fmt"
	"strings"
	"time"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// platformIcons decorate digest entries per source platform.
var platformIcons = map[string]string{
	"arxiv":   "📜",
	"biorxiv": "🧬",
	"medrxiv": "🏥",
}

// Build assembles a Briefing for the given day from the final paper
// list, computing per-platform counts.
func Build(day time.Time, papers []types.Paper, now time.Time) types.Briefing {
	platforms := map[string]int{}
	for _, p := range papers {
		platforms[p.Platform]++
	}
	return types.Briefing{
		Date:       day.Format("2006-01-02"),
		UpdateTime: now,
		Papers:     papers,
		TotalCount: len(papers),
		Platforms:  platforms,
	}
}

// Render formats the briefing as a message. At most maxSummaryPapers
// entries carry full detail; the remainder is noted in one truncation
// line so the message stays within chat-platform size limits.
// maxSummaryPapers < 1 means no limit.
func Render(b types.Briefing, maxSummaryPapers int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📅 科研论文日报 %s\n\n", b.Date)

	if b.TotalCount == 0 {
		sb.WriteString("今日没有发现相关论文。\n")
		writeFooter(&sb, b)
		return sb.String()
	}

	fmt.Fprintf(&sb, "📊 今日共 %d 篇相关论文", b.TotalCount)
	if parts := platformParts(b.Platforms); len(parts) > 0 {
		fmt.Fprintf(&sb, "（%s）", strings.Join(parts, "，"))
	}
	sb.WriteString("\n\n")

	shown := b.Papers
	if maxSummaryPapers > 0 && len(shown) > maxSummaryPapers {
		shown = shown[:maxSummaryPapers]
	}

	for i, p := range shown {
		icon := platformIcons[p.Platform]
		if icon == "" {
			icon = "📄"
		}
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, icon, p.Title)
		if p.SimilarityScore > 0 {
			fmt.Fprintf(&sb, "   相似度：%.2f\n", p.SimilarityScore)
		}
		if p.Summary != "" {
			fmt.Fprintf(&sb, "   %s\n", p.Summary)
		}
		if p.URL != "" {
			fmt.Fprintf(&sb, "   🔗 %s\n", p.URL)
		}
		sb.WriteString("\n")
	}

	if hidden := b.TotalCount - len(shown); hidden > 0 {
		fmt.Fprintf(&sb, "……另有 %d 篇论文未展开，详见完整日报。\n\n", hidden)
	}

	writeFooter(&sb, b)
	return sb.String()
}

func writeFooter(sb *strings.Builder, b types.Briefing) {
	if !b.UpdateTime.IsZero() {
		fmt.Fprintf(sb, "更新时间：%s\n", b.UpdateTime.Format("2006-01-02 15:04"))
	}
}

// platformParts returns per-platform count fragments in a fixed
// platform order so renders are deterministic.
func platformParts(platforms map[string]int) []string {
	var parts []string
	for _, name := range []string{"arxiv", "biorxiv", "medrxiv"} {
		if n := platforms[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d 篇", name, n))
		}
	}
	return parts
}

// TestMessage returns the connectivity-check message used by `send --test`.
func TestMessage(now time.Time) string {
	return fmt.Sprintf("🔬 科研论文日报测试消息\n发送于 %s，渠道配置正常。", now.Format("2006-01-02 15:04:05"))
}
