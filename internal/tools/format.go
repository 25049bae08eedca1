package tools

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/braiins"
)

// hashRateUnits in ascending order of magnitude, steps of 1000.
var hashRateUnits = []string{"h/s", "Kh/s", "Mh/s", "Gh/s", "Th/s", "Ph/s", "Eh/s", "Zh/s"}

// formatHashRate renders a hash rate in a readable unit, scaling up from the
// unit the API reported.
func formatHashRate(value float64, unit string) string {
	idx := -1
	for i, u := range hashRateUnits {
		if strings.EqualFold(u, unit) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Sprintf("%.2f %s", value, unit)
	}

	for value >= 1000 && idx < len(hashRateUnits)-1 {
		value /= 1000
		idx++
	}
	return fmt.Sprintf("%.2f %s", value, hashRateUnits[idx])
}

// formatUnixTime renders a unix timestamp as RFC 3339 UTC, or "never" for zero.
func formatUnixTime(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func formatUserOverview(o *braiins.UserOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Account overview: %s\n\n", o.Username)
	fmt.Fprintf(&b, "- Hash rate (5m / 1h / 24h): %s / %s / %s\n",
		formatHashRate(o.BTC.HashRate5m, o.BTC.HashRateUnit),
		formatHashRate(o.BTC.HashRate60m, o.BTC.HashRateUnit),
		formatHashRate(o.BTC.HashRate24h, o.BTC.HashRateUnit))
	fmt.Fprintf(&b, "- Workers: %d ok, %d low, %d off\n",
		o.BTC.OkWorkers, o.BTC.LowWorkers, o.BTC.OffWorkers)
	fmt.Fprintf(&b, "- Confirmed reward: %s BTC\n", o.BTC.ConfirmedReward)
	fmt.Fprintf(&b, "- Unconfirmed reward: %s BTC\n", o.BTC.UnconfirmedReward)
	fmt.Fprintf(&b, "- Estimated reward: %s BTC\n", o.BTC.EstimatedReward)
	fmt.Fprintf(&b, "- All-time reward: %s BTC\n", o.BTC.AllTimeReward)
	return b.String()
}

func formatWorkersList(list *braiins.WorkersList) string {
	names := make([]string, 0, len(list.BTC.Workers))
	for name := range list.BTC.Workers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "# Workers (%d)\n\n", len(names))
	if len(names) == 0 {
		b.WriteString("No workers found.\n")
		return b.String()
	}

	b.WriteString("| Worker | State | 5m | 24h | Last share |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, name := range names {
		w := list.BTC.Workers[name]
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			name, w.State,
			formatHashRate(w.HashRate5m, w.HashRateUnit),
			formatHashRate(w.HashRate24h, w.HashRateUnit),
			formatUnixTime(w.LastShare))
	}
	return b.String()
}

func formatWorkerDetails(d *braiins.WorkerDetails) string {
	w := d.Worker
	var b strings.Builder
	fmt.Fprintf(&b, "# Worker: %s\n\n", d.Name)
	fmt.Fprintf(&b, "- State: %s\n", w.State)
	fmt.Fprintf(&b, "- Last share: %s\n", formatUnixTime(w.LastShare))
	fmt.Fprintf(&b, "- Hash rate (5m / 1h / 24h): %s / %s / %s\n",
		formatHashRate(w.HashRate5m, w.HashRateUnit),
		formatHashRate(w.HashRate60m, w.HashRateUnit),
		formatHashRate(w.HashRate24h, w.HashRateUnit))
	fmt.Fprintf(&b, "- Scoring hash rate: %s\n", formatHashRate(w.HashRateScoring, w.HashRateUnit))
	fmt.Fprintf(&b, "- Shares (accepted / rejected / stale): %d / %d / %d\n",
		w.SharesAccepted, w.SharesRejected, w.SharesStale)
	return b.String()
}

func formatWorkerHashrate(h *braiins.WorkerHashrate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily hash rate (%d days)\n\n", len(h.BTC.Daily))
	if len(h.BTC.Daily) == 0 {
		b.WriteString("No data points.\n")
		return b.String()
	}

	b.WriteString("| Date | Hash rate |\n")
	b.WriteString("|---|---|\n")
	for _, p := range h.BTC.Daily {
		fmt.Fprintf(&b, "| %s | %s |\n", p.Date, formatHashRate(p.HashRate, h.BTC.HashRateUnit))
	}
	return b.String()
}

func formatUserRewards(r *braiins.UserRewards) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily rewards (%d days)\n\n", len(r.BTC.DailyRewards))
	if len(r.BTC.DailyRewards) == 0 {
		b.WriteString("No rewards recorded.\n")
		return b.String()
	}

	b.WriteString("| Date | Total | Mining | Bonus | Referral |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, d := range r.BTC.DailyRewards {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			d.Date, d.TotalReward, d.MiningReward, d.BonusReward, d.ReferralReward)
	}
	return b.String()
}

func formatPoolStats(s *braiins.PoolStats) string {
	p := s.BTC
	var b strings.Builder
	b.WriteString("# Pool statistics\n\n")
	fmt.Fprintf(&b, "- Pool hash rate: %s\n", formatHashRate(p.PoolHashRate, p.HashRateUnit))
	fmt.Fprintf(&b, "- Active workers: %d\n", p.PoolActiveWorkers)
	fmt.Fprintf(&b, "- Round started: %s (duration %s)\n",
		formatUnixTime(p.RoundStarted), (time.Duration(p.RoundDuration) * time.Second).String())
	fmt.Fprintf(&b, "- Round probability: %s\n", p.RoundProbability)
	fmt.Fprintf(&b, "- Luck (10 / 50 / 250 blocks): %s / %s / %s\n", p.Luck10, p.Luck50, p.Luck250)
	fmt.Fprintf(&b, "- Blocks found: %d\n", p.BlocksFound)
	return b.String()
}

func formatNetworkStats(s *braiins.NetworkStats) string {
	n := s.BTC
	var b strings.Builder
	b.WriteString("# Network statistics\n\n")
	fmt.Fprintf(&b, "- Block height: %d\n", n.BlockHeight)
	fmt.Fprintf(&b, "- Network hash rate: %s\n", formatHashRate(n.NetworkHashRate, n.HashRateUnit))
	fmt.Fprintf(&b, "- Difficulty: %.4g\n", n.Difficulty)
	fmt.Fprintf(&b, "- Next difficulty estimate: %.4g (retarget in %d blocks)\n",
		n.NextDifficulty, n.RetargetInBlocks)
	return b.String()
}
