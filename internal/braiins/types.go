package braiins

// Response shapes of the Braiins Pool web API. BTC reward amounts come over
// the wire as decimal strings and stay strings to preserve precision.

// UserOverview is the account profile: rewards plus aggregate hash rates and
// worker counts.
type UserOverview struct {
	Username string       `json:"username"`
	BTC      AccountStats `json:"btc"`
}

// AccountStats is the per-coin section of the profile.
type AccountStats struct {
	ConfirmedReward   string  `json:"confirmed_reward"`
	UnconfirmedReward string  `json:"unconfirmed_reward"`
	EstimatedReward   string  `json:"estimated_reward"`
	AllTimeReward     string  `json:"all_time_reward"`
	HashRate5m        float64 `json:"hash_rate_5m"`
	HashRate60m       float64 `json:"hash_rate_60m"`
	HashRate24h       float64 `json:"hash_rate_24h"`
	HashRateUnit      string  `json:"hash_rate_unit"`
	LowWorkers        int64   `json:"low_workers"`
	OffWorkers        int64   `json:"off_workers"`
	OkWorkers         int64   `json:"ok_workers"`
}

// WorkersList is the full worker roster keyed by "account.worker" name.
type WorkersList struct {
	BTC struct {
		Workers map[string]Worker `json:"workers"`
	} `json:"btc"`
}

// Worker is one mining worker's state and hash rates.
type Worker struct {
	State           string  `json:"state"`
	LastShare       int64   `json:"last_share"`
	HashRate5m      float64 `json:"hash_rate_5m"`
	HashRate60m     float64 `json:"hash_rate_60m"`
	HashRate24h     float64 `json:"hash_rate_24h"`
	HashRateUnit    string  `json:"hash_rate_unit"`
	HashRateScoring float64 `json:"hash_rate_scoring"`
	SharesAccepted  int64   `json:"shares_accepted"`
	SharesRejected  int64   `json:"shares_rejected"`
	SharesStale     int64   `json:"shares_stale"`
}

// WorkerDetails pairs a worker with its roster name.
type WorkerDetails struct {
	Name   string `json:"name"`
	Worker Worker `json:"worker"`
}

// WorkerHashrate is a daily hash rate timeseries.
type WorkerHashrate struct {
	BTC struct {
		HashRateUnit string          `json:"hash_rate_unit"`
		Daily        []HashratePoint `json:"hash_rate_daily"`
	} `json:"btc"`
}

// HashratePoint is one day of the timeseries.
type HashratePoint struct {
	Date     string  `json:"date"`
	HashRate float64 `json:"hash_rate"`
}

// UserRewards is the daily reward history.
type UserRewards struct {
	BTC struct {
		DailyRewards []DailyReward `json:"daily_rewards"`
	} `json:"btc"`
}

// DailyReward is one day of rewards.
type DailyReward struct {
	Date           string `json:"date"`
	TotalReward    string `json:"total_reward"`
	MiningReward   string `json:"mining_reward"`
	BonusReward    string `json:"bonus_reward"`
	ReferralReward string `json:"referral_bonus"`
}

// PoolStats are pool-wide aggregates.
type PoolStats struct {
	BTC struct {
		PoolHashRate      float64 `json:"pool_hash_rate"`
		HashRateUnit      string  `json:"hash_rate_unit"`
		PoolActiveWorkers int64   `json:"pool_active_workers"`
		RoundProbability  string  `json:"round_probability"`
		RoundStarted      int64   `json:"round_started"`
		RoundDuration     int64   `json:"round_duration"`
		Luck10            string  `json:"luck_b10"`
		Luck50            string  `json:"luck_b50"`
		Luck250           string  `json:"luck_b250"`
		BlocksFound       int64   `json:"blocks_found"`
	} `json:"btc"`
}

// NetworkStats are Bitcoin network aggregates.
type NetworkStats struct {
	BTC struct {
		Difficulty       float64 `json:"difficulty"`
		NetworkHashRate  float64 `json:"network_hash_rate"`
		HashRateUnit     string  `json:"hash_rate_unit"`
		BlockHeight      int64   `json:"block_height"`
		NextDifficulty   float64 `json:"next_difficulty_estimate"`
		RetargetInBlocks int64   `json:"retarget_in_blocks"`
	} `json:"btc"`
}
