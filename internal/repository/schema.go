package repository

// Schema returns the ClickHouse DDL the service ensures on startup.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS admission_decisions (
			trade_id String,
			asset LowCardinality(String),
			instrument LowCardinality(String),
			direction LowCardinality(String),
			executed UInt8,
			blocked_reason LowCardinality(String),
			blocked_detail String,
			raw_confidence Float64,
			calibrated_confidence Float64,
			effective_threshold Float64,
			position_size Float64,
			info_gain Float64,
			regime_shift Float64,
			regime_shift_reason String,
			asset_novelty Float64,
			asset_novelty_reason String,
			disagreement Float64,
			disagreement_reason String,
			novelty_score Float64,
			slippage Float64,
			slippage_rule LowCardinality(String),
			gate_key LowCardinality(String),
			forecast_id String,
			decided_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(decided_at)
		ORDER BY (asset, decided_at)`,

		`CREATE TABLE IF NOT EXISTS calibration_gates (
			forecast_type LowCardinality(String),
			regime LowCardinality(String),
			ceiling Float64,
			sample_count UInt32,
			updated_at DateTime('UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (forecast_type, regime)`,

		`CREATE TABLE IF NOT EXISTS cadence_exceptions (
			id String,
			floor Float64,
			reason String,
			issued_by LowCardinality(String),
			issued_at DateTime('UTC'),
			expires_at DateTime('UTC')
		) ENGINE = MergeTree()
		ORDER BY issued_at`,

		`CREATE TABLE IF NOT EXISTS belief_snapshots (
			regime LowCardinality(String),
			recorded_at DateTime('UTC')
		) ENGINE = MergeTree()
		ORDER BY recorded_at`,

		`CREATE TABLE IF NOT EXISTS performance_snapshots (
			day Date,
			trade_count UInt32,
			hit_rate Float64,
			brier_score Float64,
			high_confidence_count UInt32,
			high_confidence_accuracy Float64,
			error_counts String,
			generated_at DateTime('UTC')
		) ENGINE = ReplacingMergeTree(generated_at)
		ORDER BY day`,

		`CREATE TABLE IF NOT EXISTS halt_transitions (
			from_level LowCardinality(String),
			to_level LowCardinality(String),
			reason String,
			cleared_by LowCardinality(String),
			occurred_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY occurred_at`,

		`CREATE TABLE IF NOT EXISTS price_ticks (
			ts DateTime64(3, 'UTC'),
			asset LowCardinality(String),
			price Float64,
			volume Float64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (asset, ts)`,

		`CREATE TABLE IF NOT EXISTS asset_liquidity (
			asset LowCardinality(String),
			tier LowCardinality(String),
			updated_at DateTime('UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY asset`,
	}
}
