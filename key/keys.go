// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Engine - these keys select and tune the decoder backend and the progress sampler.
const (
	PlayerDecoder        = "player.decoder"
	PlayerMpvPath        = "player.mpv_path"
	PlayerSampleInterval = "player.sample_interval"
	PlayerBufferRampStep = "player.buffer_ramp_step"
	PlayerSeekStep       = "player.seek_step"
)

// Synthetic Decoder - these keys shape the in-process clock-driven decoder used for dry runs.
const (
	SyntheticDuration     = "synthetic.duration"
	SyntheticPrepareDelay = "synthetic.prepare_delay"
)

// History Tracking - these keys configure the persistence of resume positions.
const (
	HistorySave                 = "history.save"
	HistoryCompletionPercentage = "history.completion_percentage"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
