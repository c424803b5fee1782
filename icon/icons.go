package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota + 1
	Fail
	Warn
	Play
	Pause
	Stop
	Progress
	Music
	History
	Config
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "OK",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "X",
		kaomoji: "(╯°□°)╯",
		squares: "🟥",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(・_・;)",
		squares: "🟨",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "♪(´▽｀)",
		squares: "▶",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(－_－) zzZ",
		squares: "⏸",
	},
	Stop: {
		emoji:   "⏹️",
		nerd:    "",
		plain:   "[]",
		kaomoji: "(￣ヘ￣)",
		squares: "⏹",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・・ )?",
		squares: "🟦",
	},
	Music: {
		emoji:   "🎵",
		nerd:    "",
		plain:   "~",
		kaomoji: "ヾ(⌐■_■)ノ♪",
		squares: "🟪",
	},
	History: {
		emoji:   "🕘",
		nerd:    "",
		plain:   "H",
		kaomoji: "(˘ω˘)",
		squares: "🟫",
	},
	Config: {
		emoji:   "⚙️",
		nerd:    "",
		plain:   "*",
		kaomoji: "(⌐□_□)",
		squares: "⬜",
	},
}
