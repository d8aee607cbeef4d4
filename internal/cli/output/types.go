package output

import "time"

// RenderOutput is the JSON output of the render command.
type RenderOutput struct {
	File   string `json:"file"`
	Output string `json:"output"`
	Code   string `json:"code"`
}

// BuildEvent describes one document in the build and watch commands.
type BuildEvent struct {
	Source     string `json:"source"`
	Output     string `json:"output"`
	Outcome    string `json:"outcome"`
	Message    string `json:"message,omitempty"`
	Command    string `json:"command,omitempty"`
	Cached     bool   `json:"cached"`
	DurationMS int64  `json:"duration_ms"`
}

// BuildSummary counts build events by result.
type BuildSummary struct {
	Total  int `json:"total"`
	Built  int `json:"built"`
	Cached int `json:"cached"`
	Failed int `json:"failed"`
}

// BuildOutput is the JSON output of the build command.
type BuildOutput struct {
	Builds  []BuildEvent `json:"builds"`
	Summary BuildSummary `json:"summary"`
}

// RuleInfo describes one rewrite rule.
type RuleInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Summary  string `json:"summary"`
}

// SubstitutionInfo describes one entry of the keyword remap table.
type SubstitutionInfo struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Target  string `json:"target"`
}

// RulesOutput is the JSON output of the rules command.
type RulesOutput struct {
	Rules         []RuleInfo         `json:"rules"`
	Substitutions []SubstitutionInfo `json:"substitutions,omitempty"`
	Fingerprint   string             `json:"fingerprint"`
}

// HistoryEntry is one recorded build.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Output      string    `json:"output"`
	Outcome     string    `json:"outcome"`
	Message     string    `json:"message,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistoryOutput is the JSON output of the history command.
type HistoryOutput struct {
	Builds []HistoryEntry `json:"builds"`
	Count  int            `json:"count"`
}
