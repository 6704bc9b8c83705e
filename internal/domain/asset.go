package domain

// Asset is one dragon token owned by the connected wallet. Display metadata
// beyond the name is owned by external collaborators; the core only needs
// the token id.
type Asset struct {
	ID    uint64 `json:"id"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// growthStages maps the contract's stage index to its display name.
var growthStages = [...]string{"egg", "hatch", "hatchling", "adult"}

// GrowthInfo is the on-chain growth state of a dragon token.
type GrowthInfo struct {
	StageIndex    int    `json:"stageIndex"`
	Stage         string `json:"stage"`
	TimeRemaining int64  `json:"timeRemaining"` // seconds until next stage
}

// StageName returns the display name for a growth stage index, or "unknown"
// for indexes outside the contract's defined range.
func StageName(index int) string {
	if index < 0 || index >= len(growthStages) {
		return "unknown"
	}
	return growthStages[index]
}

// FinalStage reports whether the stage name is the terminal growth stage.
func FinalStage(stage string) bool {
	return stage == growthStages[len(growthStages)-1]
}
