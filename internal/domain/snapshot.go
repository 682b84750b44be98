package domain

import "time"

// SnapshotVersion is the current export document version
const SnapshotVersion = 1

// Snapshot is a full export of the ledger
type Snapshot struct {
	Version      int            `json:"version"`
	ExportedAt   time.Time      `json:"exportedAt"`
	Transactions []Transaction  `json:"transactions"`
	Categories   []Category     `json:"categories"`
	Budgets      []Budget       `json:"budgets"`
	MonthlyData  []MonthlyData  `json:"monthlyData"`
	Settings     *UserSettings  `json:"userSettings,omitempty"`
	Profile      *UserProfile   `json:"userProfile,omitempty"`
	Family       *FamilySharing `json:"familySharing,omitempty"`
}
