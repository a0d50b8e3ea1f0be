// Package domain provides core business vocabulary for the deals bounded context.
package domain

// Stage is a deal's position in the fixed lifecycle.
type Stage string

const (
	StageCreated   Stage = "created"
	StageShared    Stage = "shared"
	StageAccessed  Stage = "accessed"
	StageEngaged   Stage = "engaged"
	StageQualified Stage = "qualified"
	StageAdvanced  Stage = "advanced"
	StageClosed    Stage = "closed"
)

// stageOrder is the strict forward ordering of the lifecycle.
var stageOrder = map[Stage]int{
	StageCreated:   0,
	StageShared:    1,
	StageAccessed:  2,
	StageEngaged:   3,
	StageQualified: 4,
	StageAdvanced:  5,
	StageClosed:    6,
}

// Stages returns every stage in lifecycle order.
func Stages() []Stage {
	return []Stage{
		StageCreated,
		StageShared,
		StageAccessed,
		StageEngaged,
		StageQualified,
		StageAdvanced,
		StageClosed,
	}
}

// IsKnownStage reports whether s is part of the lifecycle.
func IsKnownStage(s Stage) bool {
	_, ok := stageOrder[s]
	return ok
}

// Rank returns the position of s in the lifecycle, or -1 for unknown stages.
func (s Stage) Rank() int {
	if rank, ok := stageOrder[s]; ok {
		return rank
	}
	return -1
}

// Before reports whether s comes strictly before other.
func (s Stage) Before(other Stage) bool {
	return s.Rank() < other.Rank()
}

// IsTerminal reports whether no further lifecycle movement is expected.
func (s Stage) IsTerminal() bool {
	return s == StageClosed
}

// MaxStage returns the later of the two stages.
func MaxStage(a, b Stage) Stage {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}
