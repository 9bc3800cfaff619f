package model

// Level is one rung of the packaging hierarchy:
// product < set < box < pallet < container.
type Level string

const (
	LevelProduct   Level = "product"
	LevelSet       Level = "set"
	LevelBox       Level = "box"
	LevelPallet    Level = "pallet"
	LevelContainer Level = "container"
)

// hierarchy lists the rungs bottom-up.
var hierarchy = []Level{LevelProduct, LevelSet, LevelBox, LevelPallet, LevelContainer}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	for _, h := range hierarchy {
		if h == l {
			return true
		}
	}
	return false
}

// Child returns the immediate predecessor of l in the hierarchy. A unit
// of level l aggregates only children of exactly this level. The bottom
// rung has no child and returns "".
func (l Level) Child() Level {
	for i, h := range hierarchy {
		if h == l && i > 0 {
			return hierarchy[i-1]
		}
	}
	return ""
}

// Above reports whether l sits strictly above other.
func (l Level) Above(other Level) bool {
	return l.rank() > other.rank()
}

func (l Level) rank() int {
	for i, h := range hierarchy {
		if h == l {
			return i
		}
	}
	return -1
}
