package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidSets = errors.New("invalid sets")

// SetGroup is the stored, run-length form of consecutive identical sets.
type SetGroup struct {
	Sets   int     `bson:"sets" json:"sets"`
	Reps   int     `bson:"reps" json:"reps"`
	Weight float64 `bson:"weight" json:"weight"`
}

// PerformedSet is a single physical set as the client edits it.
type PerformedSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// FlattenSets expands every group into Sets individual entries, in order.
func FlattenSets(groups []SetGroup) []PerformedSet {
	flat := make([]PerformedSet, 0, len(groups))
	for _, g := range groups {
		for i := 0; i < g.Sets; i++ {
			flat = append(flat, PerformedSet{Reps: g.Reps, Weight: g.Weight})
		}
	}
	return flat
}

// ReconstructSets folds runs of consecutive identical sets into one group.
// Identical sets separated by a different one stay separate groups, so the
// performed order survives a flatten/reconstruct round trip.
func ReconstructSets(flat []PerformedSet) []SetGroup {
	groups := make([]SetGroup, 0, len(flat))
	for _, s := range flat {
		if n := len(groups); n > 0 && groups[n-1].Reps == s.Reps && groups[n-1].Weight == s.Weight {
			groups[n-1].Sets++
			continue
		}
		groups = append(groups, SetGroup{Sets: 1, Reps: s.Reps, Weight: s.Weight})
	}
	return groups
}

// ValidateSets rejects empty groups and negative values.
func ValidateSets(groups []SetGroup) error {
	for i, g := range groups {
		if g.Sets < 1 {
			return fmt.Errorf("%w: group %d must contain at least one set", ErrInvalidSets, i)
		}
		if g.Reps < 0 || g.Weight < 0 {
			return fmt.Errorf("%w: group %d has negative reps or weight", ErrInvalidSets, i)
		}
	}
	return nil
}
