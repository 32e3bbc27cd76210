package core

// merge.go reconciles an imported point set with an existing dataset.
//
// Strategies:
//   - replace: the incoming points become the dataset
//   - append:  incoming points are added under fresh IDs
//   - merge:   incoming points update existing ones by ID, unmatched ones are added
//
// Neither input slice nor any property map it references is modified. On any
// failure the result carries a copy of the existing dataset and a merge error,
// so a caller persisting Data never loses records.

import (
	"errors"
	"fmt"
	"time"
)

// MergeOptions supplies the clock and ID source. Zero values use the wall
// clock and NewPointID.
type MergeOptions struct {
	Now   func() time.Time
	NewID func() string
}

func (o MergeOptions) withDefaults() MergeOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = NewPointID
	}
	return o
}

// errInconsistentMerge is raised by the post-merge check.
var errInconsistentMerge = errors.New("inconsistent merge result")

// Merge combines existing and incoming under strategy. An empty strategy means merge.
func Merge(existing, incoming []PointRecord, strategy MergeStrategy, opts MergeOptions) (result ImportResult[PointRecord]) {
	defer func() {
		if r := recover(); r != nil {
			result = mergeFailure(existing, CodeMergeFailed, "Failed to merge data: %v", r)
		}
	}()

	opts = opts.withDefaults()
	nowMs := opts.Now().UnixMilli()
	b := &resultBuilder{}

	if strategy == "" {
		strategy = StrategyMerge
	}

	valid := make([]PointRecord, 0, len(incoming))
	for i, p := range incoming {
		if err := p.Validate(); err != nil {
			b.fail(ErrorEntry{
				Kind:    KindRange,
				Code:    CodeCoordinateOutOfRange,
				Message: fmt.Sprintf("Incoming point %q skipped: %v", p.ID, err),
				Line:    i + 1,
				Value:   p.ID,
			})
			continue
		}
		valid = append(valid, p.Clone())
	}

	var (
		data []PointRecord
		err  error
	)
	switch strategy {
	case StrategyReplace:
		data = assignMissingIDs(foldDuplicates(valid, b), opts.NewID)
		b.warn("Replaced %d existing points with %d new points", len(existing), len(data))
	case StrategyAppend:
		data = appendPoints(existing, valid, nowMs, opts.NewID)
		b.warn("Appended %d new points", len(valid))
	case StrategyMerge:
		data, err = mergeByID(existing, assignMissingIDs(foldDuplicates(valid, b), opts.NewID), nowMs, b)
	default:
		return mergeFailure(existing, CodeUnknownStrategy, "Unknown merge strategy %q", strategy)
	}

	if err == nil {
		err = checkConsistency(existing, data)
	}
	if err != nil {
		return mergeFailure(existing, CodeMergeFailed, "Failed to merge data: %v", err)
	}
	return b.points(data)
}

func appendPoints(existing, incoming []PointRecord, nowMs int64, newID func() string) []PointRecord {
	out := cloneAll(existing)
	for _, p := range incoming {
		p.ID = newID()
		p.CreatedAt = nowMs
		p.UpdatedAt = nowMs
		out = append(out, p)
	}
	return out
}

// mergeByID emits incoming points in order (updated or added), followed by
// the untouched existing points in their original order. When the existing
// dataset repeats an ID only its first record is updated; the others are
// carried over unchanged.
func mergeByID(existing, incoming []PointRecord, nowMs int64, b *resultBuilder) ([]PointRecord, error) {
	index := make(map[string]int, len(existing))
	for i, p := range existing {
		if _, dup := index[p.ID]; !dup {
			index[p.ID] = i
		}
	}

	out := make([]PointRecord, 0, len(existing)+len(incoming))
	matched := make(map[int]bool, len(incoming))
	var updated, added int

	for _, p := range incoming {
		if i, ok := index[p.ID]; ok && !matched[i] {
			merged := overlay(existing[i], p)
			merged.UpdatedAt = nowMs
			out = append(out, merged)
			matched[i] = true
			updated++
			continue
		}
		p.CreatedAt = nowMs
		p.UpdatedAt = nowMs
		out = append(out, p)
		added++
	}

	unchanged := 0
	for i, p := range existing {
		if matched[i] {
			continue
		}
		out = append(out, p.Clone())
		unchanged++
	}

	if updated+unchanged != len(existing) || len(out) != len(existing)+added {
		return nil, fmt.Errorf("%w: %d records from %d existing and %d incoming (%d updated, %d added, %d unchanged)",
			errInconsistentMerge, len(out), len(existing), len(incoming), updated, added, unchanged)
	}
	b.warn("Merged data: %d updated, %d added, %d unchanged", updated, added, unchanged)
	return out, nil
}

// overlay returns base updated with over: position and non-empty descriptive
// fields come from over, properties are a shallow union with over winning.
// The creation time of base is kept when it has one.
func overlay(base, over PointRecord) PointRecord {
	out := base.Clone()
	out.ID = over.ID
	out.Position = over.Position
	if over.Name != "" {
		out.Name = over.Name
	}
	if over.Description != "" {
		out.Description = over.Description
	}
	if over.Status != "" {
		out.Status = over.Status
	}
	if over.Group != "" {
		out.Group = over.Group
	}
	for k, v := range over.Properties {
		out.Properties[k] = v
	}
	if out.CreatedAt == 0 {
		out.CreatedAt = over.CreatedAt
	}
	if over.UpdatedAt > out.UpdatedAt {
		out.UpdatedAt = over.UpdatedAt
	}
	return out
}

// foldDuplicates collapses incoming points sharing an ID into the first one.
// Points without an ID are kept as they are.
func foldDuplicates(points []PointRecord, b *resultBuilder) []PointRecord {
	out := make([]PointRecord, 0, len(points))
	first := make(map[string]int, len(points))
	var order []string
	counts := make(map[string]int)

	for _, p := range points {
		if p.ID == "" {
			out = append(out, p)
			continue
		}
		if i, ok := first[p.ID]; ok {
			out[i] = overlay(out[i], p)
			if counts[p.ID] == 1 {
				order = append(order, p.ID)
			}
			counts[p.ID]++
			continue
		}
		first[p.ID] = len(out)
		counts[p.ID] = 1
		out = append(out, p)
	}

	for _, id := range order {
		b.warn("Point %q appears %d times in the import; duplicates were combined into one record", id, counts[id])
	}
	return out
}

func assignMissingIDs(points []PointRecord, newID func() string) []PointRecord {
	for i := range points {
		if points[i].ID == "" {
			points[i].ID = newID()
		}
	}
	return points
}

// checkConsistency verifies the merged dataset: every record has an ID and a
// valid position, and IDs are unique whenever the existing dataset's were.
func checkConsistency(existing, merged []PointRecord) error {
	existingUnique := uniqueIDs(existing)
	seen := make(map[string]bool, len(merged))
	for _, p := range merged {
		if p.ID == "" {
			return fmt.Errorf("%w: record without id", errInconsistentMerge)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: record %q: %v", errInconsistentMerge, p.ID, err)
		}
		if seen[p.ID] && existingUnique {
			return fmt.Errorf("%w: duplicate id %q", errInconsistentMerge, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func uniqueIDs(points []PointRecord) bool {
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if seen[p.ID] {
			return false
		}
		seen[p.ID] = true
	}
	return true
}

func cloneAll(points []PointRecord) []PointRecord {
	out := make([]PointRecord, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}

func mergeFailure(existing []PointRecord, code, format string, args ...any) ImportResult[PointRecord] {
	b := &resultBuilder{}
	b.fail(ErrorEntry{Kind: KindMerge, Code: code, Message: fmt.Sprintf(format, args...)})
	return b.points(cloneAll(existing))
}
