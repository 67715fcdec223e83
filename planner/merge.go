package planner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shortform-pipeline/types"
)

// ErrBadInstruction marks a manual instruction missing required fields.
// A merge that hits one fails the whole file, nothing is partially applied
// to the persisted plan.
var ErrBadInstruction = errors.New("malformed manual instruction")

// Merge layers user-authored instructions onto a machine-generated plan,
// in place, in a fixed order: cut removal, caption injection, effect append.
// Deterministic for identical inputs.
func Merge(plan *types.EditPlan, ins *types.ManualInstructions) error {
	if ins == nil {
		return nil
	}
	if err := removeCuts(plan, ins.Cuts); err != nil {
		return err
	}
	if err := injectCaptions(plan, ins.Captions); err != nil {
		return err
	}
	return appendEffects(plan, ins.Effects)
}

// removeCuts drops every machine cut whose interval is fully contained in a
// removal range. Partial overlaps are kept untouched — containment, not
// overlap.
func removeCuts(plan *types.EditPlan, instructions []types.CutInstruction) error {
	for _, inst := range instructions {
		if inst.Action != "" && inst.Action != "remove" {
			continue
		}
		rangeStart, err := parseTimestamp(inst.Start)
		if err != nil {
			return fmt.Errorf("%w: cut removal start %q", ErrBadInstruction, inst.Start)
		}
		rangeEnd, err := parseTimestamp(inst.End)
		if err != nil {
			return fmt.Errorf("%w: cut removal end %q", ErrBadInstruction, inst.End)
		}

		kept := plan.Cuts[:0]
		for _, cut := range plan.Cuts {
			cutStart, errS := parseTimestamp(cut.StartTime)
			cutEnd, errE := parseTimestamp(cut.EndTime)
			// A cut with an unreadable interval can never be proven
			// contained, so it survives.
			if errS == nil && errE == nil && cutStart >= rangeStart && cutEnd <= rangeEnd {
				continue
			}
			kept = append(kept, cut)
		}
		plan.Cuts = kept
	}
	return nil
}

// injectCaptions overwrites the caption of the first cut containing each
// instruction's timestamp. An instruction landing outside every cut is
// silently dropped.
func injectCaptions(plan *types.EditPlan, instructions []types.CaptionInstruction) error {
	for _, inst := range instructions {
		ts, err := parseTimestamp(inst.Timestamp)
		if err != nil {
			return fmt.Errorf("%w: caption timestamp %q", ErrBadInstruction, inst.Timestamp)
		}
		if inst.Text == "" {
			return fmt.Errorf("%w: caption at %s has no text", ErrBadInstruction, inst.Timestamp)
		}
		for i := range plan.Cuts {
			cutStart, errS := parseTimestamp(plan.Cuts[i].StartTime)
			cutEnd, errE := parseTimestamp(plan.Cuts[i].EndTime)
			if errS != nil || errE != nil {
				continue
			}
			if cutStart <= ts && ts <= cutEnd {
				plan.Cuts[i].Caption = inst.Text
				if inst.Style != "" {
					plan.Cuts[i].CaptionStyle.Color = inst.Style
				}
				break // first match wins
			}
		}
	}
	return nil
}

// appendEffects turns each manual effect into a zero-duration visual effect
// appended after the machine-generated ones
func appendEffects(plan *types.EditPlan, instructions []types.EffectInstruction) error {
	for _, inst := range instructions {
		if _, err := parseTimestamp(inst.Timestamp); err != nil {
			return fmt.Errorf("%w: effect timestamp %q", ErrBadInstruction, inst.Timestamp)
		}
		if inst.Type == "" {
			return fmt.Errorf("%w: effect at %s has no type", ErrBadInstruction, inst.Timestamp)
		}
		plan.VisualEffects = append(plan.VisualEffects, types.VisualEffect{
			Start: inst.Timestamp,
			End:   inst.Timestamp,
			Type:  inst.Type,
			Speed: "fast",
		})
	}
	return nil
}

// parseTimestamp converts an HH:MM:SS string to whole seconds
func parseTimestamp(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", s)
		}
		total = total*60 + n
	}
	return total, nil
}
