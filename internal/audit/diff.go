package audit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invoxlabs/invox/internal/models"
)

// ComputeDiff returns the fields that differ between two value sets.
//
// The key space is the union of both sets; a key missing on either side is
// normalized to null before comparison, so "absent" and "explicitly null"
// are the same value. Comparison happens on the JSON-normalized form, which
// makes 1 and 1.0, or equal nested structures, compare equal. An empty
// result means the update changed nothing and no audit entry may be written.
func ComputeDiff(oldValues, newValues map[string]any) (map[string]models.FieldChange, error) {
	changed := make(map[string]models.FieldChange)

	for key, newVal := range newValues {
		oldVal := oldValues[key] // nil when missing, which is the normalized form

		equal, err := jsonEqual(oldVal, newVal)
		if err != nil {
			return nil, fmt.Errorf("comparing field %s: %w", key, err)
		}

		if !equal {
			changed[key] = models.FieldChange{Old: oldVal, New: newVal}
		}
	}

	for key, oldVal := range oldValues {
		if _, present := newValues[key]; present {
			continue
		}

		equal, err := jsonEqual(oldVal, nil)
		if err != nil {
			return nil, fmt.Errorf("comparing field %s: %w", key, err)
		}

		if !equal {
			changed[key] = models.FieldChange{Old: oldVal, New: nil}
		}
	}

	if len(changed) == 0 {
		return nil, nil
	}

	return changed, nil
}

// jsonEqual compares two values on their marshaled JSON form.
func jsonEqual(a, b any) (bool, error) {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false, err
	}

	bJSON, err := json.Marshal(b)
	if err != nil {
		return false, err
	}

	return bytes.Equal(aJSON, bJSON), nil
}
