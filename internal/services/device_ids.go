package services

import (
	"strings"

	"retail_backoffice/internal/models"
)

// DeviceIDSet is the normalised identifier portion of a sale line.
type DeviceIDSet struct {
	IDs      []string
	Sizes    []string
	Quantity int
}

// Tracked returns the non-empty identifiers.
func (d DeviceIDSet) Tracked() []string {
	out := make([]string, 0, len(d.IDs))
	for _, id := range d.IDs {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// ValidateDeviceIDs normalises the identifiers of one line and derives its
// quantity. Without a manual quantity the count of non-empty identifiers is the
// quantity and empty entries are dropped. With a manual quantity the
// identifiers may not outnumber it and are padded with empty entries up to it.
// Sizes are aligned with identifiers by position.
func ValidateDeviceIDs(ids, sizes []string, quantity int, manual bool) (DeviceIDSet, error) {
	if len(sizes) > len(ids) {
		return DeviceIDSet{}, newValidationError("device_sizes", "%d sizes given for %d device ids", len(sizes), len(ids))
	}

	normIDs := make([]string, len(ids))
	normSizes := make([]string, len(ids))
	seen := make(map[string]struct{}, len(ids))
	tracked := 0
	for i, raw := range ids {
		id := strings.TrimSpace(raw)
		normIDs[i] = id
		if i < len(sizes) {
			normSizes[i] = strings.TrimSpace(sizes[i])
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return DeviceIDSet{}, &DuplicateDeviceIDError{DeviceID: id}
		}
		seen[id] = struct{}{}
		tracked++
	}

	if tracked == 0 {
		return DeviceIDSet{IDs: []string{}, Sizes: []string{}, Quantity: quantity}, nil
	}

	if !manual {
		outIDs := make([]string, 0, tracked)
		outSizes := make([]string, 0, tracked)
		for i, id := range normIDs {
			if id != "" {
				outIDs = append(outIDs, id)
				outSizes = append(outSizes, normSizes[i])
			}
		}
		return DeviceIDSet{IDs: outIDs, Sizes: outSizes, Quantity: tracked}, nil
	}

	if tracked > quantity {
		return DeviceIDSet{}, newValidationError("device_ids", "%d device ids exceed quantity %d", tracked, quantity)
	}

	// Drop surplus empty entries from the end, then pad up to quantity.
	for i := len(normIDs) - 1; i >= 0 && len(normIDs) > quantity; i-- {
		if normIDs[i] == "" {
			normIDs = append(normIDs[:i], normIDs[i+1:]...)
			normSizes = append(normSizes[:i], normSizes[i+1:]...)
		}
	}
	for len(normIDs) < quantity {
		normIDs = append(normIDs, "")
		normSizes = append(normSizes, "")
	}
	return DeviceIDSet{IDs: normIDs, Sizes: normSizes, Quantity: quantity}, nil
}

// checkDeviceConflicts fails when any identifier of ids is already recorded on one of lines.
func checkDeviceConflicts(ids []string, lines []models.SaleLine, skipLineID int64) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			wanted[id] = struct{}{}
		}
	}
	for _, l := range lines {
		if l.ID == skipLineID {
			continue
		}
		for _, id := range l.DeviceIDs {
			if _, ok := wanted[id]; ok && id != "" {
				return &DuplicateDeviceIDError{DeviceID: id, ConflictingLineID: l.ID}
			}
		}
	}
	return nil
}
