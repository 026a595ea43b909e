// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package catalog

import "github.com/tomtom215/jazzmate/internal/validation"

// IsValid reports whether a record may be embedded: the track listing, when
// present, is a JSON object (or a string holding one), and both the review
// content and summary are non-empty. Invalid records are dropped before
// embedding and never retried.
func IsValid(rec *SourceRecord) bool {
	if rec == nil {
		return false
	}
	return validation.ValidateStruct(rec) == nil
}

// Partition splits records into valid and invalid sets, keeping input order.
func Partition(records []SourceRecord) (valid []SourceRecord, invalid int) {
	valid = make([]SourceRecord, 0, len(records))
	for i := range records {
		if IsValid(&records[i]) {
			valid = append(valid, records[i])
			continue
		}
		invalid++
	}
	return valid, invalid
}
