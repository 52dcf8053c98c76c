package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeScores parses a stored score document. An empty document is an empty list.
func DecodeScores(data []byte) ([]ScoreRecord, error) {
	if len(data) == 0 {
		return []ScoreRecord{}, nil
	}
	var records []ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptScores, err)
	}
	if records == nil {
		records = []ScoreRecord{}
	}
	return records, nil
}

// EncodeScores serializes the score document.
func EncodeScores(records []ScoreRecord) ([]byte, error) {
	if records == nil {
		records = []ScoreRecord{}
	}
	return json.Marshal(records)
}
