package core

import (
	"encoding/json"
	"io"
)

// MarshalOutcomes pretty-prints outcomes as JSON for humans or pipelines.
func MarshalOutcomes(w io.Writer, outs []Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outs)
}

// UnmarshalOutcomes decodes outcomes JSON, useful for ingestion tests.
func UnmarshalOutcomes(r io.Reader) ([]Outcome, error) {
	var outs []Outcome
	if err := json.NewDecoder(r).Decode(&outs); err != nil {
		return nil, err
	}
	return outs, nil
}
