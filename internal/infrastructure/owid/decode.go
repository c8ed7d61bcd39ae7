package owid

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vaxdash/backend/internal/domain/vaccination"
)

// countryDocument is the part of a country entry the dashboard reads
type countryDocument struct {
	Location string `json:"location"`
	Data     []struct {
		Date       string   `json:"date"`
		PerMillion *float64 `json:"new_vaccinations_smoothed_per_million"`
	} `json:"data"`
}

// decodeRecords walks the top-level object of the dataset and decodes only
// the entries listed in wanted. Other entries are skipped without being
// unmarshalled into Go values.
func decodeRecords(r io.Reader, wanted map[string]bool) (map[string][]vaccination.RawRecord, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceInvalid, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object at top level", vaccination.ErrSourceInvalid)
	}

	out := make(map[string][]vaccination.RawRecord, len(wanted))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceInvalid, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected country key", vaccination.ErrSourceInvalid)
		}

		if !wanted[key] {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", vaccination.ErrSourceInvalid, key, err)
			}
			continue
		}

		var doc countryDocument
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", vaccination.ErrSourceInvalid, key, err)
		}
		records := make([]vaccination.RawRecord, 0, len(doc.Data))
		for _, d := range doc.Data {
			records = append(records, vaccination.RawRecord{
				Date:       d.Date,
				PerMillion: d.PerMillion,
			})
		}
		out[key] = records

		if len(out) == len(wanted) {
			break
		}
	}

	for iso := range wanted {
		if _, ok := out[iso]; !ok {
			return nil, fmt.Errorf("%w: %s", vaccination.ErrCountryNotInSource, iso)
		}
	}
	return out, nil
}
