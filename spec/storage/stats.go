package storage

import (
	"github.com/specdeck/specdeck/errors"
)

// Stats holds row counts across the spec tables.
type Stats struct {
	Specs           int `json:"specs"`
	Servers         int `json:"servers"`
	Operations      int `json:"operations"`
	Schemas         int `json:"schemas"`
	SecuritySchemes int `json:"security_schemes"`
	Responses       int `json:"responses"`
}

// Stats counts stored rows per table.
func (s *SpecStore) Stats() (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		table string
		dest  *int
	}{
		{"specs", &stats.Specs},
		{"spec_servers", &stats.Servers},
		{"spec_operations", &stats.Operations},
		{"spec_schemas", &stats.Schemas},
		{"spec_security_schemes", &stats.SecuritySchemes},
		{"spec_responses", &stats.Responses},
	}

	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to count %s", c.table), errors.ErrStorage)
		}
	}
	return stats, nil
}
