package models

import (
	"strings"
)

// Committee is the filer identity. Every regulator-facing field is
// supplied by configuration; nothing is emitted blank.
type Committee struct {
	Name               string
	FECID              string
	EIN                string
	Street1            string
	Street2            string
	City               string
	State              string
	Zip                string
	TreasurerLastName  string
	TreasurerFirstName string
	CustodianName      string
}

// ValidateForFEC checks the fields the FEC header and summary lines need
func (c Committee) ValidateForFEC() error {
	return requireFields([][2]string{
		{"committee_name", c.Name},
		{"committee_fec_id", c.FECID},
		{"treasurer_last_name", c.TreasurerLastName},
		{"treasurer_first_name", c.TreasurerFirstName},
	})
}

// ValidateForIRS8872 checks the fields Form 8872 requires
func (c Committee) ValidateForIRS8872() error {
	return requireFields([][2]string{
		{"committee_name", c.Name},
		{"committee_ein", c.EIN},
		{"custodian_name", c.CustodianName},
	})
}

func requireFields(fields [][2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return NewValidationError(f[0], "is required for this filing")
		}
	}
	return nil
}
