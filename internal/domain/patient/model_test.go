package patient

import (
	"testing"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

func TestFromFHIR(t *testing.T) {
	tests := []struct {
		name string
		in   emr.Patient
		want Patient
	}{
		{
			name: "full record",
			in: emr.Patient{
				ID:         "pat-1",
				Name:       []emr.HumanName{{Text: "Jane Doe"}},
				Identifier: []emr.Identifier{{Value: "MRN-001"}, {Value: "MRN-002"}},
				Gender:     "female",
				BirthDate:  "1980-04-12",
			},
			want: Patient{ID: "pat-1", Name: "Jane Doe", Identifier: "MRN-001", Gender: "Female", BirthDate: "1980-04-12"},
		},
		{
			name: "missing name gets placeholder",
			in:   emr.Patient{ID: "pat-2"},
			want: Patient{ID: "pat-2", Name: "Unknown"},
		},
		{
			name: "name entry without text gets placeholder",
			in:   emr.Patient{ID: "pat-3", Name: []emr.HumanName{{Family: "Doe", Given: []string{"Jane"}}}},
			want: Patient{ID: "pat-3", Name: "Unknown"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromFHIR(&tc.in); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestVisitSummaryFromFHIR(t *testing.T) {
	tests := []struct {
		name string
		in   emr.Encounter
		want VisitSummary
	}{
		{
			name: "type and location",
			in: emr.Encounter{
				ID:       "enc-1",
				Type:     []emr.CodeableConcept{{Coding: []emr.Coding{{Code: "v1", Display: "Outpatient Visit"}}}},
				Location: []emr.EncounterLocation{{Location: emr.Reference{Display: "Main Clinic"}}},
				Period:   &emr.Period{End: "2026-03-01T14:30:00Z"},
			},
			want: VisitSummary{ID: "enc-1", Label: "Outpatient Visit - Main Clinic", Date: "2026-03-01"},
		},
		{
			name: "location display absent",
			in: emr.Encounter{
				ID:     "enc-2",
				Type:   []emr.CodeableConcept{{Coding: []emr.Coding{{Display: "Outpatient Visit"}}}},
				Period: &emr.Period{End: "2026-03-01"},
			},
			want: VisitSummary{ID: "enc-2", Label: "Outpatient Visit", Date: "2026-03-01"},
		},
		{
			name: "bare encounter",
			in:   emr.Encounter{ID: "enc-3"},
			want: VisitSummary{ID: "enc-3"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VisitSummaryFromFHIR(&tc.in); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
