package model

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// Material is one line of the job's material build-up.
// ThicknessMicron is nil when the line carries no thickness.
type Material struct {
	Type            string   `json:"type"`
	ThicknessMicron *float64 `json:"thicknessMicron"`
}

// Job represents a rotogravure cylinder job record.
// Optional numeric fields are either a valid number or nil, never an empty
// string in storage.
type Job struct {
	ID              string     `json:"id"              db:"id"`
	JobNumber       string     `json:"jobNumber"       db:"job_number"`
	CustomerName    string     `json:"customerName"    db:"customer_name"`
	BrandName       string     `json:"brandName"       db:"brand_name"`
	DesignName      string     `json:"designName"      db:"design_name"`
	CylinderNumbers string     `json:"cylinderNumbers" db:"cylinder_numbers"`
	ColourNames     string     `json:"colourNames"     db:"colour_names"`
	Notes           string     `json:"notes"           db:"notes"`
	WebWidthMm      *float64   `json:"webWidthMm"      db:"web_width_mm"`
	RepeatLengthMm  *float64   `json:"repeatLengthMm"  db:"repeat_length_mm"`
	GussetMm        *float64   `json:"gussetMm"        db:"gusset_mm"`
	NumberOfColours *int       `json:"numberOfColours" db:"number_of_colours"`
	Materials       []Material `json:"materials"       db:"materials"`
	ImageURLs       []string   `json:"imageUrls"       db:"image_urls"`
	CreatedAt       time.Time  `json:"createdAt"       db:"created_at"`
	CreatedByUID    string     `json:"createdByUid"    db:"created_by_uid"`
	UpdatedAt       time.Time  `json:"updatedAt"       db:"updated_at"`
}

// JobFields holds the normalized, typed field values for a create.
type JobFields struct {
	JobNumber       string
	CustomerName    string
	BrandName       string
	DesignName      string
	CylinderNumbers string
	ColourNames     string
	Notes           string
	Materials       []Material
	WebWidthMm      *float64
	RepeatLengthMm  *float64
	GussetMm        *float64
	NumberOfColours *int
}

// CreateJobRequest carries the raw form input for creating a job. Numeric
// fields arrive as strings and are normalized to number-or-null.
type CreateJobRequest struct {
	JobNumber       string `json:"jobNumber"`
	CustomerName    string `json:"customerName"`
	BrandName       string `json:"brandName"`
	DesignName      string `json:"designName"`
	CylinderNumbers string `json:"cylinderNumbers"`
	ColourNames     string `json:"colourNames"`
	Notes           string `json:"notes"`
	MaterialsText   string `json:"materialsText"`
	WebWidthMm      string `json:"webWidthMm"`
	RepeatLengthMm  string `json:"repeatLengthMm"`
	GussetMm        string `json:"gussetMm"`
	NumberOfColours string `json:"numberOfColours"`
}

// Normalize validates required fields and converts the raw input into typed
// field values. Blank required fields and non-numeric optional inputs are
// rejected with a validation error.
func (r *CreateJobRequest) Normalize() (*JobFields, error) {
	if strings.TrimSpace(r.JobNumber) == "" {
		return nil, apperrors.ValidationField("jobNumber", "job number is required")
	}
	if strings.TrimSpace(r.DesignName) == "" {
		return nil, apperrors.ValidationField("designName", "design name is required")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return nil, apperrors.ValidationField("customerName", "customer name is required")
	}

	materials, err := ParseMaterials(r.MaterialsText)
	if err != nil {
		return nil, err
	}

	f := &JobFields{
		JobNumber:       strings.TrimSpace(r.JobNumber),
		CustomerName:    strings.TrimSpace(r.CustomerName),
		BrandName:       strings.TrimSpace(r.BrandName),
		DesignName:      strings.TrimSpace(r.DesignName),
		CylinderNumbers: strings.TrimSpace(r.CylinderNumbers),
		ColourNames:     strings.TrimSpace(r.ColourNames),
		Notes:           r.Notes,
		Materials:       materials,
	}
	if f.WebWidthMm, err = ParseOptionalNumber("webWidthMm", r.WebWidthMm); err != nil {
		return nil, err
	}
	if f.RepeatLengthMm, err = ParseOptionalNumber("repeatLengthMm", r.RepeatLengthMm); err != nil {
		return nil, err
	}
	if f.GussetMm, err = ParseOptionalNumber("gussetMm", r.GussetMm); err != nil {
		return nil, err
	}
	if f.NumberOfColours, err = ParseOptionalInt("numberOfColours", r.NumberOfColours); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateJobRequest carries a partial edit: only non-nil fields are applied.
// Image URLs are never altered through an update.
type UpdateJobRequest struct {
	JobNumber       *string `json:"jobNumber,omitempty"`
	CustomerName    *string `json:"customerName,omitempty"`
	BrandName       *string `json:"brandName,omitempty"`
	DesignName      *string `json:"designName,omitempty"`
	CylinderNumbers *string `json:"cylinderNumbers,omitempty"`
	ColourNames     *string `json:"colourNames,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	MaterialsText   *string `json:"materialsText,omitempty"`
	WebWidthMm      *string `json:"webWidthMm,omitempty"`
	RepeatLengthMm  *string `json:"repeatLengthMm,omitempty"`
	GussetMm        *string `json:"gussetMm,omitempty"`
	NumberOfColours *string `json:"numberOfColours,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateJobRequest) HasUpdates() bool {
	return r.JobNumber != nil || r.CustomerName != nil || r.BrandName != nil ||
		r.DesignName != nil || r.CylinderNumbers != nil || r.ColourNames != nil ||
		r.Notes != nil || r.MaterialsText != nil || r.WebWidthMm != nil ||
		r.RepeatLengthMm != nil || r.GussetMm != nil || r.NumberOfColours != nil
}

// JobPatch holds normalized values for a partial update. For the optional
// numeric fields the Set flag distinguishes "not supplied" from an explicit
// null (supplied but blank).
type JobPatch struct {
	JobNumber       *string
	CustomerName    *string
	BrandName       *string
	DesignName      *string
	CylinderNumbers *string
	ColourNames     *string
	Notes           *string
	Materials       []Material
	MaterialsSet    bool
	WebWidthMm      *float64
	WebWidthSet     bool
	RepeatLengthMm  *float64
	RepeatLengthSet bool
	GussetMm        *float64
	GussetSet       bool
	NumberOfColours *int
	NumColoursSet   bool
}

// Normalize validates and converts the partial update. Supplied required
// fields may not be blanked out.
func (r *UpdateJobRequest) Normalize() (*JobPatch, error) {
	if !r.HasUpdates() {
		return nil, apperrors.Validation("at least one field must be updated")
	}

	p := &JobPatch{}
	if r.JobNumber != nil {
		v := strings.TrimSpace(*r.JobNumber)
		if v == "" {
			return nil, apperrors.ValidationField("jobNumber", "job number cannot be empty")
		}
		p.JobNumber = &v
	}
	if r.CustomerName != nil {
		v := strings.TrimSpace(*r.CustomerName)
		if v == "" {
			return nil, apperrors.ValidationField("customerName", "customer name cannot be empty")
		}
		p.CustomerName = &v
	}
	if r.DesignName != nil {
		v := strings.TrimSpace(*r.DesignName)
		if v == "" {
			return nil, apperrors.ValidationField("designName", "design name cannot be empty")
		}
		p.DesignName = &v
	}
	if r.BrandName != nil {
		v := strings.TrimSpace(*r.BrandName)
		p.BrandName = &v
	}
	if r.CylinderNumbers != nil {
		v := strings.TrimSpace(*r.CylinderNumbers)
		p.CylinderNumbers = &v
	}
	if r.ColourNames != nil {
		v := strings.TrimSpace(*r.ColourNames)
		p.ColourNames = &v
	}
	if r.Notes != nil {
		p.Notes = r.Notes
	}
	if r.MaterialsText != nil {
		materials, err := ParseMaterials(*r.MaterialsText)
		if err != nil {
			return nil, err
		}
		p.Materials = materials
		p.MaterialsSet = true
	}

	var err error
	if r.WebWidthMm != nil {
		if p.WebWidthMm, err = ParseOptionalNumber("webWidthMm", *r.WebWidthMm); err != nil {
			return nil, err
		}
		p.WebWidthSet = true
	}
	if r.RepeatLengthMm != nil {
		if p.RepeatLengthMm, err = ParseOptionalNumber("repeatLengthMm", *r.RepeatLengthMm); err != nil {
			return nil, err
		}
		p.RepeatLengthSet = true
	}
	if r.GussetMm != nil {
		if p.GussetMm, err = ParseOptionalNumber("gussetMm", *r.GussetMm); err != nil {
			return nil, err
		}
		p.GussetSet = true
	}
	if r.NumberOfColours != nil {
		if p.NumberOfColours, err = ParseOptionalInt("numberOfColours", *r.NumberOfColours); err != nil {
			return nil, err
		}
		p.NumColoursSet = true
	}
	return p, nil
}

// ParseOptionalNumber normalizes an optional numeric form input: blank input
// becomes nil (stored as SQL NULL), anything else must parse as a number.
// Non-numeric input is rejected rather than silently stored as NaN.
func ParseOptionalNumber(field, raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperrors.ValidationField(field, "must be a number")
	}
	return &v, nil
}

// ParseOptionalInt normalizes an optional integer form input. Blank input
// becomes nil; non-integer input is rejected.
func ParseOptionalInt(field, raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, apperrors.ValidationField(field, "must be a whole number")
	}
	return &v, nil
}

// ParseMaterials parses the one-line-per-material text format: each line is
// "type, thicknessMicron", thickness optional. Lines are trimmed and blank
// lines dropped; only the first comma separates type from thickness.
func ParseMaterials(text string) ([]Material, error) {
	lines := strings.Split(text, "\n")
	materials := make([]Material, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		typ, rest, hasThickness := strings.Cut(line, ",")
		m := Material{Type: strings.TrimSpace(typ)}
		if hasThickness && strings.TrimSpace(rest) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return nil, apperrors.ValidationField("materialsText",
					"material thickness must be a number: "+line)
			}
			m.ThicknessMicron = &v
		}
		materials = append(materials, m)
	}
	return materials, nil
}

// FormatMaterials serializes materials back into the one-line-per-material
// text format accepted by ParseMaterials.
func FormatMaterials(materials []Material) string {
	var b strings.Builder
	for i, m := range materials {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Type)
		if m.ThicknessMicron != nil {
			b.WriteString(", ")
			b.WriteString(strconv.FormatFloat(*m.ThicknessMicron, 'f', -1, 64))
		}
	}
	return b.String()
}
