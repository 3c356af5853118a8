package jobpost

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) JobPost {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var p JobPost
	require.NoError(t, dec.Decode(&p))
	return p
}

func TestFormatFullRecord(t *testing.T) {
	t.Parallel()
	post := decode(t, `{
		"title": "Driver",
		"vacancy_number": "V-42",
		"organization": {"name": "ACME"},
		"location": {"name": "Kabul"},
		"employment_type": "Full-time",
		"contract_duration": "1 year",
		"minimum_education": "Bachelor",
		"expire_date": "2024-12-31",
		"slug": "driver-42"
	}`)

	want := "Job Title: Driver\n" +
		"Job Vacancy Number: V-42\n" +
		"Organization: ACME\n" +
		"Location: Kabul\n" +
		"Employment Type: Full-time\n" +
		"Contract Duration: 1 year\n" +
		"Minimum Education: Bachelor\n" +
		"Application Deadline: 2024-12-31\n" +
		"\n" +
		"https://www.karyab.org/jobs/driver-42"

	assert.Equal(t, want, Format(post, DefaultLinkBase))
	assert.Equal(t, want, Format(post, ""), "empty link base falls back to the default")
}

func TestFormatEmptyRecord(t *testing.T) {
	t.Parallel()
	for name, post := range map[string]JobPost{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			got := Format(post, DefaultLinkBase)
			lines := strings.Split(got, "\n")
			assert.Equal(t, []string{
				"Job Title: N/A",
				"Job Vacancy Number: N/A",
				"Organization: N/A",
				"Location: N/A",
				"Employment Type: N/A",
				"Contract Duration: N/A",
				"Minimum Education: N/A",
				"Application Deadline: N/A",
				"",
				"https://www.karyab.org/jobs/",
			}, lines)
			assert.NotContains(t, got, "Gender Requirement:")
			assert.NotContains(t, got, "Salary:")
			assert.NotContains(t, got, "None")
		})
	}
}

func TestFormatOptionalFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		raw        string
		wantGender string
		wantSalary string
	}{
		{name: "both set", raw: `{"gender":"Female","salary":"25000 AFN"}`, wantGender: "Female", wantSalary: "25000 AFN"},
		{name: "numeric salary", raw: `{"salary":18000}`, wantSalary: "18000"},
		{name: "empty strings", raw: `{"gender":"","salary":""}`},
		{name: "nulls", raw: `{"gender":null,"salary":null}`},
		{name: "zero and false", raw: `{"gender":false,"salary":0}`},
		{name: "absent", raw: `{}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Format(decode(t, tt.raw), DefaultLinkBase)
			if tt.wantGender != "" {
				assert.Contains(t, got, "\nGender Requirement: "+tt.wantGender+"\n")
			} else {
				assert.NotContains(t, got, "Gender Requirement:")
			}
			if tt.wantSalary != "" {
				assert.Contains(t, got, "\nSalary: "+tt.wantSalary+"\n")
			} else {
				assert.NotContains(t, got, "Salary:")
			}
		})
	}
}

func TestFormatLineOrderWithOptionalFields(t *testing.T) {
	t.Parallel()
	got := Format(decode(t, `{"employment_type":"Part-time","gender":"Any","salary":"As per scale","contract_duration":"6 months"}`), DefaultLinkBase)
	iType := strings.Index(got, "Employment Type:")
	iGender := strings.Index(got, "Gender Requirement:")
	iSalary := strings.Index(got, "Salary:")
	iContract := strings.Index(got, "Contract Duration:")
	assert.True(t, iType < iGender && iGender < iSalary && iSalary < iContract, got)
}

func TestFormatToleratesOddShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		post JobPost
		want []string
	}{
		{
			name: "nested parents not objects",
			post: JobPost{"organization": "ACME", "location": nil},
			want: []string{"Organization: N/A", "Location: N/A"},
		},
		{
			name: "nested name missing",
			post: JobPost{"organization": map[string]any{"id": 3}, "location": map[string]any{}},
			want: []string{"Organization: N/A", "Location: N/A"},
		},
		{
			name: "explicit null renders None",
			post: JobPost{"title": nil},
			want: []string{"Job Title: None"},
		},
		{
			name: "non-string scalars",
			post: JobPost{"vacancy_number": float64(42), "expire_date": 1.5, "employment_type": true},
			want: []string{"Job Vacancy Number: 42", "Application Deadline: 1.5", "Employment Type: True"},
		},
		{
			name: "custom link base and numeric slug",
			post: JobPost{"slug": json.Number("77")},
			want: []string{"\n\nhttps://example.test/j/77"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base := DefaultLinkBase
			if tt.name == "custom link base and numeric slug" {
				base = "https://example.test/j/"
			}
			var got string
			require.NotPanics(t, func() { got = Format(tt.post, base) })
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestFormatDoesNotMutatePost(t *testing.T) {
	t.Parallel()
	post := JobPost{"title": "Nurse", "organization": map[string]any{"name": "MSF"}}
	_ = Format(post, DefaultLinkBase)
	assert.Equal(t, JobPost{"title": "Nurse", "organization": map[string]any{"name": "MSF"}}, post)
}

func TestTruthy(t *testing.T) {
	t.Parallel()
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(json.Number("0")))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy([]any{}))
	assert.False(t, Truthy(map[string]any{}))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(json.Number("0.5")))
	assert.True(t, Truthy([]any{"a"}))
}

func TestRender(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "None", Render(nil))
	assert.Equal(t, "False", Render(false))
	assert.Equal(t, "3", Render(float64(3)))
	assert.Equal(t, "12.25", Render(json.Number("12.25")))
	assert.Equal(t, `["a","b"]`, Render([]any{"a", "b"}))
}
