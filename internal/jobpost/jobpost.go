// Package jobpost holds the job-vacancy record shared by the job API and
// renders it as the plain-text message posted to the channel.
package jobpost

import (
	"encoding/json"
	"strconv"
	"strings"
)

// JobPost is one vacancy as decoded from the job API. It is read-only once
// fetched; no schema is enforced and every field is optional.
type JobPost map[string]any

// Field keys consumed from the API payload.
const (
	KeyTitle            = "title"
	KeyVacancyNumber    = "vacancy_number"
	KeyOrganization     = "organization"
	KeyLocation         = "location"
	KeyName             = "name"
	KeyEmploymentType   = "employment_type"
	KeyGender           = "gender"
	KeySalary           = "salary"
	KeyContractDuration = "contract_duration"
	KeyMinimumEducation = "minimum_education"
	KeyExpireDate       = "expire_date"
	KeySlug             = "slug"
)

// Get returns the raw value for key and whether the key is present.
func (p JobPost) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	return v, ok
}

// Nested returns parent.key. A missing parent, or one that is not an object,
// reads as an empty object.
func (p JobPost) Nested(parent, key string) (any, bool) {
	v, ok := p.Get(parent)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return JobPost(obj).Get(key)
}

// Truthy reports whether v counts as set: not null, false, zero, "" or an
// empty collection.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// Render turns a decoded JSON value into display text. Null renders as
// "None" and booleans as "True"/"False" so output matches what the site's
// share endpoint has always produced.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case json.Number:
		return x.String()
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "N/A"
		}
		return strings.TrimSpace(string(b))
	}
}
