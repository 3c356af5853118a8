package jobpost

import "strings"

// DefaultLinkBase prefixes the slug in the trailing link line.
const DefaultLinkBase = "https://www.karyab.org/jobs/"

const placeholder = "N/A"

// Format renders post as the channel message. Lines keep a fixed order;
// gender and salary appear only when set, every other field falls back to
// "N/A". A post without a slug links to the job listing index rather than
// to a broken ".../jobs/None" path.
func Format(post JobPost, linkBase string) string {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}

	var b strings.Builder
	line := func(label string, v any, ok bool) {
		b.WriteString(label)
		b.WriteString(": ")
		if ok {
			b.WriteString(Render(v))
		} else {
			b.WriteString(placeholder)
		}
		b.WriteByte('\n')
	}
	field := func(label, key string) {
		v, ok := post.Get(key)
		line(label, v, ok)
	}
	optional := func(label, key string) {
		if v, ok := post.Get(key); ok && Truthy(v) {
			line(label, v, true)
		}
	}

	field("Job Title", KeyTitle)
	field("Job Vacancy Number", KeyVacancyNumber)
	v, ok := post.Nested(KeyOrganization, KeyName)
	line("Organization", v, ok)
	v, ok = post.Nested(KeyLocation, KeyName)
	line("Location", v, ok)
	field("Employment Type", KeyEmploymentType)
	optional("Gender Requirement", KeyGender)
	optional("Salary", KeySalary)
	field("Contract Duration", KeyContractDuration)
	field("Minimum Education", KeyMinimumEducation)
	field("Application Deadline", KeyExpireDate)

	b.WriteByte('\n')
	b.WriteString(linkBase)
	if slug, ok := post.Get(KeySlug); ok && Truthy(slug) {
		b.WriteString(Render(slug))
	}

	return b.String()
}
