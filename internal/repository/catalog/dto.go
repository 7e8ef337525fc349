package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

// snapshot accepts either a bare list of records or {assessments: [...]}.
type snapshot struct {
	Assessments []recordDTO `yaml:"assessments"`
}

// recordDTO is one snapshot entry as written by the crawler.
type recordDTO struct {
	ID          string     `yaml:"id"`
	URL         string     `yaml:"url"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Category    string     `yaml:"category"`
	TestType    stringList `yaml:"test_type"`
	Duration    minutes    `yaml:"duration"`
	Adaptive    yesNo      `yaml:"adaptive_support"`
	Remote      yesNo      `yaml:"remote_support"`
	PrePackaged yesNo      `yaml:"pre_packaged"`
}

// toDomain converts the DTO into a validated record.
// A missing id is derived from the URL so it stays stable across reloads.
func (d recordDTO) toDomain() (assessment.Record, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" && strings.TrimSpace(d.URL) != "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(d.URL))).String()
	}
	var cat assessment.Category
	if strings.TrimSpace(d.Category) != "" {
		cat = assessment.ParseCategory(d.Category)
	}
	return assessment.New(assessment.Params{
		ID:              id,
		URL:             d.URL,
		Name:            d.Name,
		Description:     d.Description,
		Category:        cat,
		DurationMinutes: int(d.Duration),
		Adaptive:        bool(d.Adaptive),
		Remote:          bool(d.Remote),
		TestTypes:       d.TestType,
	})
}

// stringList decodes a YAML sequence or a "a|b" / "a, b" scalar.
type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("test_type: %w", err)
		}
		*s = list
	case yaml.ScalarNode:
		parts := strings.FieldsFunc(value.Value, func(r rune) bool { return r == '|' || r == ',' })
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*s = out
	default:
		return fmt.Errorf("test_type: unexpected YAML kind %d at line %d", value.Kind, value.Line)
	}
	return nil
}

// yesNo decodes booleans written as true/false or "Yes"/"No".
type yesNo bool

func (b *yesNo) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("flag: expected scalar at line %d", value.Line)
	}
	switch strings.ToLower(strings.TrimSpace(value.Value)) {
	case "yes", "y", "true", "1":
		*b = true
	case "no", "n", "false", "0", "", "null", "~":
		*b = false
	default:
		return fmt.Errorf("flag: invalid value %q at line %d", value.Value, value.Line)
	}
	return nil
}

// minutes decodes an integer or the first integer inside a string ("approx. 30 minutes").
type minutes int

func (m *minutes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar at line %d", value.Line)
	}
	v := strings.TrimSpace(value.Value)
	if v == "" || v == "null" || v == "~" {
		*m = 0
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		*m = minutes(n)
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*m = minutes(int(f + 0.5))
		return nil
	}
	start := strings.IndexFunc(v, unicode.IsDigit)
	if start < 0 {
		*m = 0
		return nil
	}
	end := start
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[start:end])
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*m = minutes(n)
	return nil
}
