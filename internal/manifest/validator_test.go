package manifest

import (
	"strings"
	"testing"
)

const validDoc = `{
  "schema_version": "1.0",
  "last_updated": "2024-06-01T00:00:00Z",
  "repository": {"owner": "cyberionsoft", "name": "css_dev_manager"},
  "apps": {}
}`

func TestValidateAccepts(t *testing.T) {
	result, err := Validate([]byte(validDoc))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("valid document rejected: %s", result.Summary())
	}
}

func TestValidateMissingRequired(t *testing.T) {
	doc := `{"schema_version": "1.0"}`
	result, err := Validate([]byte(doc))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("document missing required fields accepted")
	}
	if len(result.Issues) == 0 {
		t.Fatal("no issues reported")
	}
}

func TestValidateBadVersionPattern(t *testing.T) {
	doc := strings.Replace(validDoc, `"apps": {}`,
		`"apps": {"devautomator": {"latest_version": "1.0", "builds": {}}}`, 1)
	result, err := Validate([]byte(doc))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("two-segment version accepted")
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Path, "latest_version") && issue.Keyword == "pattern" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected pattern issue at latest_version, got %+v", result.Issues)
	}
}

func TestValidateMalformedInput(t *testing.T) {
	if _, err := Validate([]byte("{unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}
