package help

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestQuickstartYAML_Parses(t *testing.T) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(QuickstartYAML), &doc); err != nil {
		t.Fatalf("QuickstartYAML is not valid YAML: %v", err)
	}

	for _, key := range []string{"commands", "endpoints", "status_priority", "windows"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("QuickstartYAML missing %q section", key)
		}
	}
}
