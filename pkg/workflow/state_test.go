package workflow

import (
	"encoding/json"
	"testing"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
)

func TestBuildBackground(t *testing.T) {
	uc := &config.UserConfig{
		Profile: "night owl",
		DidaProjects: []config.Project{
			{Name: "Work", ID: "p1"},
			{Name: "", ID: "p2"}, // unnamed projects are dropped
		},
		DidaTags: []string{"focus"},
	}

	raw := BuildBackground(uc)

	var decoded struct {
		Profile string `json:"profile"`
		Dida    struct {
			Projects []struct {
				Name string `json:"name"`
			} `json:"projects"`
			Tags []string `json:"tags"`
		} `json:"dida"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("background is not valid JSON: %v\n%s", err, raw)
	}
	if decoded.Profile != "night owl" {
		t.Fatalf("profile = %q", decoded.Profile)
	}
	if len(decoded.Dida.Projects) != 1 || decoded.Dida.Projects[0].Name != "Work" {
		t.Fatalf("projects = %+v", decoded.Dida.Projects)
	}
	if len(decoded.Dida.Tags) != 1 || decoded.Dida.Tags[0] != "focus" {
		t.Fatalf("tags = %+v", decoded.Dida.Tags)
	}
}

func TestBuildBackgroundEmptyConfig(t *testing.T) {
	raw := BuildBackground(&config.UserConfig{})

	// Empty tag and project lists serialize as [] rather than null.
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("background is not valid JSON: %v", err)
	}
	dida := decoded["dida"].(map[string]interface{})
	if _, ok := dida["projects"].([]interface{}); !ok {
		t.Fatalf("projects = %v, want empty array", dida["projects"])
	}
	if _, ok := dida["tags"].([]interface{}); !ok {
		t.Fatalf("tags = %v, want empty array", dida["tags"])
	}
}

func TestParseBackground(t *testing.T) {
	raw := `{"profile":"p","dida":{"projects":[{"name":"Work"},{"name":"Home"}],"tags":["t"]}}`

	profile, projects := parseBackground(raw)
	if profile != "p" {
		t.Fatalf("profile = %q", profile)
	}
	if len(projects) != 2 || projects[0] != "Work" || projects[1] != "Home" {
		t.Fatalf("projects = %v", projects)
	}
}

func TestParseBackgroundMalformed(t *testing.T) {
	profile, projects := parseBackground("{not json")
	if profile != "" || projects != nil {
		t.Fatalf("malformed background should degrade to empty, got %q %v", profile, projects)
	}
}

func TestStepString(t *testing.T) {
	steps := map[Step]string{
		StepPrecheck:      "precheck",
		StepURLSummary:    "url_summary",
		StepFormatContent: "format_content",
		StepSaveNotion:    "save_notion",
		StepExtractTasks:  "extract_tasks",
		StepCreateTasks:   "create_tasks",
		StepTerminal:      "terminal",
	}
	for step, want := range steps {
		if got := step.String(); got != want {
			t.Errorf("Step(%d).String() = %q, want %q", step, got, want)
		}
	}
}
