package workflow

import (
	"encoding/json"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/status"
)

// Step names a node of the run's state machine. Routing is done on
// State.Next; StepTerminal ends the run.
type Step int

const (
	StepPrecheck Step = iota
	StepURLSummary
	StepFormatContent
	StepSaveNotion
	StepExtractTasks
	StepCreateTasks
	StepTerminal
)

func (s Step) String() string {
	switch s {
	case StepPrecheck:
		return "precheck"
	case StepURLSummary:
		return "url_summary"
	case StepFormatContent:
		return "format_content"
	case StepSaveNotion:
		return "save_notion"
	case StepExtractTasks:
		return "extract_tasks"
	case StepCreateTasks:
		return "create_tasks"
	case StepTerminal:
		return "terminal"
	}
	return "unknown"
}

// taskOutcome records what happened to one extracted task during
// creation, for the final report.
type taskOutcomeKind int

const (
	outcomeCreated taskOutcomeKind = iota
	outcomeProjectNotFound
	outcomeFailed
)

type taskOutcome struct {
	Task taskRecord
	Kind taskOutcomeKind
	Note string // error text or the unresolved project name
}

// taskRecord is the report's view of one extracted task.
type taskRecord struct {
	Title       string
	ProjectName string
	DueDate     string
	Priority    int
	Content     string
}

// State is the record threaded through one run. Exactly one State value
// exists per run; every transition consumes it and returns a new value,
// so no State is ever shared or mutated concurrently.
type State struct {
	Message     message.Message
	TextContent string
	MediaFiles  []message.Attachment
	Background  string

	Precheck     *PrecheckResult
	FormatResult *FormatResult
	Tasks        []ExtractedTask
	Outcomes     []taskOutcome
	SaveSuccess  bool
	NotionPage   *PageRef

	Status       *status.Handle
	ErrorMessage string
	Next         Step
}

// background is the JSON document serialized once per run and handed to
// the formatter and (parsed back) to the extractor.
type background struct {
	Profile string         `json:"profile"`
	Dida    backgroundDida `json:"dida"`
}

type backgroundDida struct {
	Projects []backgroundProject `json:"projects"`
	Tags     []string            `json:"tags"`
}

type backgroundProject struct {
	Name string `json:"name"`
}

// BuildBackground serializes the user's profile and to-do context.
func BuildBackground(uc *config.UserConfig) string {
	bg := background{
		Profile: uc.Profile,
		Dida: backgroundDida{
			Projects: make([]backgroundProject, 0, len(uc.DidaProjects)),
			Tags:     uc.DidaTags,
		},
	}
	for _, p := range uc.DidaProjects {
		if p.Name != "" {
			bg.Dida.Projects = append(bg.Dida.Projects, backgroundProject{Name: p.Name})
		}
	}
	if bg.Dida.Tags == nil {
		bg.Dida.Tags = []string{}
	}

	data, err := json.Marshal(bg)
	if err != nil {
		return ""
	}
	return string(data)
}

// parseBackground recovers profile and project names from the serialized
// background. Malformed JSON degrades to empty values rather than
// failing the step.
func parseBackground(raw string) (profile string, projectNames []string) {
	var bg background
	if err := json.Unmarshal([]byte(raw), &bg); err != nil {
		return "", nil
	}
	names := make([]string, 0, len(bg.Dida.Projects))
	for _, p := range bg.Dida.Projects {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return bg.Profile, names
}
