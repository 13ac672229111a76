package agent

import (
	"strings"
	"time"

	"github.com/w-h-a/assistant/internal/service/research"
)

const timeLayout = "2006-01-02 15:04:05"

// Context is everything gathered for one turn before generation.
type Context struct {
	CurrentTime  time.Time
	WebRequested bool
	Web          string
	Memory       string
}

// String renders the sections that apply, separated by a blank line. The
// current time is always present.
func (c Context) String() string {
	sections := []string{"Current time: " + c.CurrentTime.Format(timeLayout)}

	if c.WebRequested {
		web := strings.TrimSpace(c.Web)
		if len(web) == 0 {
			web = research.NotFound
		}
		sections = append(sections, "Web search results:\n"+web)
	}

	if len(strings.TrimSpace(c.Memory)) > 0 {
		sections = append(sections, "Memory context:\n"+c.Memory)
	}

	return strings.Join(sections, "\n\n")
}
