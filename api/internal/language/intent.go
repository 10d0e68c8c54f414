package language

import (
	"fmt"
	"time"
)

const UsageHint = "Try asking: 'What's the time?', 'What day is it?', or 'What's the date?'."

// HandleIntent answers the clock demo intents. The answers are canned; only
// the entity plumbing is real.
func HandleIntent(intent string, entities []Entity, now time.Time) string {
	switch intent {
	case "GetTime":
		location := entityText(entities, "Location", "local")
		return fmt.Sprintf("The time in %s is 12:34 PM.", location)
	case "GetDay":
		date := entityText(entities, "Date", now.Format("01/02/2006"))
		return fmt.Sprintf("%s is a Tuesday.", date)
	case "GetDate":
		day := entityText(entities, "Weekday", "today")
		return fmt.Sprintf("The next %s is on 06/20/2025.", day)
	default:
		return UsageHint
	}
}

func entityText(entities []Entity, category, fallback string) string {
	for _, e := range entities {
		if e.Category == category && e.Text != "" {
			return e.Text
		}
	}
	return fallback
}
