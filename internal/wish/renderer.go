// Package wish renders message templates into greeting text.
//
// Templates carry placeholders in double-brace form ({{name}}, {{age}},
// {{relation}}, {{year}}, {{eventType}}). Rendering substitutes the values
// that are present, removes any placeholder that has no value, and normalizes
// the remaining whitespace so dropped placeholders leave no gaps behind.
package wish

import (
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Data holds the values available to a template. Age and Year are pointers
// because they only apply to some event types; a nil pointer means the
// corresponding placeholder is stripped from the output.
type Data struct {
	Name      string
	Relation  string
	EventType string
	Age       *int
	Year      *int
}

// Render substitutes the data into template and returns the cleaned result.
func Render(template string, data Data) string {
	replacements := map[string]string{
		"name":      data.Name,
		"relation":  data.Relation,
		"eventType": data.EventType,
	}
	if data.Age != nil {
		replacements["age"] = strconv.Itoa(*data.Age)
	}
	if data.Year != nil {
		replacements["year"] = strconv.Itoa(*data.Year)
	}

	message := template
	for key, value := range replacements {
		message = strings.ReplaceAll(message, "{{"+key+"}}", value)
	}

	message = placeholderPattern.ReplaceAllString(message, "")
	message = whitespacePattern.ReplaceAllString(message, " ")
	return strings.TrimSpace(message)
}
