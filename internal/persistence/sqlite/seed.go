package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/relationship-reminder/internal/persistence"
)

// seedTemplate describes one built-in system template.
type seedTemplate struct {
	title     string
	body      string
	category  string
	eventType string
}

// systemTemplates is the catalog of built-in greeting templates installed at
// startup. Seeding is keyed on title, so editing a body here updates the
// stored copy on the next start without duplicating rows.
var systemTemplates = []seedTemplate{
	{
		title:     "Sweet birthday",
		body:      "Happy birthday, {{name}}! Wishing my favorite person the most wonderful {{age}}th year. I love you!",
		category:  "girlfriend",
		eventType: "birthday",
	},
	{
		title:     "Romantic anniversary",
		body:      "Happy anniversary, {{name}}! {{year}} years together and every one better than the last.",
		category:  "girlfriend",
		eventType: "anniversary",
	},
	{
		title:     "Birthday for him",
		body:      "Happy {{age}}th birthday, {{name}}! So lucky to have you in my life. Here's to an amazing year ahead!",
		category:  "boyfriend",
		eventType: "birthday",
	},
	{
		title:     "Friendly birthday",
		body:      "Happy birthday, {{name}}! Hope your day is filled with cake, laughs, and good company. Cheers to {{age}}!",
		category:  "friend",
		eventType: "birthday",
	},
	{
		title:     "Family birthday",
		body:      "Happy birthday, {{name}}! Sending you all my love today and always. Enjoy your special day!",
		category:  "family",
		eventType: "birthday",
	},
	{
		title:     "Office birthday",
		body:      "Happy birthday, {{name}}! Wishing you a great day and a successful year ahead.",
		category:  "colleague",
		eventType: "birthday",
	},
	{
		title:     "Funny birthday",
		body:      "Congrats {{name}}, you're officially {{age}}! Don't worry, age is just a number... a steadily increasing one.",
		category:  "funny",
		eventType: "birthday",
	},
	{
		title:     "Formal congratulations",
		body:      "Dear {{name}}, congratulations on this special occasion. Wishing you continued happiness and success.",
		category:  "formal",
		eventType: "all",
	},
	{
		title:     "Pet birthday",
		body:      "Happy {{age}}th birthday to {{name}}! Extra treats and belly rubs today!",
		category:  "general",
		eventType: "pet_birthday",
	},
	{
		title:     "Warm wishes",
		body:      "Thinking of you today, {{name}}! Wishing you a day as wonderful as you are.",
		category:  "general",
		eventType: "all",
	},
}

// SeedSystemTemplates installs the built-in templates. The operation is
// idempotent and safe to run on every startup.
func SeedSystemTemplates(ctx context.Context, templates persistence.TemplateRepository, idGenerator func() string, now func() time.Time) error {
	if templates == nil {
		return fmt.Errorf("sqlite: template repository is required")
	}
	if idGenerator == nil {
		return fmt.Errorf("sqlite: id generator is required")
	}
	if now == nil {
		now = time.Now
	}

	for _, seed := range systemTemplates {
		timestamp := now()
		template := persistence.Template{
			ID:        idGenerator(),
			OwnerID:   nil,
			Title:     seed.title,
			Body:      seed.body,
			Category:  seed.category,
			EventType: seed.eventType,
			CreatedAt: timestamp,
			UpdatedAt: timestamp,
		}
		if err := templates.UpsertSystemTemplate(ctx, template); err != nil {
			return fmt.Errorf("sqlite: failed to seed template %q: %w", seed.title, err)
		}
	}
	return nil
}
