package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Extends the users auth collection with the profile fields both roles need:
// organizers carry a display name and an optional Discord webhook,
// participants carry the eligibility-relevant participant_type.
func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.SelectField{
				Name:      "role",
				Values:    []string{"participant", "organizer"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "first_name", Max: 100},
			&core.TextField{Name: "last_name", Max: 100},
			&core.SelectField{
				Name:      "participant_type",
				Values:    []string{"UG-1", "UG-2", "UG-3", "UG-4", "PG", "PhD", "Non-IIIT"},
				MaxSelect: 1,
			},
			&core.TextField{Name: "organizer_name", Max: 200},
			&core.URLField{Name: "discord_webhook"},
			// Zero value means active, so fresh signups work without a
			// create hook; moderation flips the flag on.
			&core.BoolField{Name: "disabled"},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		for _, name := range []string{
			"role", "first_name", "last_name", "participant_type",
			"organizer_name", "discord_webhook", "disabled",
		} {
			collection.Fields.RemoveByName(name)
		}

		return app.Save(collection)
	})
}
