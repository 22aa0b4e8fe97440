package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("events")
		collection.Fields.Add(
			&core.RelationField{
				Name:         "organizer",
				CollectionId: users.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.TextField{Name: "name", Required: true, Max: 200},
			&core.TextField{Name: "description", Max: 5000},
			&core.SelectField{
				Name:      "type",
				Values:    []string{"normal", "merchandise"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "category", Max: 100},
			&core.SelectField{
				Name:      "eligibility",
				Values:    []string{"iiit", "all"},
				MaxSelect: 1,
			},
			&core.JSONField{Name: "tags", MaxSize: 2000},
			&core.DateField{Name: "registration_deadline", Required: true},
			&core.DateField{Name: "start_date", Required: true},
			&core.DateField{Name: "end_date", Required: true},
			&core.NumberField{Name: "registration_limit", OnlyInt: true},
			&core.NumberField{Name: "registration_fee"},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"draft", "published", "completed", "closed"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.JSONField{Name: "custom_form", MaxSize: 50000},
			&core.JSONField{Name: "merchandise_items", MaxSize: 200000},
			&core.NumberField{Name: "purchase_limit", OnlyInt: true},
			&core.NumberField{Name: "per_item_limit", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_events_organizer", false, "organizer", "")
		collection.AddIndex("idx_events_status", false, "status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
