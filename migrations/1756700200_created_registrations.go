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
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("registrations")
		collection.Fields.Add(
			&core.RelationField{
				Name:          "event",
				CollectionId:  events.Id,
				MaxSelect:     1,
				Required:      true,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:         "participant",
				CollectionId: users.Id,
				MaxSelect:    1,
				Required:     true,
			},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"confirmed"},
				MaxSelect: 1,
				Required:  true,
			},
			&core.JSONField{Name: "form_responses", MaxSize: 50000},
			&core.JSONField{Name: "items_ordered", MaxSize: 50000},
			&core.TextField{Name: "ticket_id", Max: 64},
			&core.TextField{Name: "qr_code", Max: 100000},
			&core.BoolField{Name: "attendance_marked"},
			&core.DateField{Name: "attendance_time"},
			&core.DateField{Name: "collection_time"},
			&core.SelectField{
				Name: "payment_status",
				Values: []string{
					"not_required", "pending_upload", "pending_approval",
					"approved", "rejected",
				},
				MaxSelect: 1,
				Required:  true,
			},
			&core.TextField{Name: "payment_proof", Max: 500000},
			&core.DateField{Name: "payment_proof_uploaded_at"},
			&core.TextField{Name: "rejection_reason", Max: 1000},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_registrations_event", false, "event", "")
		collection.AddIndex("idx_registrations_participant", false, "participant", "")
		// Tickets are globally unique; merchandise orders before approval
		// have no ticket yet, hence the partial index.
		collection.AddIndex("idx_registrations_ticket", true, "ticket_id", "ticket_id != ''")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("registrations")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
