package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ibook/config"
	"ibook/database"
	"ibook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Seeds a handful of providers with schedules and sample bookings for local
// development.
func main() {
	config.LoadConfig()
	database.InitDB()
	db := database.DB()
	providerColl := db.Collection("providers")
	bookingColl := db.Collection("bookings")
	counterColl := db.Collection("slot_counters")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, coll := range []string{"providers", "bookings", "slot_counters"} {
		if _, err := db.Collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("Failed to clear %s collection: %v", coll, err)
		}
	}

	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	zones := []string{"Asia/Kolkata", "Europe/Berlin", "America/New_York"}

	var providers []interface{}
	for i, zone := range zones {
		hours := make(map[string]*models.TimeWindow, len(weekdays))
		for _, day := range weekdays {
			hours[day] = &models.TimeWindow{Start: "09:00", End: "17:00"}
		}

		providers = append(providers, models.Provider{
			ID:       uuid.New().String(),
			Username: fmt.Sprintf("provider%d", i+1),
			Name:     fmt.Sprintf("Demo Provider %d", i+1),
			Email:    fmt.Sprintf("provider%d@example.com", i+1),
			Schedule: models.ProviderSchedule{
				WorkingHours:            hours,
				SlotDurationMinutes:     30,
				BreakMinutes:            10,
				BookingDelayHours:       2,
				Timezone:                zone,
				MultipleBookingsPerSlot: i == 0,
				BookingsPerSlotCapacity: 3,
			},
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
	}
	if _, err := providerColl.InsertMany(ctx, providers); err != nil {
		log.Fatalf("Failed to seed providers: %v", err)
	}

	// One booking tomorrow morning for the first provider so the dashboard
	// has something to show.
	loc, err := time.LoadLocation(zones[0])
	if err != nil {
		log.Fatalf("Failed to load zone: %v", err)
	}
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	slot := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, loc).UTC()

	booking := models.Booking{
		ID:           uuid.New().String(),
		ProviderID:   "provider1",
		DateTimeUTC:  slot,
		Status:       models.StatusUpcoming,
		CustomerName: "Seed Customer",
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := bookingColl.InsertOne(ctx, booking); err != nil {
		log.Fatalf("Failed to seed booking: %v", err)
	}
	if _, err := counterColl.InsertOne(ctx, models.SlotCounter{
		ProviderID: "provider1",
		SlotTime:   slot,
		Count:      1,
		UpdatedAt:  time.Now().UTC(),
	}); err != nil {
		log.Fatalf("Failed to seed slot counter: %v", err)
	}

	log.Printf("Seeded %d providers and 1 booking at %s", len(providers), slot.Format(time.RFC3339))
}
