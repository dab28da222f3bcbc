package fixture

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

// CityCentre is used as the location of activities that do not declare one.
const CityCentre = "48.85334,2.34889"

type venue struct {
	Address  string  `json:"address,omitempty"`
	Category string  `json:"category,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Carrier  string  `json:"carrier,omitempty"`
	Stops    int     `json:"stops"`
}

func payload(v venue) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func window(from, to time.Duration) *candidate.TimeWindow {
	return &candidate.TimeWindow{Start: from, End: to}
}

func item(kind candidate.Kind, id, name string, price int64, loc string, tags ...string) candidate.Candidate {
	return candidate.Candidate{
		ID:       id,
		Kind:     kind,
		Provider: Name,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Location: loc,
		Tags:     constraint.MustTagSet(tags...),
	}
}

// Paris is the demo catalog for a New York to Paris trip.
func Paris() Data {
	flights := []candidate.Candidate{
		item(candidate.KindFlight, "AF-011", "Air France 011 JFK-CDG", 640, "CDG", "direct"),
		item(candidate.KindFlight, "DL-264", "Delta 264 JFK-CDG", 710, "CDG", "direct", "lounge"),
		item(candidate.KindFlight, "UA-57", "United 57 EWR-CDG", 580, "CDG", "direct"),
		item(candidate.KindFlight, "N0-701", "Norse 701 JFK-CDG", 420, "CDG", "low-cost"),
	}
	flights[0].Payload = payload(venue{Carrier: "AF"})
	flights[1].Payload = payload(venue{Carrier: "DL"})
	flights[2].Payload = payload(venue{Carrier: "UA"})
	flights[3].Payload = payload(venue{Carrier: "N0", Stops: 1})

	hotels := []candidate.Candidate{
		item(candidate.KindHotel, "H-MARAIS", "Hotel du Petit Marais", 180, "48.8575,2.3590", "wheelchair-accessible", "wifi"),
		item(candidate.KindHotel, "H-MEURICE", "Le Meurice", 620, "48.8651,2.3281", "spa", "wheelchair-accessible"),
		item(candidate.KindHotel, "H-GENERATOR", "Generator Paris", 55, "48.8781,2.3700", "hostel", "wifi"),
		item(candidate.KindHotel, "H-BOULEVARDS", "Hotel des Grands Boulevards", 240, "48.8707,2.3467", "boutique", "step-free"),
	}

	activities := []candidate.Candidate{
		item(candidate.KindActivity, "v123", "Eiffel Tower", 35, "48.8584,2.2945", "history", "monument", "wheelchair-accessible"),
		item(candidate.KindActivity, "v124", "Louvre Museum", 22, "48.8606,2.3376", "art", "museum", "history", "culture", "wheelchair-accessible"),
		item(candidate.KindActivity, "v125", "Musee d'Orsay", 16, "48.8600,2.3266", "art", "culture"),
		item(candidate.KindActivity, "v126", "Catacombs of Paris", 29, "48.8338,2.3324", "history"),
		item(candidate.KindActivity, "v127", "Le Potager du Marais", 40, "48.8610,2.3530", "food", "restaurant", "vegetarian", "vegan"),
		item(candidate.KindActivity, "v128", "Bistro des Halles", 55, "48.8625,2.3470", "food", "restaurant", "meat-only"),
		item(candidate.KindActivity, "v129", "Marche des Enfants Rouges", 15, "48.8629,2.3618", "food", "market", "wheelchair-accessible"),
		item(candidate.KindActivity, "v130", "Jardin du Luxembourg", 0, "48.8462,2.3372", "nature", "park", "wheelchair-accessible"),
		item(candidate.KindActivity, "v131", "Palace of Versailles", 60, "48.8049,2.1204", "history", "culture", "day-trip"),
		item(candidate.KindActivity, "v132", "Palais Garnier Tour", 15, "", "culture", "history"),
		item(candidate.KindActivity, "v133", "Seine Evening Cruise", 45, "48.8600,2.2930", "nature", "cruise"),
	}
	activities[0].Payload = payload(venue{Address: "Champ de Mars", Category: "Monument", Rating: 4.8})
	activities[1].Payload = payload(venue{Address: "Rue de Rivoli", Category: "Museum", Rating: 4.8})
	activities[8].Duration = 6 * time.Hour
	activities[9].Window = window(10*time.Hour, 11*time.Hour+30*time.Minute)
	activities[10].Window = window(18*time.Hour, 20*time.Hour)

	return Data{Flights: flights, Hotels: hotels, Activities: activities}
}
