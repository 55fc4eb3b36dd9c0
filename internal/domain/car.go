package domain

type LocationChoice struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LocationSelection holds the pickup and drop points the user picked, if any.
type LocationSelection struct {
	Pickup *LocationChoice `json:"pickupLocation,omitempty"`
	Drop   *LocationChoice `json:"dropLocation,omitempty"`
}

// Complete reports whether both a pickup and a drop location are set.
func (s LocationSelection) Complete() bool {
	return s.Pickup != nil && s.Drop != nil
}

const CarAvailabilityMaintenance = "maintenance"

type CarAvailability struct {
	Status string `json:"status"`
}

type CarImage struct {
	URL string `json:"url"`
}

type CalculatedPricing struct {
	Tiers []PricingTier `json:"tiers"`
}

type Car struct {
	ID                string             `json:"_id"`
	Brand             string             `json:"brand"`
	Model             string             `json:"model"`
	City              string             `json:"city"`
	Category          string             `json:"category"`
	FuelType          string             `json:"fuelType"`
	Transmission      string             `json:"transmission"`
	Seats             int                `json:"seats"`
	Thumbnail         string             `json:"thumbnail,omitempty"`
	Images            []CarImage         `json:"images,omitempty"`
	Availability      *CarAvailability   `json:"availability,omitempty"`
	PickupLocations   []LocationChoice   `json:"pickupLocations,omitempty"`
	DropLocations     []LocationChoice   `json:"dropLocations,omitempty"`
	CalculatedPricing *CalculatedPricing `json:"calculatedPricing,omitempty"`
}

// DisplayName is "{brand} {model}", used in the gateway description.
func (c Car) DisplayName() string {
	return c.Brand + " " + c.Model
}

// RequiresLocations reports whether checkout must carry pickup and drop choices.
func (c Car) RequiresLocations() bool {
	return len(c.PickupLocations) > 0
}

// UnderMaintenance reports whether the car must be hidden from listings.
func (c Car) UnderMaintenance() bool {
	return c.Availability != nil && c.Availability.Status == CarAvailabilityMaintenance
}

// CarFilter mirrors the listing page query parameters. Empty fields are omitted.
type CarFilter struct {
	City         string `json:"city,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Category     string `json:"category,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	MinPrice     string `json:"minPrice,omitempty"`
	MaxPrice     string `json:"maxPrice,omitempty"`
}

// CarDetail is everything the detail page needs in one response.
type CarDetail struct {
	Car    Car          `json:"car"`
	Cities []string     `json:"cities"`
	Window RentalWindow `json:"window"`
	Hint   *TierID      `json:"tierHint,omitempty"`
}

// CarListing is a filtered car list. DurationError is set when the listing
// window is too short to book; the cars are still returned.
type CarListing struct {
	Cars          []Car  `json:"cars"`
	DurationError string `json:"durationError,omitempty"`
}
