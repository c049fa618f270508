package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
)

type RidesAPI struct{ DB *store.Postgres }

type pointDTO struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type createRideReq struct {
	Origin        pointDTO  `json:"origin"`
	Destination   pointDTO  `json:"destination"`
	DepartureTime time.Time `json:"departureTime"`
	Fare          float64   `json:"fare"`
	SeatCapacity  int       `json:"seatCapacity"`
	Vehicle       string    `json:"vehicle"`
}

type rideDTO struct {
	ID            string    `json:"id"`
	DriverID      string    `json:"driverId"`
	Origin        pointDTO  `json:"origin"`
	Destination   pointDTO  `json:"destination"`
	DepartureTime time.Time `json:"departureTime"`
	Status        string    `json:"status"`
	Fare          float64   `json:"fare"`
	SeatCapacity  int       `json:"seatCapacity"`
	Vehicle       string    `json:"vehicle"`
}

func toRideDTO(r store.Ride) rideDTO {
	return rideDTO{
		ID:            r.ID,
		DriverID:      r.DriverID,
		Origin:        pointDTO{Address: r.OriginAddr, Lat: r.OriginLat, Lng: r.OriginLng},
		Destination:   pointDTO{Address: r.DestAddr, Lat: r.DestLat, Lng: r.DestLng},
		DepartureTime: r.DepartureTime,
		Status:        r.Status,
		Fare:          r.Fare,
		SeatCapacity:  r.SeatCapacity,
		Vehicle:       r.Vehicle,
	}
}

// Create offers a new ride driven by the authenticated user
func (a *RidesAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createRideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if req.Origin.Address == "" || req.Destination.Address == "" ||
		req.DepartureTime.IsZero() || req.SeatCapacity < 1 || req.Vehicle == "" {
		http.Error(w, "missing ride fields", http.StatusBadRequest)
		return
	}

	ride, err := a.DB.CreateRide(r.Context(), store.Ride{
		DriverID:      auth.User(r.Context()).UserID,
		OriginAddr:    req.Origin.Address,
		OriginLat:     req.Origin.Lat,
		OriginLng:     req.Origin.Lng,
		DestAddr:      req.Destination.Address,
		DestLat:       req.Destination.Lat,
		DestLng:       req.Destination.Lng,
		DepartureTime: req.DepartureTime,
		Fare:          req.Fare,
		SeatCapacity:  req.SeatCapacity,
		Vehicle:       req.Vehicle,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toRideDTO(ride))
}

// List returns upcoming scheduled rides
func (a *RidesAPI) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	rides, err := a.DB.ListRides(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]rideDTO, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideDTO(ride))
	}
	writeJSON(w, out)
}

// Nearby finds scheduled rides starting near a point
func (a *RidesAPI) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng required", http.StatusBadRequest)
		return
	}
	radius, err := strconv.ParseFloat(r.URL.Query().Get("radiusKm"), 64)
	if err != nil || radius <= 0 {
		radius = 5
	}

	rides, err := a.DB.SearchNearbyRides(r.Context(), lat, lng, radius, queryInt(r, "limit", 50))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]rideDTO, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideDTO(ride))
	}
	writeJSON(w, out)
}

// Get fetches a single ride
func (a *RidesAPI) Get(w http.ResponseWriter, r *http.Request) {
	ride, err := a.DB.GetRide(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, "ride not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toRideDTO(ride))
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return def
}
