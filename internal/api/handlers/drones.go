package handlers

import (
	"net/http"

	"drone-delivery-service/internal/api/dto"
	"drone-delivery-service/internal/sim"
)

// DroneHandler exposes read-only drone state endpoints.
type DroneHandler struct {
	Scheduler *sim.Scheduler
}

func (h *DroneHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	drones := h.Scheduler.ListDrones()

	res := dto.ListDronesResponse{
		Drones: make([]dto.DroneResponse, 0, len(drones)),
	}
	for _, d := range drones {
		dr := dto.DroneResponse{
			DroneID:   d.DroneID,
			Position:  dto.CoordinateDTO{Lat: d.Position.Lat, Lng: d.Position.Lng},
			Altitude:  d.Altitude,
			Phase:     string(d.Phase),
			PackageID: d.PackageID,
			Cursor:    d.Cursor,
		}
		if d.Route != nil {
			dr.Route = make([]dto.CoordinateDTO, 0, len(d.Route.Waypoints))
			for _, w := range d.Route.Waypoints {
				dr.Route = append(dr.Route, dto.CoordinateDTO{Lat: w.Lat, Lng: w.Lng})
			}
		}
		res.Drones = append(res.Drones, dr)
	}

	writeJSON(w, r, http.StatusOK, res)
}
