package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"drone-delivery-service/internal/api/dto"
	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/sim"
)

// PackageHandler exposes package creation and retrieval endpoints backed
// by scheduler snapshots.
type PackageHandler struct {
	Scheduler *sim.Scheduler
}

func (h *PackageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *PackageHandler) list(w http.ResponseWriter, r *http.Request) {
	pkgs := h.Scheduler.ListPackages()

	res := dto.ListPackagesResponse{
		Packages: make([]dto.PackageResponse, 0, len(pkgs)),
	}
	for _, p := range pkgs {
		res.Packages = append(res.Packages, packageResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *PackageHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePackageRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if (req.Pickup == nil) != (req.Dropoff == nil) {
		writeError(w, r, http.StatusBadRequest, "pickup and dropoff must be provided together")
		return
	}

	var (
		pkg domain.Package
		err error
	)
	if req.Pickup == nil {
		pkg, err = h.Scheduler.CreateRandomPackage()
	} else {
		pkg, err = h.Scheduler.CreatePackage(
			domain.Coordinate{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
			domain.Coordinate{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng},
		)
	}
	if err != nil {
		if errors.Is(err, sim.ErrOutOfBounds) {
			writeError(w, r, http.StatusBadRequest, "coordinates outside operating area")
			return
		}
		log.Printf("create package failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, packageResponse(pkg))
}

func packageResponse(p domain.Package) dto.PackageResponse {
	return dto.PackageResponse{
		PackageID:   p.PackageID,
		Pickup:      dto.CoordinateDTO{Lat: p.Pickup.Lat, Lng: p.Pickup.Lng},
		Dropoff:     dto.CoordinateDTO{Lat: p.Dropoff.Lat, Lng: p.Dropoff.Lng},
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		AssignedAt:  p.AssignedAt,
		DeliveredAt: p.DeliveredAt,
		RouteCost:   p.RouteCost,
	}
}
