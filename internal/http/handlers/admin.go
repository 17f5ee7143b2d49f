package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/service"
)

type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type licenseDetail struct {
	License  *models.LicenseView `json:"license"`
	Purchase json.RawMessage     `json:"purchase,omitempty"`
}

type importRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type importResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

func (h *Handlers) AdminSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) AdminSaveSettings(w http.ResponseWriter, r *http.Request) {
	var in models.Settings
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	st, err := h.svc.SaveSettings(r.Context(), session.ActorFrom(r.Context()), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// AdminLicenses — поиск по лицензиям (?q=&limit=&offset=).
func (h *Handlers) AdminLicenses(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	items, total, err := h.svc.AdminListLicenses(r.Context(), session.ActorFrom(r.Context()), models.LicenseFilter{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse[models.LicenseView]{Items: items, Total: total})
}

func (h *Handlers) AdminLicense(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	view, raw, err := h.svc.AdminLicense(r.Context(), session.ActorFrom(r.Context()), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, licenseDetail{License: view, Purchase: raw})
}

// AdminAudit — журнал действий (?type=&category=&limit=&offset=).
func (h *Handlers) AdminAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	q := r.URL.Query()

	items, total, err := h.svc.AuditEntries(r.Context(), session.ActorFrom(r.Context()), models.AuditFilter{
		Type:     models.AuditType(q.Get("type")),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse[models.AuditEntry]{Items: items, Total: total})
}

func (h *Handlers) AdminGates(w http.ResponseWriter, r *http.Request) {
	gates, err := h.svc.AdminGates(r.Context(), session.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, gates)
}

func (h *Handlers) AdminUpdateGate(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in service.GateUpdate
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	g, err := h.svc.UpdateGate(r.Context(), session.ActorFrom(r.Context()), id, in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// AdminImportCandidates — товары автора (по personal token) с отметкой об импорте.
func (h *Handlers) AdminImportCandidates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ImportCandidates(r.Context(), session.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) AdminImport(w http.ResponseWriter, r *http.Request) {
	var in importRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	alerts, err := h.svc.ImportProducts(r.Context(), session.ActorFrom(r.Context()), in.ItemIDs)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Alerts: alerts})
}
