package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/aretw0/mischief/pkg/core"
)

type principalResponse struct {
	Name string `json:"name"`
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noteResponse struct {
	NoteID     string   `json:"note_id"`
	Title      string   `json:"title"`
	Owner      string   `json:"owner"`
	CreatedAt  string   `json:"created_at"`
	SharedWith []string `json:"shared_with"`
}

type noteContentResponse struct {
	NoteID    string `json:"note_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
}

type shareNoteRequest struct {
	NoteID     string `json:"note_id"`
	WizardName string `json:"wizard_name"`
}

type accessRequestRequest struct {
	WizardName string `json:"wizard_name"`
}

type accessRequestResponse struct {
	RequestID  string `json:"request_id"`
	FromWizard string `json:"from_wizard"`
	ToWizard   string `json:"to_wizard"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type approveRequestRequest struct {
	RequestID string `json:"request_id"`
}

type createPrincipalRequest struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toNoteResponse(v core.NoteView) noteResponse {
	shared := v.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return noteResponse{
		NoteID:     v.ID,
		Title:      v.Title,
		Owner:      v.Owner,
		CreatedAt:  timestamp(v.CreatedAt),
		SharedWith: shared,
	}
}

func toNoteResponses(views []core.NoteView) []noteResponse {
	out := make([]noteResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toNoteResponse(v))
	}
	return out
}

func toAccessRequestResponse(r core.AccessRequest) accessRequestResponse {
	return accessRequestResponse{
		RequestID:  r.ID,
		FromWizard: r.From,
		ToWizard:   r.To,
		Status:     string(r.Status),
		CreatedAt:  timestamp(r.CreatedAt),
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "operational",
		"message": "Mischief Managed API is running",
	})
}

func (a *API) handleListPrincipals(w http.ResponseWriter, r *http.Request, principal string) {
	names, err := a.svc.ListPrincipals(r.Context())
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	out := make([]principalResponse, 0, len(names))
	for _, n := range names {
		out = append(out, principalResponse{Name: n})
	}
	respondJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateNote(w http.ResponseWriter, r *http.Request, principal string) {
	var req createNoteRequest
	if err := decode(r, w, &req); err != nil {
		a.respondErr(w, r, err)
		return
	}
	note, err := a.svc.CreateNote(r.Context(), principal, req.Title, req.Content)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNoteResponse(note))
}

func (a *API) handleListNotes(w http.ResponseWriter, r *http.Request, principal string) {
	views, err := a.svc.ListNotes(r.Context(), principal)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNoteResponses(views))
}

func (a *API) handleReadNote(w http.ResponseWriter, r *http.Request, principal string) {
	note, err := a.svc.ReadNote(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, noteContentResponse{
		NoteID:    note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Owner:     note.Owner,
		CreatedAt: timestamp(note.CreatedAt),
	})
}

func (a *API) handleDeleteNote(w http.ResponseWriter, r *http.Request, principal string) {
	if err := a.svc.DeleteNote(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Note deleted")
}

func (a *API) handleShareNote(w http.ResponseWriter, r *http.Request, principal string) {
	var req shareNoteRequest
	if err := decode(r, w, &req); err != nil {
		a.respondErr(w, r, err)
		return
	}
	if err := a.svc.ShareNote(r.Context(), principal, req.NoteID, req.WizardName); err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Note shared with %s", req.WizardName))
}

func (a *API) handleRequestAccess(w http.ResponseWriter, r *http.Request, principal string) {
	var req accessRequestRequest
	if err := decode(r, w, &req); err != nil {
		a.respondErr(w, r, err)
		return
	}
	created, err := a.svc.RequestAccess(r.Context(), principal, req.WizardName)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message":    "Access request sent",
		"request_id": created.ID,
	})
}

func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request, principal string) {
	reqs, err := a.svc.ListRequests(r.Context(), principal)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	out := make([]accessRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toAccessRequestResponse(req))
	}
	respondJSON(w, http.StatusOK, out)
}

func (a *API) handleApproveRequest(w http.ResponseWriter, r *http.Request, principal string) {
	var req approveRequestRequest
	if err := decode(r, w, &req); err != nil {
		a.respondErr(w, r, err)
		return
	}
	if _, err := a.svc.ApproveRequest(r.Context(), principal, req.RequestID); err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Access granted")
}

func (a *API) handleAdminListNotes(w http.ResponseWriter, r *http.Request, principal string) {
	views, err := a.svc.AdminListNotes(r.Context(), principal)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNoteResponses(views))
}

func (a *API) handleAdminDeleteNote(w http.ResponseWriter, r *http.Request, principal string) {
	if err := a.svc.AdminDeleteNote(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Note deleted by admin")
}

func (a *API) handleAdminClearShares(w http.ResponseWriter, r *http.Request, principal string) {
	if err := a.svc.AdminClearShares(r.Context(), principal); err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "All shares removed")
}

func (a *API) handleAdminCreatePrincipal(w http.ResponseWriter, r *http.Request, principal string) {
	var req createPrincipalRequest
	if err := decode(r, w, &req); err != nil {
		a.respondErr(w, r, err)
		return
	}
	name, err := a.svc.AdminCreatePrincipal(r.Context(), principal, req.Name, req.APIKey)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Wizard %s created", name))
}
