package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/dashboard"
	"github.com/apexathon/careerdash/internal/overlay"
)

// OverlayView is the overlay state plus the content shown for its subject.
type OverlayView struct {
	overlay.State
	Title    string            `json:"title,omitempty"`
	Courses  []overlay.Course  `json:"courses,omitempty"`
	Listings []overlay.Listing `json:"listings,omitempty"`
}

type openDetailRequest struct {
	RecommendationID int `json:"recommendationId"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Busy       bool           `json:"busy"`
	Transcript []chat.Message `json:"transcript"`
}

func lookupDashboard(deps Deps, w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	d, err := deps.Dashboards.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return d, true
}

func handleMount(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := deps.Dashboards.Mount()
		writeJSON(w, http.StatusCreated, d.View())
	}
}

func handleGetDashboard(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, d.View())
	}
}

func handleUnmount(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Dashboards.Unmount(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func overlayView(d *dashboard.Dashboard) OverlayView {
	v := OverlayView{State: d.Overlay().State()}
	if v.Subject == nil {
		return v
	}
	rec, ok := d.Find(*v.Subject)
	if !ok {
		return v
	}
	v.Title = rec.Title
	switch v.Kind {
	case overlay.KindCourses:
		v.Courses = overlay.Courses(rec.Title)
	case overlay.KindListings:
		v.Listings = overlay.Listings()
	}
	return v
}

func handleGetOverlay(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, overlayView(d))
	}
}

func handleCloseOverlay(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		d.Overlay().CloseAll()
		writeJSON(w, http.StatusOK, overlayView(d))
	}
}

func handleOpenDetail(deps Deps, kind overlay.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		var req openDetailRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var err error
		if kind == overlay.KindCourses {
			_, err = d.Overlay().OpenCourses(req.RecommendationID)
		} else {
			_, err = d.Overlay().OpenListings(req.RecommendationID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, overlayView(d))
	}
}

func handleOpenChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		d.Overlay().OpenChat()
		writeJSON(w, http.StatusOK, overlayView(d))
	}
}

func handleGetChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Busy: d.Chat().Busy(), Transcript: d.Chat().Transcript()})
	}
}

// handleSendChat waits for the assistant reply before responding.
func handleSendChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookupDashboard(deps, w, r)
		if !ok {
			return
		}
		var req chatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := d.Chat().Send(r.Context(), req.Message); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Busy: d.Chat().Busy(), Transcript: d.Chat().Transcript()})
	}
}
