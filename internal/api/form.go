package api

import (
	"net/http"

	"github.com/apexathon/careerdash/internal/profile"
)

func handleFormOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":  profile.Fields,
		"options": profile.Options(),
		"age":     map[string]int{"min": profile.MinAge, "max": profile.MaxAge},
	})
}

func handleGetDraft(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Form.Draft())
	}
}

// handlePatchDraft applies a partial update of draft fields. Unknown fields
// reject the whole patch.
func handlePatchDraft(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]string
		if !decodeBody(w, r, &patch) {
			return
		}
		if err := deps.Form.SetAll(patch); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Form.Draft())
	}
}

func handleSubmit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Form.Submit(deps.Profiles.SetCurrent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok, err := deps.Profiles.Current()
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "no profile submitted")
			return
		}
		if at, ok := deps.Profiles.SubmittedAt(); ok {
			w.Header().Set("Last-Modified", at.UTC().Format(http.TimeFormat))
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleResetDraft(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Form.Reset(); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleClearProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Profiles.ClearCurrent(); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
