package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes caps request bodies on the POST endpoints.
const maxBodyBytes = 1 << 20

// NewUserRequest is the payload for POST /api/exercise/new-user.
type NewUserRequest struct {
	Username string `json:"username"`
}

func (r *NewUserRequest) bindForm(form url.Values) {
	r.Username = form.Get("username")
}

// AddExerciseRequest is the payload for POST /api/exercise/add.
type AddExerciseRequest struct {
	UserID      string     `json:"userId"`
	Description string     `json:"description"`
	Duration    flexString `json:"duration"`
	Date        string     `json:"date"`
}

func (r *AddExerciseRequest) bindForm(form url.Values) {
	r.UserID = form.Get("userId")
	r.Description = form.Get("description")
	r.Duration = flexString(form.Get("duration"))
	r.Date = form.Get("date")
}

// NewUserResponse describes a registered user.
type NewUserResponse struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// ExerciseResponse mirrors an appended exercise record.
type ExerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

// LogEntry is one record of a log response.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse packages a filtered exercise log.
type LogResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type formBinder interface {
	bindForm(url.Values)
}

// decodeRequest reads a JSON body, or a URL-encoded form for any other content type.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst formBinder) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	dst.bindForm(r.PostForm)
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
