// Package videos implements the library endpoints: list, save (upsert), and
// delete. Hotcue sets cross this boundary in the wire format; legacy
// bare-number entries are normalized on the way in and out, and only the
// structured form is ever written back.
package videos

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cuetube/cuetube/internal/auth"
	"github.com/cuetube/cuetube/internal/database"
	"github.com/cuetube/cuetube/internal/hotcue"
	"github.com/cuetube/cuetube/internal/httputil"
	"github.com/cuetube/cuetube/internal/validate"
)

type Handler struct {
	db database.DBTX
}

func NewHandler(db database.DBTX) *Handler {
	return &Handler{db: db}
}

type videoResponse struct {
	VideoID    string     `json:"videoId"`
	Title      string     `json:"title"`
	YouTubeURL string     `json:"youtubeUrl"`
	Hotcues    hotcue.Set `json:"hotcues"`
}

type saveRequest struct {
	YouTubeURL string          `json:"youtubeUrl"`
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Hotcues    json.RawMessage `json:"hotcues"`
	Username   string          `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := h.db.Query(r.Context(),
		"SELECT video_id, title, youtube_url, hotcues FROM videos WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		slog.Error("videos: list query failed", "user_id", userID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load videos")
		return
	}
	defer rows.Close()

	videos := []videoResponse{}
	for rows.Next() {
		var v videoResponse
		var rawCues []byte
		if err := rows.Scan(&v.VideoID, &v.Title, &v.YouTubeURL, &rawCues); err != nil {
			slog.Error("videos: list scan failed", "user_id", userID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load videos")
			return
		}
		v.Hotcues = hotcue.Normalize(rawCues)
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("videos: list rows failed", "user_id", userID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, videos)
}

// Save upserts one video's hotcue set, keyed by (owner, videoId).
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []string
	if req.YouTubeURL == "" {
		missing = append(missing, "youtubeUrl")
	}
	if req.VideoID == "" {
		missing = append(missing, "videoId")
	}
	if len(missing) > 0 {
		httputil.WriteValidationError(w, "Invalid data", missing)
		return
	}

	if msg := validate.YouTubeURL(req.YouTubeURL); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.VideoID(req.VideoID); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.Title(req.Title); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	cues := hotcue.Normalize(req.Hotcues)
	for key, cue := range cues {
		if msg := validate.Label(cue.Label); msg != "" {
			slog.Warn("videos: dropping cue with oversized label", "user_id", userID, "key", key)
			delete(cues, key)
		}
	}
	storedCues, err := json.Marshal(cues)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to encode hotcues")
		return
	}

	_, err = h.db.Exec(r.Context(),
		`INSERT INTO videos (user_id, video_id, title, youtube_url, hotcues)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, video_id) DO UPDATE
		 SET title = EXCLUDED.title, youtube_url = EXCLUDED.youtube_url,
		     hotcues = EXCLUDED.hotcues, updated_at = now()`,
		userID, req.VideoID, req.Title, req.YouTubeURL, storedCues,
	)
	if err != nil {
		slog.Error("videos: save failed", "user_id", userID, "video_id", req.VideoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save video")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Video saved"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "videoId")

	tag, err := h.db.Exec(r.Context(),
		"DELETE FROM videos WHERE user_id = $1 AND video_id = $2",
		userID, videoID,
	)
	if err != nil {
		slog.Error("videos: delete failed", "user_id", userID, "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete video")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Video deleted"})
}
