package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"net/url"
	"strconv"
	"strings"

	"quiz-arena-service/internal/domain"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// RoomFinder looks up a live room by code.
type RoomFinder interface {
	Room(ctx context.Context, code string) (domain.RoomSnapshot, error)
}

type RoomLister interface {
	ListRooms(ctx context.Context) ([]domain.RoomSnapshot, error)
}

type TopicLister interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
}

type ProgressReader interface {
	GetProgress(ctx context.Context, name string) (domain.Progress, error)
}

// LeaderboardReader is implemented by progress stores that rank players.
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, mode domain.Mode, n int) ([]domain.PlayerResult, error)
}

// RouterOptions lists what the HTTP surface serves. Nil readers leave their
// routes unregistered.
type RouterOptions struct {
	WS       *WSHandler
	Rooms    RoomFinder
	Index    RoomLister
	Topics   TopicLister
	Progress ProgressReader

	// PublicURL is the base of join links; derived from the request when empty.
	PublicURL string
	Profile   bool
	Version   string
	Log       zerolog.Logger
}

func NewRouter(opts RouterOptions) *httprouter.Router {
	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		opts.Log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panic")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.GET("/version", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"version": opts.Version})
	})
	if opts.WS != nil {
		mux.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			opts.WS.ServeWS(w, r)
		})
	}
	if opts.Index != nil {
		mux.GET("/rooms", serveRooms(opts.Index))
	}
	if opts.Rooms != nil {
		mux.GET("/rooms/:code/qr", serveRoomQR(opts.Rooms, opts.PublicURL))
	}
	if opts.Topics != nil {
		mux.GET("/topics", serveTopics(opts.Topics))
	}
	if opts.Progress != nil {
		mux.GET("/progress/:name", serveProgress(opts.Progress))
		if board, ok := opts.Progress.(LeaderboardReader); ok {
			mux.GET("/leaderboard/:mode", serveLeaderboard(board))
		}
	}
	if opts.Profile {
		registerProfileHandlers(mux)
	}
	return mux
}

func serveRooms(index RoomLister) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		rooms, err := index.ListRooms(r.Context())
		if err != nil {
			http.Error(w, "list rooms failed", http.StatusInternalServerError)
			return
		}
		if rooms == nil {
			rooms = []domain.RoomSnapshot{}
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

// serveRoomQR renders a PNG QR code of the room's join link.
func serveRoomQR(rooms RoomFinder, publicURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		snap, err := rooms.Room(r.Context(), ps.ByName("code"))
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "room lookup failed", http.StatusInternalServerError)
			return
		}

		png, err := qrcode.Encode(joinURL(r, publicURL, snap.Code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func joinURL(r *http.Request, publicURL, code string) string {
	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(code)
}

type topicSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

func serveTopics(topics TopicLister) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := topics.ListTopics(r.Context())
		if err != nil {
			http.Error(w, "list topics failed", http.StatusInternalServerError)
			return
		}
		out := make([]topicSummary, 0, len(list))
		for _, t := range list {
			out = append(out, topicSummary{ID: t.ID, Name: t.Name, Description: t.Description, QuestionCount: len(t.Questions)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func serveProgress(progress ProgressReader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		name := ps.ByName("name")
		if domain.ProgressKey(name) == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		p, err := progress.GetProgress(r.Context(), name)
		if err != nil {
			http.Error(w, "progress lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func serveLeaderboard(board LeaderboardReader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mode, err := domain.ParseMode(ps.ByName("mode"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := board.Leaderboard(r.Context(), mode, n)
		if err != nil {
			http.Error(w, "leaderboard lookup failed", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []domain.PlayerResult{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func registerProfileHandlers(mux *httprouter.Router) {
	mux.Handler("GET", "/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler("GET", "/pprof/block", pprof.Handler("block"))
	mux.Handler("GET", "/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler("GET", "/pprof/heap", pprof.Handler("heap"))
	mux.Handler("GET", "/pprof/mutex", pprof.Handler("mutex"))
	mux.HandlerFunc("GET", "/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", "/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", "/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", "/pprof/trace", pprof.Trace)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
