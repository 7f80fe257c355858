package timezones

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// Option is one JSON result.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type response struct {
	Data []Option `json:"data"`
}

// Handler answers GET and HEAD requests with the zones matching the q
// parameter, limited by the limit parameter. A nil zone list uses Default.
func Handler(zones []string, limits Limits) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		list := zones
		if list == nil {
			loaded, err := Default()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			list = loaded
		}

		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		results := []Option{}
		for _, zone := range Search(list, query.Get("q"), limit, limits) {
			results = append(results, Option{Value: zone, Label: zone})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(response{Data: results})
	})
}
