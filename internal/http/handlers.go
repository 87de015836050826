package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/marketplace-price-sync/internal/auditlog"
	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	httpopenapi "github.com/fairyhunter13/marketplace-price-sync/internal/http/openapi"
	"github.com/fairyhunter13/marketplace-price-sync/internal/store"
)

// App wires the HTTP handlers to the service state.
type App struct {
	Cfg     config.Config
	Status  *store.Store
	Tenants []config.Tenant
	started time.Time
}

func NewApp(cfg config.Config, st *store.Store, tenants []config.Tenant) *App {
	return &App{Cfg: cfg, Status: st, Tenants: tenants, started: time.Now()}
}

func (a *App) tenant(userID string) (config.Tenant, bool) {
	for _, t := range a.Tenants {
		if t.UserID == userID {
			return t, true
		}
	}
	return config.Tenant{}, false
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	results := a.Status.All()
	sortResults(results)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"cycles": results})
}

func (a *App) userStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/status/")
	if userID == "" || strings.Contains(userID, "/") {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	if _, ok := a.tenant(userID); !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "unknown tenant")
		return
	}
	results := a.Status.ForUser(userID)
	sortResults(results)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"user_id": userID, "cycles": results})
}

// auditHandler serves GET /audit/{user}/{marketplace}?limit=N, the newest
// audit entries of the tenant's per-marketplace change log.
func (a *App) auditHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/audit/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	userID, marketplace := parts[0], parts[1]
	t, ok := a.tenant(userID)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "unknown tenant")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}
	path := auditlog.DBPath(a.Cfg.DataDir, userID, t.MarketName+"_"+marketplace)
	if _, err := os.Stat(path); err != nil {
		WriteJSONError(w, http.StatusNotFound, "not_found", "no audit log yet")
		return
	}
	st, err := auditlog.Open(path)
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "audit_unavailable", err.Error())
		return
	}
	defer st.Close()
	entries, err := st.Recent(r.Context(), limit)
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "audit_unavailable", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":     userID,
		"marketplace": marketplace,
		"entries":     entries,
	})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	results := a.Status.All()
	var ok, failed, merged, changed int
	for _, res := range results {
		if res.Error != "" {
			failed++
		} else {
			ok++
		}
		if res.Merged {
			merged++
		}
		changed += res.RowsChanged
	}
	m := map[string]any{
		"tenant_count":  len(a.Tenants),
		"cycles_ok":     ok,
		"cycles_failed": failed,
		"cycles_merged": merged,
		"rows_changed":  changed,
		"uptime_sec":    time.Since(a.started).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}

func sortResults(rs []store.CycleResult) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].UserID != rs[j].UserID {
			return rs[i].UserID < rs[j].UserID
		}
		return rs[i].Marketplace < rs[j].Marketplace
	})
}
