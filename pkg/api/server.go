package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/log"
	"github.com/hydranet/hydranet/pkg/query"
	"github.com/hydranet/hydranet/pkg/scenario"
	"github.com/hydranet/hydranet/pkg/storage"
	"github.com/hydranet/hydranet/pkg/types"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxAppName
)

// Server exposes the scenario engine over HTTP. The caller identity
// arrives in the X-User-Id header; X-App-Name optionally names the
// client application for data provenance.
type Server struct {
	engine  *scenario.Engine
	queries *query.Service
	data    *dataset.Store
	store   storage.Store
	logger  zerolog.Logger
	srv     *http.Server
}

func NewServer(addr string, engine *scenario.Engine, queries *query.Service, data *dataset.Store, store storage.Store) *Server {
	s := &Server{
		engine:  engine,
		queries: queries,
		data:    data,
		store:   store,
		logger:  log.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.identity)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/networks/{networkID}", func(r chi.Router) {
			r.Post("/scenarios", s.addScenario)
		})

		r.Route("/scenarios/{scenarioID}", func(r chi.Router) {
			r.Get("/", s.getScenario)
			r.Put("/", s.updateScenario)
			r.Delete("/", s.purgeScenario)
			r.Put("/deactivate", s.deactivateScenario)
			r.Put("/activate", s.activateScenario)
			r.Post("/clone", s.cloneScenario)
			r.Put("/lock", s.lockScenario)
			r.Put("/unlock", s.unlockScenario)
			r.Get("/compare/{otherID}", s.compareScenarios)

			r.Get("/data", s.getScenarioData)
			r.Put("/resourcedata", s.updateResourceData)
			r.Delete("/resourcedata/{resourceAttrID}", s.deleteResourceData)
			r.Post("/resourceattrs/{resourceAttrID}/data", s.addDataToAttribute)
			r.Put("/resourceattrs/{resourceAttrID}/dataset/{datasetID}", s.setResourceScenarioDataset)
			r.Get("/resourcescenarios", s.getResourceScenarios)
			r.Get("/resourcescenarios/{resourceAttrID}", s.getResourceScenario)
			r.Post("/copyfrom/{sourceID}", s.copyDataFromScenario)

			r.Get("/groupitems", s.getResourceGroupItems)
			r.Post("/groupitems", s.addResourceGroupItems)
			r.Delete("/groupitems", s.deleteResourceGroupItems)
			r.Delete("/groups/{groupID}/items", s.emptyGroup)
		})

		r.Put("/resourcedata/bulk", s.bulkUpdateResourceData)
		r.Post("/mappings", s.createAttributeMapping)
		r.Put("/mappings/apply", s.updateValueFromMapping)

		r.Post("/users", s.createUser)
		r.Get("/users/{userID}", s.getUser)

		r.Post("/datasets/bulk", s.bulkInsertDatasets)
		r.Route("/datasets/{datasetID}", func(r chi.Router) {
			r.Get("/scenarios", s.getDatasetScenarios)
			r.Put("/owners/{userID}", s.setDatasetOwner)
			r.Delete("/owners/{userID}", s.unsetDatasetOwner)
		})

		r.Post("/collections", s.createCollection)
		r.Route("/collections/{collectionID}", func(r chi.Router) {
			r.Get("/", s.getCollection)
			r.Put("/datasets/{datasetID}", s.addCollectionItem)
			r.Delete("/datasets/{datasetID}", s.removeCollectionItem)
		})

		r.Post("/resources/{refKey}/{refID}/attributes", s.addResourceAttribute)
		r.Get("/resources/{refKey}/{refID}/data", s.getResourceData)
		r.Get("/resources/{refKey}/{refID}/attributedata", s.getResourceAttributeData)
		r.Get("/resources/{refKey}/{refID}/attributedatasets", s.getResourceAttributeDatasets)
		r.Get("/attributes/{attrID}/datasets", s.getAttributeDatasets)
		r.Post("/data/scenarios", s.getScenariosData)
		r.Get("/data/nodes", s.getNodeAttributeData)
	})

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving requests. It blocks until the listener fails or
// the server is stopped.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("api server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// identity extracts the caller's user id and app name. Requests without
// a parseable X-User-Id are rejected.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusUnauthorized, "missing or invalid X-User-Id header")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxAppName, r.Header.Get("X-App-Name"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserID).(int64)
	return id
}

func appName(r *http.Request) string {
	name, _ := r.Context().Value(ctxAppName).(string)
	return name
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, errdefs.ErrInvalidInput)
	}
	return id, nil
}

func queryIDs(r *http.Request, name string) ([]int64, error) {
	var ids []int64
	for _, raw := range r.URL.Query()[name] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", name, raw, errdefs.ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errdefs.IsNotFound(err):
		status = http.StatusNotFound
	case errdefs.IsPermission(err):
		status = http.StatusForbidden
	case errdefs.IsConflict(err):
		status = http.StatusConflict
	case errdefs.IsLocked(err):
		status = http.StatusLocked
	case errdefs.IsCrossNetwork(err), errdefs.IsInvalidDataType(err), errdefs.IsInvalidInput(err):
		status = http.StatusBadRequest
	default:
		s.logger.Error().Err(err).Msg("internal error")
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", errdefs.ErrInvalidInput)
	}
	return nil
}

// datasetInput is the wire form of a dataset value.
type datasetInput struct {
	Type      types.DataType    `json:"type"`
	Name      string            `json:"name"`
	Units     string            `json:"units"`
	Dimension string            `json:"dimension"`
	Value     interface{}       `json:"value"`
	Metadata  map[string]string `json:"metadata"`
	Hidden    types.YesNo       `json:"hidden"`
	StartTime string            `json:"start_time"`
	Frequency string            `json:"frequency"`
}

func (in *datasetInput) toInput() *dataset.Input {
	return &dataset.Input{
		Type:      in.Type,
		Name:      in.Name,
		Units:     in.Units,
		Dimension: in.Dimension,
		Value:     normalizeValue(in.Type, in.Value),
		Metadata:  in.Metadata,
		Hidden:    in.Hidden,
		StartTime: in.StartTime,
		Frequency: in.Frequency,
	}
}

// normalizeValue re-marshals structured JSON values so the encoder sees
// a canonical payload, and converts timeseries row lists to sample form.
func normalizeValue(dtype types.DataType, v interface{}) interface{} {
	switch dtype {
	case types.DataTypeArray, types.DataTypeTimeseries:
		switch v.(type) {
		case string, []byte, nil:
			return v
		}
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return json.RawMessage(data)
	}
	return v
}

type resourceScenarioInput struct {
	ResourceAttrID int64         `json:"resource_attr_id"`
	Value          *datasetInput `json:"value"`
}

func toRSInputs(items []*resourceScenarioInput, source string) []*scenario.ResourceScenarioInput {
	out := make([]*scenario.ResourceScenarioInput, 0, len(items))
	for _, item := range items {
		in := &scenario.ResourceScenarioInput{
			ResourceAttrID: item.ResourceAttrID,
			Source:         source,
		}
		if item.Value != nil {
			in.Value = item.Value.toInput()
		}
		out = append(out, in)
	}
	return out
}

type groupItemInput struct {
	GroupID  int64        `json:"group_id"`
	RefKey   types.RefKey `json:"ref_key"`
	MemberID int64        `json:"member_id"`
}

func toGroupInputs(items []*groupItemInput) []*scenario.GroupItemInput {
	out := make([]*scenario.GroupItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, &scenario.GroupItemInput{
			GroupID:  item.GroupID,
			RefKey:   item.RefKey,
			MemberID: item.MemberID,
		})
	}
	return out
}

type scenarioSpec struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description"`
	StartTime         string                   `json:"start_time"`
	EndTime           string                   `json:"end_time"`
	TimeStep          string                   `json:"time_step"`
	ResourceScenarios []*resourceScenarioInput `json:"resourcescenarios"`
	GroupItems        []*groupItemInput        `json:"resourcegroupitems"`
}

func (sp *scenarioSpec) toSpec(source string) *scenario.Spec {
	return &scenario.Spec{
		Name:              sp.Name,
		Description:       sp.Description,
		StartTime:         sp.StartTime,
		EndTime:           sp.EndTime,
		TimeStep:          sp.TimeStep,
		ResourceScenarios: toRSInputs(sp.ResourceScenarios, source),
		GroupItems:        toGroupInputs(sp.GroupItems),
	}
}
