package encounters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"holonet.gg/v1/encounter-builder/src/object"
	"holonet.gg/v1/encounter-builder/src/request"
)

var (
	ErrNoMobs     = errors.New("an encounter needs at least one starship")
	ErrInvalidMob = errors.New("starship ids start at 1")
)

// API talks to the encounters backend.
type API struct {
	session        *request.Session
	origin         string
	starshipsPath  string
	encountersPath string
	logger         *zap.Logger
}

type APIConfig struct {
	Origin         string
	StarshipsPath  string
	EncountersPath string
	Logger         *zap.Logger
}

func NewAPI(session *request.Session, cfg APIConfig) *API {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StarshipsPath == "" {
		cfg.StarshipsPath = "/encounters/api/starships"
	}
	if cfg.EncountersPath == "" {
		cfg.EncountersPath = "/encounters/api/encounters/"
	}
	return &API{
		session:        session,
		origin:         strings.TrimSuffix(cfg.Origin, "/"),
		starshipsPath:  cfg.StarshipsPath,
		encountersPath: cfg.EncountersPath,
		logger:         cfg.Logger,
	}
}

// SearchStarships lists starships whose name, model or class matches term.
// An empty term lists them all.
func (a *API) SearchStarships(ctx context.Context, term string) ([]object.Mapping, error) {
	params := object.Mapping{}
	if term != "" {
		params["q"] = term
	}
	resp, err := a.session.Get(ctx, a.starshipsPath, params).Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("[starships]: %w", err)
	}
	return resp.Results(), nil
}

func (a *API) ListEncounters(ctx context.Context) ([]object.Mapping, error) {
	resp, err := a.session.Get(ctx, a.encountersPath, nil).Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("[encounters]: %w", err)
	}
	return resp.Results(), nil
}

// CreateEncounter validates e the way the backend does and posts it.
func (a *API) CreateEncounter(ctx context.Context, e Encounter) (object.Mapping, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data := object.Mapping{
		"name":  e.Name,
		"notes": e.Notes,
		"mobs":  e.Mobs,
	}
	resp, err := a.session.Post(ctx, a.encountersPath, data).Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("[encounters]: %w", err)
	}
	created := resp.Mapping()
	if created == nil {
		created = object.Mapping{}
	}
	a.logger.Info("encounter created", zap.String("name", e.Name), zap.Ints("mobs", e.Mobs))
	return created, nil
}

// DetailURL points at a created encounter, or at the collection when the
// backend did not return an id.
func (a *API) DetailURL(created object.Mapping) string {
	collection := a.origin + a.encountersPath
	id, ok := created["id"]
	if !ok || id == nil {
		return collection
	}
	if !strings.HasSuffix(collection, "/") {
		collection += "/"
	}
	return collection + formatID(id) + "/"
}

func (e Encounter) Validate() error {
	if len(e.Mobs) == 0 {
		return ErrNoMobs
	}
	for _, id := range e.Mobs {
		if id < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidMob, id)
		}
	}
	return nil
}

func formatID(id any) string {
	if f, ok := id.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(id)
}
