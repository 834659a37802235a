package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/middleware"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/workflow"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type Deps struct {
	Workflow      *workflow.Service
	Users         repository.UserStore
	Organizations repository.OrganizationStore
	JWTSecret     []byte
	JWTExpiration time.Duration
	// Checks are run by the health endpoint, keyed by component name.
	Checks  map[string]Pinger
	Version string
	Log     *zap.Logger
}

// Handler serves the portal's HTTP API.
type Handler struct {
	workflow  *workflow.Service
	users     repository.UserStore
	orgs      repository.OrganizationStore
	jwtSecret []byte
	jwtTTL    time.Duration
	checks    map[string]Pinger
	version   string
	started   time.Time
	log       *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		workflow:  d.Workflow,
		users:     d.Users,
		orgs:      d.Organizations,
		jwtSecret: d.JWTSecret,
		jwtTTL:    d.JWTExpiration,
		checks:    d.Checks,
		version:   d.Version,
		started:   time.Now(),
		log:       d.Log,
	}
}

func actorFrom(id *middleware.Identity) workflow.Actor {
	return workflow.Actor{
		UserID:         id.UserID.Hex(),
		Role:           id.Role,
		OrganizationID: id.OrganizationID,
		State:          id.State,
	}
}
