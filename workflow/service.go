// Package workflow holds the two core operations of the portal: accepting a
// new tournament application and moving an application between review
// statuses.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/identifier"
	"github.com/Ariffin97/portal-mpa-sub001/metrics"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/notify"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
)

// Broadcaster pushes committed changes to live dashboards.
type Broadcaster interface {
	Broadcast(event models.ApplicationEvent)
}

// Deps is everything a Service needs. Store, Allocator and Log are
// required; a nil Notifier, Audit or Broadcaster disables that side effect.
type Deps struct {
	Store       repository.ApplicationStore
	Audit       repository.AuditStore
	Allocator   *identifier.Allocator
	Notifier    notify.Notifier
	Broadcaster Broadcaster
	Policy      Policy
	Now         func() time.Time
	Log         *zap.Logger
}

type Service struct {
	store       repository.ApplicationStore
	audit       repository.AuditStore
	ids         *identifier.Allocator
	notifier    notify.Notifier
	broadcaster Broadcaster
	policy      Policy
	now         func() time.Time
	log         *zap.Logger
	schema      *gojsonschema.Schema
}

func New(d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("workflow: store is required")
	case d.Allocator == nil:
		return nil, errors.New("workflow: allocator is required")
	case d.Log == nil:
		return nil, errors.New("workflow: logger is required")
	}
	schema, err := compileEventSchema()
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:       d.Store,
		audit:       d.Audit,
		ids:         d.Allocator,
		notifier:    d.Notifier,
		broadcaster: d.Broadcaster,
		policy:      d.Policy,
		now:         d.Now,
		log:         d.Log,
		schema:      schema,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// Actor is the authenticated caller of an operation. State is the state a
// state reviewer is assigned to.
type Actor struct {
	UserID         string
	Role           string
	OrganizationID primitive.ObjectID
	State          string
}

func (a Actor) reviewer() bool { return models.IsReviewer(a.Role) }

// stateScope is the event state a state reviewer is limited to, or "" when
// the actor is not limited by state.
func (a Actor) stateScope() string {
	if a.Role != models.RoleState {
		return ""
	}
	return a.State
}

// owns reports whether a may see app. Admins see everything and state
// reviewers see events held in their state.
func (a Actor) owns(app *models.Application) bool {
	if a.reviewer() {
		scope := a.stateScope()
		return scope == "" || app.Event.State == scope
	}
	return !a.OrganizationID.IsZero() && a.OrganizationID == app.OrganizationID
}

type SubmitRequest struct {
	Event models.EventDetails
	Actor Actor
}

// Submit stores a new application in Pending Review under a freshly
// allocated identifier. The identifier is claimed by the insert itself, so
// concurrent submissions can never share one.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Application, error) {
	if err := validateEvent(s.schema, req.Event); err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.Application{
		Status:         models.StatusPendingReview,
		SubmissionDate: now,
		LastUpdated:    now,
		OrganizationID: req.Actor.OrganizationID,
		Event:          req.Event,
	}
	if id, err := primitive.ObjectIDFromHex(req.Actor.UserID); err == nil {
		app.SubmittedBy = id
	}

	_, err := s.ids.Allocate(ctx, func(ctx context.Context, id string) error {
		app.ID = primitive.NilObjectID
		app.ApplicationID = id
		err := s.store.Insert(ctx, app)
		if errors.Is(err, repository.ErrDuplicate) {
			return identifier.ErrCollision
		}
		return err
	})
	if err != nil {
		s.log.Error("submit application", zap.Error(err))
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	s.log.Info("application submitted",
		zap.String("application_id", app.ApplicationID),
		zap.String("organization_id", app.OrganizationID.Hex()),
	)

	s.record(ctx, models.AuditLog{
		ApplicationID:  app.ApplicationID,
		OrganizationID: app.OrganizationID,
		Action:         models.AuditSubmit,
		ToStatus:       app.Status,
	}, req.Actor)
	s.broadcast(models.EventSubmitted, app, "", req.Actor)
	s.notifier.Notify(ctx, app, notify.KindReceived)
	return app, nil
}

type ChangeStatusRequest struct {
	ApplicationID string
	Status        string
	Reason        string
	RequiredInfo  string
	Actor         Actor
}

// ChangeStatus validates the request and applies it with one atomic update.
// On any error the stored record is unchanged. Notification runs after the
// update is durable and its outcome never affects the result.
func (s *Service) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*models.Application, error) {
	app, from, err := s.changeStatus(ctx, req)
	if err != nil {
		metrics.TransitionsRejected.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		s.log.Info("status change refused",
			zap.String("application_id", req.ApplicationID),
			zap.String("requested", req.Status),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(app.Status)).Inc()
	s.log.Info("status changed",
		zap.String("application_id", app.ApplicationID),
		zap.String("status", string(app.Status)),
		zap.String("actor_id", req.Actor.UserID),
	)

	note := ""
	switch app.Status {
	case models.StatusRejected:
		note = app.Remarks
	case models.StatusMoreInfoRequired:
		note = app.RequiredInfo
	}
	s.record(ctx, models.AuditLog{
		ApplicationID:  app.ApplicationID,
		OrganizationID: app.OrganizationID,
		Action:         models.AuditStatusChange,
		FromStatus:     from,
		ToStatus:       app.Status,
		Note:           note,
	}, req.Actor)
	s.broadcast(models.EventStatusChanged, app, from, req.Actor)
	if kind, ok := notify.KindFor(app.Status); ok {
		s.notifier.Notify(ctx, app, kind)
	}
	return app, nil
}

// changeStatus returns the updated record and, when the policy had to read
// it, the status it moved from.
func (s *Service) changeStatus(ctx context.Context, req ChangeStatusRequest) (*models.Application, models.Status, error) {
	if req.ApplicationID == "" {
		return nil, "", apperrors.Validation("applicationId", "application id is required")
	}
	target, ok := models.ParseStatus(req.Status)
	if !ok {
		return nil, "", apperrors.Validation("status", "status must be one of: "+statusList())
	}

	fields := map[string]interface{}{
		models.FieldStatus:      target,
		models.FieldLastUpdated: s.now(),
	}
	switch target {
	case models.StatusRejected:
		reason, err := requireText("reason", req.Reason, s.policy.MinRejectionReason, "a rejection reason is required")
		if err != nil {
			return nil, "", err
		}
		fields[models.FieldRemarks] = reason
	case models.StatusMoreInfoRequired:
		info, err := requireText("requiredInfo", req.RequiredInfo, s.policy.MinRequiredInfo, "a description of the required information is required")
		if err != nil {
			return nil, "", err
		}
		fields[models.FieldRequiredInfo] = info
	}

	if s.policy.Permissive() {
		// Event state never changes after submission, so a visibility
		// check ahead of the update cannot go stale.
		if req.Actor.stateScope() != "" {
			if _, err := s.Get(ctx, req.ApplicationID, req.Actor); err != nil {
				return nil, "", err
			}
		}
		app, err := s.store.UpdateFields(ctx, req.ApplicationID, fields)
		return app, "", err
	}

	current, err := s.Get(ctx, req.ApplicationID, req.Actor)
	if err != nil {
		return nil, "", err
	}
	if !s.policy.Allows(current.Status, target) {
		return nil, "", apperrors.Validation("status",
			"cannot move from "+string(current.Status)+" to "+string(target))
	}
	app, err := s.store.UpdateFieldsIf(ctx, req.ApplicationID, current.Status, fields)
	return app, current.Status, err
}

// requireText checks value ignoring surrounding whitespace and returns it
// unchanged.
func requireText(field, value string, min int, missing string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.Validation(field, missing)
	}
	if n := utf8.RuneCountInString(trimmed); n < min {
		return "", apperrors.Validation(field, field+" is too short")
	}
	return value, nil
}

func statusList() string {
	all := models.AllStatuses()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

type ResubmitRequest struct {
	ApplicationID string
	Reply         string
	Actor         Actor
}

// Resubmit records the organiser's answer to a More Info Required request and
// returns the application to Under Review.
func (s *Service) Resubmit(ctx context.Context, req ResubmitRequest) (*models.Application, error) {
	reply, err := requireText("reply", req.Reply, 0, "a reply is required")
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, req.ApplicationID, req.Actor)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusMoreInfoRequired {
		return nil, apperrors.Conflict("application %s is %s, not awaiting information", current.ApplicationID, current.Status)
	}

	app, err := s.store.UpdateFieldsIf(ctx, current.ApplicationID, models.StatusMoreInfoRequired, map[string]interface{}{
		models.FieldStatus:         models.StatusUnderReview,
		models.FieldApplicantReply: reply,
		models.FieldLastUpdated:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(app.Status)).Inc()
	s.log.Info("application resubmitted", zap.String("application_id", app.ApplicationID))
	s.record(ctx, models.AuditLog{
		ApplicationID:  app.ApplicationID,
		OrganizationID: app.OrganizationID,
		Action:         models.AuditResubmit,
		FromStatus:     models.StatusMoreInfoRequired,
		ToStatus:       app.Status,
		Note:           reply,
	}, req.Actor)
	s.broadcast(models.EventResubmitted, app, models.StatusMoreInfoRequired, req.Actor)
	return app, nil
}

// Get returns one application. Organisers only see their own and state
// reviewers only see their state; anything else is reported as not found.
func (s *Service) Get(ctx context.Context, applicationID string, actor Actor) (*models.Application, error) {
	app, err := s.store.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(app) {
		return nil, apperrors.NotFound("application %s not found", applicationID)
	}
	return app, nil
}

// List pages through applications visible to actor.
func (s *Service) List(ctx context.Context, filter repository.ListFilter, actor Actor) ([]models.Application, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.Validation("status", "status must be one of: "+statusList())
	}
	if !actor.reviewer() {
		org := actor.OrganizationID
		filter.OrganizationID = &org
	}
	if scope := actor.stateScope(); scope != "" {
		filter.State = scope
	}
	return s.store.List(ctx, filter)
}

// Stats counts visible applications per status.
func (s *Service) Stats(ctx context.Context, actor Actor) (map[models.Status]int64, error) {
	var org *primitive.ObjectID
	if !actor.reviewer() {
		id := actor.OrganizationID
		org = &id
	}
	return s.store.CountByStatus(ctx, org, actor.stateScope())
}

// History returns the audit trail of an application, oldest first.
func (s *Service) History(ctx context.Context, applicationID string, actor Actor) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, applicationID, actor); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	return s.audit.ListByApplication(ctx, applicationID)
}

// Delete removes an application. Its identifier is never issued again.
func (s *Service) Delete(ctx context.Context, applicationID string, actor Actor) error {
	app, err := s.store.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, applicationID); err != nil {
		return err
	}
	s.log.Info("application deleted",
		zap.String("application_id", applicationID),
		zap.String("actor_id", actor.UserID),
	)
	s.record(ctx, models.AuditLog{
		ApplicationID:  applicationID,
		OrganizationID: app.OrganizationID,
		Action:         models.AuditDelete,
		FromStatus:     app.Status,
	}, actor)
	s.broadcast(models.EventDeleted, app, app.Status, actor)
	return nil
}

func (s *Service) record(ctx context.Context, entry models.AuditLog, actor Actor) {
	if s.audit == nil {
		return
	}
	entry.ActorID = actor.UserID
	entry.ActorRole = actor.Role
	entry.CreatedAt = s.now()
	if err := s.audit.Record(context.WithoutCancel(ctx), &entry); err != nil {
		s.log.Warn("audit log not written",
			zap.String("application_id", entry.ApplicationID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) broadcast(kind string, app *models.Application, from models.Status, actor Actor) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(models.ApplicationEvent{
		Type:           kind,
		ApplicationID:  app.ApplicationID,
		OrganizationID: app.OrganizationID,
		Status:         app.Status,
		FromStatus:     from,
		ActorID:        actor.UserID,
		Timestamp:      s.now(),
	})
}
