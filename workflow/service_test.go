package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/identifier"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/notify"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type failingSender struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSender) Channel() string { return "email" }

func (f *failingSender) Send(context.Context, notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("smtp: connection refused")
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
	apps  []models.Application
}

func (r *recordingNotifier) Notify(_ context.Context, app *models.Application, kind notify.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.apps = append(r.apps, *app)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.ApplicationEvent
}

func (r *recordingBroadcaster) Broadcast(e models.ApplicationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type fixture struct {
	svc         *Service
	store       *repository.MemoryApplicationStore
	audit       *repository.MemoryAccountStore
	notifier    *recordingNotifier
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	alloc, err := identifier.NewAllocator("MPA")
	require.NoError(t, err)
	f := &fixture{
		store:       repository.NewMemoryApplicationStore(),
		audit:       repository.NewMemoryAccountStore(),
		notifier:    &recordingNotifier{},
		broadcaster: &recordingBroadcaster{},
	}
	clock := &stepClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc, err = New(Deps{
		Store:       f.store,
		Audit:       f.audit,
		Allocator:   alloc,
		Notifier:    f.notifier,
		Broadcaster: f.broadcaster,
		Policy:      policy,
		Now:         clock.Now,
		Log:         zap.NewNop(),
	})
	require.NoError(t, err)
	return f
}

var (
	orgID     = primitive.NewObjectID()
	organiser = Actor{UserID: primitive.NewObjectID().Hex(), Role: models.RoleOrganiser, OrganizationID: orgID}
	reviewer  = Actor{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
)

func validEvent() models.EventDetails {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	return models.EventDetails{
		OrganiserName: "KL Pickleball Club",
		ContactPerson: "Aina",
		ContactEmail:  "aina@club.my",
		EventTitle:    "KL Open 2025",
		Venue:         "Stadium Juara",
		State:         "Kuala Lumpur",
		StartDate:     start,
		EndDate:       start.Add(48 * time.Hour),
		Categories:    []string{"Men's Doubles"},
		DataConsent:   true,
		TermsConsent:  true,
	}
}

func (f *fixture) submit(t *testing.T) *models.Application {
	t.Helper()
	app, err := f.svc.Submit(context.Background(), SubmitRequest{Event: validEvent(), Actor: organiser})
	require.NoError(t, err)
	return app
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Log: zap.NewNop()})
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)

	assert.Regexp(t, regexp.MustCompile(`^MPA[A-Z0-9]{6}$`), app.ApplicationID)
	assert.Equal(t, models.StatusPendingReview, app.Status)
	assert.Equal(t, app.SubmissionDate, app.LastUpdated)
	assert.Equal(t, orgID, app.OrganizationID)

	stored, err := f.store.FindByApplicationID(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, stored.Status)

	assert.Equal(t, []notify.Kind{notify.KindReceived}, f.notifier.kinds)
	require.Len(t, f.broadcaster.events, 1)
	assert.Equal(t, models.EventSubmitted, f.broadcaster.events[0].Type)
}

func TestSubmit_InvalidPayload(t *testing.T) {
	f := newFixture(t, Policy{})
	event := validEvent()
	event.ContactEmail = "not-an-email"
	event.EventTitle = "   "
	event.TermsConsent = false
	event.EndDate = event.StartDate.Add(-time.Hour)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Event: event, Actor: organiser})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var ae *apperrors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "contactEmail")
	assert.Contains(t, ae.Fields, "eventTitle")
	assert.Contains(t, ae.Fields, "termsConsent")
	assert.Contains(t, ae.Fields, "endDate")

	_, total, err := f.store.List(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubmit_RetriesOnCollision(t *testing.T) {
	store := repository.NewMemoryApplicationStore()
	require.NoError(t, store.Insert(context.Background(), &models.Application{ApplicationID: "MPAAAAAAA"}))

	candidates := []string{"MPAAAAAAA", "MPAAAAAAA", "MPABBBBBB"}
	var collisions int
	alloc, err := identifier.NewAllocator("MPA",
		identifier.WithGenerator(func(string) (string, error) {
			id := candidates[0]
			candidates = candidates[1:]
			return id, nil
		}),
		identifier.WithCollisionObserver(func(string) { collisions++ }),
	)
	require.NoError(t, err)

	svc, err := New(Deps{Store: store, Allocator: alloc, Log: zap.NewNop()})
	require.NoError(t, err)

	app, err := svc.Submit(context.Background(), SubmitRequest{Event: validEvent(), Actor: organiser})
	require.NoError(t, err)
	assert.Equal(t, "MPABBBBBB", app.ApplicationID)
	assert.Equal(t, 2, collisions)
}

type brokenStore struct {
	repository.ApplicationStore
	err error
}

func (b brokenStore) Insert(context.Context, *models.Application) error { return b.err }

func (b brokenStore) UpdateFields(context.Context, string, map[string]interface{}) (*models.Application, error) {
	return nil, b.err
}

func TestStorageFailurePropagates(t *testing.T) {
	cause := errors.New("connection reset")
	alloc, err := identifier.NewAllocator("MPA")
	require.NoError(t, err)
	svc, err := New(Deps{
		Store:     brokenStore{err: apperrors.Storage("insert application", cause)},
		Allocator: alloc,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), SubmitRequest{Event: validEvent(), Actor: organiser})
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	_, err = svc.ChangeStatus(context.Background(), ChangeStatusRequest{ApplicationID: "MPAAAAAAA", Status: "Approved"})
	assert.ErrorIs(t, err, cause)
}

func TestSubmit_ManyUniqueIDs(t *testing.T) {
	f := newFixture(t, Policy{})
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		app := f.submit(t)
		assert.True(t, identifier.Valid("MPA", app.ApplicationID))
		_, dup := seen[app.ApplicationID]
		require.False(t, dup, "duplicate id %s", app.ApplicationID)
		seen[app.ApplicationID] = struct{}{}
	}
}

func TestSubmit_Concurrent(t *testing.T) {
	f := newFixture(t, Policy{})
	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app, err := f.svc.Submit(context.Background(), SubmitRequest{Event: validEvent(), Actor: organiser})
			if assert.NoError(t, err) {
				ids <- app.ApplicationID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestChangeStatus_IdempotentReject(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	req := ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Rejected", Reason: "Venue lacks occupancy permit", Actor: reviewer}

	first, err := f.svc.ChangeStatus(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.ChangeStatus(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Remarks, second.Remarks)
	assert.Equal(t, first.RequiredInfo, second.RequiredInfo)
	assert.Equal(t, first.SubmissionDate, second.SubmissionDate)
}

func TestChangeStatus_NotFoundLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	before, _, err := f.store.List(context.Background(), repository.ListFilter{})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{ApplicationID: "MPAZZZZZZ", Status: "Approved", Actor: reviewer})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	after, _, err := f.store.List(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	exists, err := f.store.ExistsByApplicationID(context.Background(), "MPAZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, app.ApplicationID, after[0].ApplicationID)
}

func TestChangeStatus_Validation(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		req    ChangeStatusRequest
	}{
		{"unknown status", Policy{}, ChangeStatusRequest{Status: "Archived"}},
		{"wrong case", Policy{}, ChangeStatusRequest{Status: "approved"}},
		{"reject without reason", Policy{}, ChangeStatusRequest{Status: "Rejected"}},
		{"reject with blank reason", Policy{}, ChangeStatusRequest{Status: "Rejected", Reason: "   "}},
		{"more info without text", Policy{}, ChangeStatusRequest{Status: "More Info Required"}},
		{"more info text on wrong field", Policy{}, ChangeStatusRequest{Status: "More Info Required", Reason: "permit"}},
		{"reason below policy", Policy{MinRejectionReason: 10}, ChangeStatusRequest{Status: "Rejected", Reason: "too late"}},
		{"info below policy", Policy{MinRequiredInfo: 5}, ChangeStatusRequest{Status: "More Info Required", RequiredInfo: "map"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.policy)
			app := f.submit(t)
			tt.req.ApplicationID = app.ApplicationID
			tt.req.Actor = reviewer

			_, err := f.svc.ChangeStatus(context.Background(), tt.req)
			require.ErrorIs(t, err, apperrors.ErrValidation)

			stored, err := f.store.FindByApplicationID(context.Background(), app.ApplicationID)
			require.NoError(t, err)
			assert.Equal(t, app, stored)
		})
	}
}

func TestChangeStatus_PolicyMinimumsAccepted(t *testing.T) {
	f := newFixture(t, Policy{MinRejectionReason: 10, MinRequiredInfo: 5})
	app := f.submit(t)

	got, err := f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		ApplicationID: app.ApplicationID, Status: "More Info Required", RequiredInfo: "  permit  ", Actor: reviewer,
	})
	require.NoError(t, err)
	assert.Equal(t, "  permit  ", got.RequiredInfo)
}

func TestChangeStatus_StoresTextAsGiven(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	ctx := context.Background()
	reason := "  Venue lacks occupancy permit\n"

	got, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Rejected", Reason: reason, Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, reason, got.Remarks)

	stored, err := f.store.FindByApplicationID(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, reason, stored.Remarks)

	_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "More Info Required", RequiredInfo: " Send the venue map ", Actor: reviewer})
	require.NoError(t, err)
	got, err = f.svc.Resubmit(ctx, ResubmitRequest{ApplicationID: app.ApplicationID, Reply: "Map attached ", Actor: organiser})
	require.NoError(t, err)
	assert.Equal(t, " Send the venue map ", got.RequiredInfo)
	assert.Equal(t, "Map attached ", got.ApplicantReply)
}

func TestChangeStatus_FieldIsolation(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "More Info Required", RequiredInfo: "Send the venue map", Actor: reviewer})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Rejected", Reason: "X", Actor: reviewer})
	require.NoError(t, err)

	got, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Approved", Reason: "ignored", Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, "X", got.Remarks)
	assert.Equal(t, "Send the venue map", got.RequiredInfo)
}

func TestChangeStatus_AnyToAnyByDefault(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	ctx := context.Background()

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			_, err := f.store.UpdateFields(ctx, app.ApplicationID, map[string]interface{}{models.FieldStatus: from})
			require.NoError(t, err)
			got, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{
				ApplicationID: app.ApplicationID, Status: string(to), Reason: "reason text", RequiredInfo: "info text", Actor: reviewer,
			})
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, got.Status)
		}
	}
}

func TestChangeStatus_NotifiesOnlyAnnouncedStatuses(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	ctx := context.Background()

	for _, req := range []ChangeStatusRequest{
		{Status: "Under Review"},
		{Status: "More Info Required", RequiredInfo: "Send the venue map"},
		{Status: "Rejected", Reason: "Venue lacks occupancy permit"},
		{Status: "Approved"},
	} {
		req.ApplicationID = app.ApplicationID
		req.Actor = reviewer
		_, err := f.svc.ChangeStatus(ctx, req)
		require.NoError(t, err)
	}

	assert.Equal(t, []notify.Kind{
		notify.KindReceived,
		notify.KindMoreInfoRequired,
		notify.KindRejected,
		notify.KindApproved,
	}, f.notifier.kinds)
	rejected := f.notifier.apps[2]
	assert.Equal(t, "aina@club.my", rejected.Event.ContactEmail)
	assert.Equal(t, "Venue lacks occupancy permit", rejected.Remarks)
}

func TestChangeStatus_NotificationFailureDoesNotRollBack(t *testing.T) {
	composer, err := notify.NewComposer()
	require.NoError(t, err)
	sender := &failingSender{}
	alloc, err := identifier.NewAllocator("MPA")
	require.NoError(t, err)
	store := repository.NewMemoryApplicationStore()
	dispatcher := notify.NewDispatcher(composer, sender, zap.NewNop())
	svc, err := New(Deps{
		Store:     store,
		Allocator: alloc,
		Notifier:  dispatcher,
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)

	app, err := svc.Submit(context.Background(), SubmitRequest{Event: validEvent(), Actor: organiser})
	require.NoError(t, err)

	got, err := svc.ChangeStatus(context.Background(), ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Approved", Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	stored, err := store.FindByApplicationID(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	dispatcher.Wait()
	assert.Equal(t, 2, sender.calls)
}

func TestChangeStatus_StrictTransitions(t *testing.T) {
	f := newFixture(t, Policy{Transitions: ConventionalTransitions()})
	app := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Approved", Actor: reviewer})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Under Review", Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, got.Status)

	last := f.broadcaster.events[len(f.broadcaster.events)-1]
	assert.Equal(t, models.StatusPendingReview, last.FromStatus)

	_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: "MPAZZZZZZ", Status: "Under Review", Actor: reviewer})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	app := f.submit(t)
	assert.Regexp(t, `^MPA[A-Z0-9]{6}$`, app.ApplicationID)
	assert.Equal(t, models.StatusPendingReview, app.Status)

	review, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Under Review", Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, review.Status)
	assert.True(t, review.LastUpdated.After(review.SubmissionDate))

	rejected, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "Rejected", Reason: "Venue lacks occupancy permit", Actor: reviewer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "Venue lacks occupancy permit", rejected.Remarks)

	history, err := f.svc.History(ctx, app.ApplicationID, organiser)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.AuditSubmit, history[0].Action)
	assert.Equal(t, models.StatusRejected, history[2].ToStatus)
	assert.Equal(t, "Venue lacks occupancy permit", history[2].Note)
}

func TestResubmit(t *testing.T) {
	f := newFixture(t, Policy{})
	app := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.Resubmit(ctx, ResubmitRequest{ApplicationID: app.ApplicationID, Reply: "Permit attached", Actor: organiser})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: app.ApplicationID, Status: "More Info Required", RequiredInfo: "Provide venue permit", Actor: reviewer})
	require.NoError(t, err)

	_, err = f.svc.Resubmit(ctx, ResubmitRequest{ApplicationID: app.ApplicationID, Reply: " ", Actor: organiser})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	stranger := Actor{UserID: "x", Role: models.RoleOrganiser, OrganizationID: primitive.NewObjectID()}
	_, err = f.svc.Resubmit(ctx, ResubmitRequest{ApplicationID: app.ApplicationID, Reply: "Permit attached", Actor: stranger})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := f.svc.Resubmit(ctx, ResubmitRequest{ApplicationID: app.ApplicationID, Reply: "Permit attached", Actor: organiser})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, got.Status)
	assert.Equal(t, "Permit attached", got.ApplicantReply)
	assert.Equal(t, "Provide venue permit", got.RequiredInfo)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	mine := f.submit(t)

	other := Actor{UserID: primitive.NewObjectID().Hex(), Role: models.RoleOrganiser, OrganizationID: primitive.NewObjectID()}
	theirs, err := f.svc.Submit(ctx, SubmitRequest{Event: validEvent(), Actor: other})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, theirs.ApplicationID, organiser)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.Get(ctx, theirs.ApplicationID, reviewer)
	assert.NoError(t, err)

	list, total, err := f.svc.List(ctx, repository.ListFilter{}, organiser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ApplicationID, list[0].ApplicationID)

	_, total, err = f.svc.List(ctx, repository.ListFilter{}, reviewer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, _, err = f.svc.List(ctx, repository.ListFilter{Status: "Lost"}, reviewer)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	stats, err := f.svc.Stats(ctx, organiser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats[models.StatusPendingReview])
	stats, err = f.svc.Stats(ctx, reviewer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats[models.StatusPendingReview])
}

func TestStateReviewerScope(t *testing.T) {
	ctx := context.Background()
	stateReviewer := Actor{UserID: primitive.NewObjectID().Hex(), Role: models.RoleState, State: "Perak"}

	for _, policy := range []Policy{{}, {Transitions: ConventionalTransitions()}} {
		f := newFixture(t, policy)
		outside := f.submit(t)
		ev := validEvent()
		ev.State = "Perak"
		inside, err := f.svc.Submit(ctx, SubmitRequest{Event: ev, Actor: organiser})
		require.NoError(t, err)

		_, err = f.svc.Get(ctx, outside.ApplicationID, stateReviewer)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = f.svc.Get(ctx, inside.ApplicationID, stateReviewer)
		assert.NoError(t, err)

		list, total, err := f.svc.List(ctx, repository.ListFilter{State: "Kuala Lumpur"}, stateReviewer)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, inside.ApplicationID, list[0].ApplicationID)

		stats, err := f.svc.Stats(ctx, stateReviewer)
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats[models.StatusPendingReview])

		_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: outside.ApplicationID, Status: "Under Review", Actor: stateReviewer})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		stored, err := f.store.FindByApplicationID(ctx, outside.ApplicationID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingReview, stored.Status)

		got, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{ApplicationID: inside.ApplicationID, Status: "Under Review", Actor: stateReviewer})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, got.Status)

		_, total, err = f.svc.List(ctx, repository.ListFilter{}, Actor{Role: models.RoleState})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total, "state reviewer without a state is not limited")
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	app := f.submit(t)

	require.NoError(t, f.svc.Delete(ctx, app.ApplicationID, reviewer))
	_, err := f.svc.Get(ctx, app.ApplicationID, reviewer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, app.ApplicationID, reviewer), apperrors.ErrNotFound)

	logs, err := f.audit.ListByApplication(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditDelete, logs[len(logs)-1].Action)
}

func TestPolicyAllows(t *testing.T) {
	assert.True(t, Policy{}.Allows(models.StatusApproved, models.StatusPendingReview))

	strict := Policy{Transitions: ConventionalTransitions()}
	assert.True(t, strict.Allows(models.StatusMoreInfoRequired, models.StatusUnderReview))
	assert.True(t, strict.Allows(models.StatusRejected, models.StatusRejected))
	assert.False(t, strict.Allows(models.StatusApproved, models.StatusRejected))
	for _, st := range models.AllStatuses() {
		assert.True(t, strict.Allows(st, st), fmt.Sprintf("%s self transition", st))
	}
}
