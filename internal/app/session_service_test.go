package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellnesshub/internal/model"
)

const (
	alice = "user-alice"
	bob   = "user-bob"

	validFileURL = "https://cdn.example.com/sessions/breathing.json"
)

func newTestSessionService(store SessionStore, cache FeedCache, events SessionEventPublisher) *SessionService {
	svc := NewSessionService(store, cache, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = steppingClock()
	return svc
}

func strPtr(s string) *string { return &s }

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, field)
}

func TestEmptyTitleIsRejectedEverywhere(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	svc := newTestSessionService(store, nil, nil)

	existing, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "Morning yoga"})
	require.NoError(t, err)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: title})
		requireValidationField(t, err, "title")

		_, err = svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: existing.ID, Title: strPtr(title)})
		requireValidationField(t, err, "title")

		_, err = svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: title})
		requireValidationField(t, err, "title")

		_, err = svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: title, JSONFileURL: validFileURL})
		requireValidationField(t, err, "title")
	}

	assert.Equal(t, 1, store.count())
	got, err := svc.Get(ctx, alice, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning yoga", got.Title)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	created, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "  Body scan  ", Content: "Lie down."})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Body scan", created.Title)
	assert.Equal(t, model.SessionStatusDraft, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, []string{}, created.Tags)

	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Content, got.Content)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, alice, got.UserID)
}

func TestCreateStatusRules(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	draft, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "t", Status: model.SessionStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDraft, draft.Status)

	_, err = svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "t", Status: "archived"})
	requireValidationField(t, err, "status")

	_, err = svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "t", Status: model.SessionStatusPublished})
	requireValidationField(t, err, "json_file_url")
}

func TestUpdateSingleFieldLeavesOthers(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	created, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "Breathing", Content: "4-7-8"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: created.ID, Content: strPtr("box breathing")})
	require.NoError(t, err)
	assert.Equal(t, "Breathing", updated.Title)
	assert.Equal(t, "box breathing", updated.Content)
	assert.Equal(t, model.SessionStatusDraft, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breathing", got.Title)
	assert.Equal(t, "box breathing", got.Content)
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	draft, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "No file yet"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: draft.ID, Status: strPtr(model.SessionStatusPublished)})
	requireValidationField(t, err, "json_file_url")

	_, err = svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: draft.ID, Status: strPtr("deleted")})
	requireValidationField(t, err, "status")

	published, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "Ready", JSONFileURL: validFileURL})
	require.NoError(t, err)

	unpublished, err := svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: published.ID, Status: strPtr(model.SessionStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDraft, unpublished.Status)

	republished, err := svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: published.ID, Status: strPtr(model.SessionStatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusPublished, republished.Status)
}

func TestOtherOwnerSeesNotFound(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	svc := newTestSessionService(store, nil, nil)

	owned, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "Private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, owned.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Update(ctx, UpdateSessionInput{UserID: bob, SessionID: owned.ID, Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = svc.Delete(ctx, bob, owned.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SaveDraft(ctx, SaveSessionInput{UserID: bob, SessionID: owned.ID, Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Publish(ctx, SaveSessionInput{UserID: bob, SessionID: owned.ID, Title: "Hijacked", JSONFileURL: validFileURL})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := svc.Get(ctx, alice, owned.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
	assert.Equal(t, 1, store.count())

	_, err = svc.Get(ctx, alice, "does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteTwiceReportsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	created, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "Stretch"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice, created.ID), ErrSessionNotFound)

	_, err = svc.Get(ctx, alice, created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveDraftNormalizesTags(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	fromText, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", Tags: TagText("a, b ,, c")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fromText.Tags)

	fromList, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", Tags: TagList("yoga", " ", " calm ", "yoga")})
	require.NoError(t, err)
	assert.Equal(t, []string{"yoga", "calm", "yoga"}, fromList.Tags)

	none, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, none.Tags)

	_, err = svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", Tags: &TagsInput{malformed: true}})
	requireValidationField(t, err, "tags")
}

func TestSaveDraftValidatesOptionalURL(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	_, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", JSONFileURL: "not a url"})
	requireValidationField(t, err, "json_file_url")

	blank, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", JSONFileURL: "   "})
	require.NoError(t, err)
	assert.Empty(t, blank.JSONFileURL)

	withURL, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "t", JSONFileURL: validFileURL})
	require.NoError(t, err)
	assert.Equal(t, validFileURL, withURL.JSONFileURL)
	assert.Equal(t, model.SessionStatusDraft, withURL.Status)
}

func TestSaveDraftUpsertsByID(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	svc := newTestSessionService(store, nil, nil)

	first, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "Draft one"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.count())

	second, err := svc.SaveDraft(ctx, SaveSessionInput{
		UserID:    alice,
		SessionID: first.ID,
		Title:     "Draft one, revised",
		Tags:      TagText("calm"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Draft one, revised", second.Title)
	assert.Equal(t, []string{"calm"}, second.Tags)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSaveDraftUnpublishes(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	published, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "Live", JSONFileURL: validFileURL})
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusPublished, published.Status)

	draft, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, SessionID: published.ID, Title: "Live"})
	require.NoError(t, err)
	assert.Equal(t, published.ID, draft.ID)
	assert.Equal(t, model.SessionStatusDraft, draft.Status)
	assert.Empty(t, draft.JSONFileURL)

	feed, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestPublishRequiresValidURL(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	svc := newTestSessionService(store, nil, nil)

	for _, raw := range []string{"", "   ", "not a url", "example.com/file.json", "https://"} {
		_, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "t", JSONFileURL: raw})
		requireValidationField(t, err, "json_file_url")
	}
	assert.Zero(t, store.count())

	published, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "t", Tags: TagText("x,y"), JSONFileURL: validFileURL})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusPublished, published.Status)
	assert.Equal(t, validFileURL, published.JSONFileURL)
	assert.Equal(t, []string{"x", "y"}, published.Tags)
}

func TestPublishCollectsAllFieldErrors(t *testing.T) {
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	_, err := svc.Publish(context.Background(), SaveSessionInput{UserID: alice, Title: " ", Tags: &TagsInput{malformed: true}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	store.users[alice] = model.User{ID: alice, Email: "alice@example.com"}
	store.users[bob] = model.User{ID: bob, Email: "bob@example.com"}
	svc := newTestSessionService(store, nil, nil)

	a1, err := svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "a1"})
	require.NoError(t, err)
	a2, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "a2", JSONFileURL: validFileURL})
	require.NoError(t, err)
	b1, err := svc.Publish(ctx, SaveSessionInput{UserID: bob, Title: "b1", JSONFileURL: validFileURL})
	require.NoError(t, err)
	a3, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "a3"})
	require.NoError(t, err)

	// Touch a1 last so it becomes the newest of alice's sessions.
	_, err = svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: a1.ID, Content: strPtr("edited")})
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	ids := make([]string, 0, len(mine))
	for _, s := range mine {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{a1.ID, a3.ID, a2.ID}, ids)

	feed, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, b1.ID, feed[0].ID)
	assert.Equal(t, a2.ID, feed[1].ID)
	for _, item := range feed {
		assert.Equal(t, model.SessionStatusPublished, item.Status)
		require.NotNil(t, item.Author)
	}
	assert.Equal(t, "bob@example.com", feed[0].Author.Email)
	assert.Equal(t, "alice@example.com", feed[1].Author.Email)
}

func TestListPublishedUsesCache(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	cache := &memFeedCache{}
	svc := newTestSessionService(store, cache, nil)

	_, err := svc.Publish(ctx, SaveSessionInput{UserID: alice, Title: "p", JSONFileURL: validFileURL})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	first, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	// With the store failing, a warm cache still answers.
	store.failWith = errStoreDown
	second, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)

	store.failWith = nil
	_, err = svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, Title: "d"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)
	assert.False(t, cache.hit)
}

func TestMutationsEmitEvents(t *testing.T) {
	ctx := context.Background()
	events := &recordingPublisher{}
	svc := newTestSessionService(newMemSessionStore(), nil, events)

	created, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "c"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, UpdateSessionInput{UserID: alice, SessionID: created.ID, Title: strPtr("u")})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, SaveSessionInput{UserID: alice, SessionID: created.ID, Title: "d"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, SaveSessionInput{UserID: alice, SessionID: created.ID, Title: "p", JSONFileURL: validFileURL})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice, created.ID))

	assert.Equal(t, []string{
		model.SessionEventCreated,
		model.SessionEventUpdated,
		model.SessionEventDraftSaved,
		model.SessionEventPublished,
		model.SessionEventDeleted,
	}, events.types())
	for _, e := range events.events {
		assert.Equal(t, created.ID, e.SessionID)
		assert.Equal(t, alice, e.UserID)
	}
}

func TestEventFailureDoesNotFailRequest(t *testing.T) {
	events := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestSessionService(newMemSessionStore(), nil, events)

	created, err := svc.Create(context.Background(), CreateSessionInput{UserID: alice, Title: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	store.failWith = errStoreDown
	svc := newTestSessionService(store, nil, nil)

	_, err := svc.Create(ctx, CreateSessionInput{UserID: alice, Title: "t"})
	assert.ErrorIs(t, err, errStoreDown)
	_, err = svc.Get(ctx, alice, "x")
	assert.ErrorIs(t, err, errStoreDown)
	_, err = svc.ListPublished(ctx)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestMissingCallerIsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMemSessionStore(), nil, nil)

	_, err := svc.ListMine(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, CreateSessionInput{Title: "t"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveDraft(ctx, SaveSessionInput{Title: "t"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, "", "x"), ErrInvalidInput)
}
