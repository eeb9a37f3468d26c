package repository

import (
	"context"
	"testing"
	"time"

	"copyforge/internal/domain"
	"copyforge/internal/models"
	"copyforge/internal/notify"
	"copyforge/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	limit := 1000
	u := &models.User{Email: t.Name() + "@example.com", Role: domain.RoleUser, WordsLimit: &limit}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func TestDismissalInsertIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewDismissalRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)

	require.NoError(t, repo.Insert(ctx, u.ID, notify.WelcomeID))
	require.NoError(t, repo.Insert(ctx, u.ID, notify.WelcomeID))

	var count int64
	db.Model(&models.NotificationDismissal{}).Where("user_id = ?", u.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	set, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, set.Has(notify.WelcomeID))
	assert.Len(t, set, 1)
}

func TestDismissalInsertBulk(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewDismissalRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)
	other := &models.User{Email: "other@example.com", Role: domain.RoleUser}
	require.NoError(t, NewUserRepository(db).Create(ctx, other))

	require.NoError(t, repo.Insert(ctx, u.ID, "a"))
	require.NoError(t, repo.InsertBulk(ctx, u.ID, []string{"a", "b", "b", "", notify.UsageCriticalID}))
	require.NoError(t, repo.InsertBulk(ctx, u.ID, nil))

	set, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, notify.NewDismissedSet("a", "b", notify.UsageCriticalID), set)

	otherSet, err := repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherSet)
}

func TestDismissalFingerprintChangesOnInsert(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewDismissalRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)

	before, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, u.ID, "x"))
	after, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	require.NoError(t, repo.Insert(ctx, u.ID, "x"))
	same, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, same)
}

func TestNotificationLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	older := &models.Notification{Type: "info", Title: "Old", IsActive: true, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Notification{Type: "success", Title: "New", IsActive: true}
	hidden := &models.Notification{Type: "warning", Title: "Draft", IsActive: false}
	for _, n := range []*models.Notification{older, newer, hidden} {
		require.NoError(t, repo.Create(ctx, n))
		assert.Len(t, n.ID, 36)
	}

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, newer.ID, active[0].ID)
	assert.Equal(t, older.ID, active[1].ID)

	require.NoError(t, repo.SetActive(ctx, hidden.ID, true))
	require.NoError(t, repo.SetActive(ctx, older.ID, false))
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	ids := []string{active[0].ID, active[1].ID}
	assert.ElementsMatch(t, []string{newer.ID, hidden.ID}, ids)

	all, total, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	require.NoError(t, repo.Delete(ctx, older.ID))
	_, err = repo.GetByID(ctx, older.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, older.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.SetActive(ctx, "missing", true), gorm.ErrRecordNotFound)
}

func TestNotificationFingerprint(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	empty, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0:0", empty)

	n := &models.Notification{Type: "info", Title: "Hello", IsActive: true}
	require.NoError(t, repo.Create(ctx, n))
	created, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, empty, created)

	require.NoError(t, repo.Delete(ctx, n.ID))
	deleted, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, created, deleted)
}

func TestUsageRecordIncrementsCounter(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)
	assert.Nil(t, u.WordsUsed)

	updated, err := repo.Record(ctx, &models.UsageEvent{UserID: u.ID, Tool: "blog-outline", Words: 120})
	require.NoError(t, err)
	require.NotNil(t, updated.WordsUsed)
	assert.Equal(t, 120, *updated.WordsUsed)

	updated, err = repo.Record(ctx, &models.UsageEvent{UserID: u.ID, Tool: "ad-copy", Words: 30})
	require.NoError(t, err)
	assert.Equal(t, 150, *updated.WordsUsed)

	events, err := repo.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, err = repo.Record(ctx, &models.UsageEvent{UserID: 9999, Tool: "ad-copy", Words: 1})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserWordsLimitAndReset(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)

	require.NoError(t, users.SetWordsLimit(ctx, u.ID, 250))
	_, err := NewUsageRepository(db).Record(ctx, &models.UsageEvent{UserID: u.ID, Tool: "email", Words: 40})
	require.NoError(t, err)
	require.NoError(t, users.ResetWordsUsed(ctx, u.ID))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, *got.WordsLimit)
	assert.Equal(t, 0, *got.WordsUsed)

	byEmail, err := users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.ErrorIs(t, users.SetWordsLimit(ctx, 4242, 1), gorm.ErrRecordNotFound)
}
