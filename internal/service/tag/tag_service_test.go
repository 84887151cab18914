package tag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	return db
}

func strPtr(s string) *string { return &s }

func TestCreateTag(t *testing.T) {
	svc := NewTagService(setupTestDB(t))
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr("  work  ")})
	require.NoError(t, err)
	assert.Equal(t, "work", tag.Name)
	assert.NotZero(t, tag.ID)
}

func TestCreateTagValidation(t *testing.T) {
	svc := NewTagService(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name string
		req  TagRequest
	}{
		{"missing", TagRequest{}},
		{"blank", TagRequest{Name: strPtr("   ")}},
		{"too long", TagRequest{Name: strPtr(strings.Repeat("t", 51))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTag(ctx, &tt.req)
			appErr, ok := apperrors.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, "name")
		})
	}

	_, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr(strings.Repeat("t", 50))})
	assert.NoError(t, err)
}

func TestCreateTagDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr("work")})
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, &TagRequest{Name: strPtr("work")})
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, []string{"tag with this name already exists."}, appErr.Fields["name"])

	var count int64
	require.NoError(t, db.Model(&database.Tag{}).Where("name = ?", "work").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// 名称区分大小写
	_, err = svc.CreateTag(ctx, &TagRequest{Name: strPtr("Work")})
	assert.NoError(t, err)
}

func TestListTags(t *testing.T) {
	svc := NewTagService(setupTestDB(t))
	ctx := context.Background()

	for _, n := range []string{"zeta", "alpha", "golang", "go"} {
		_, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr(n)})
		require.NoError(t, err)
	}

	all, total, err := svc.ListTags(ctx, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	names := make([]string, 0, len(all))
	for _, tg := range all {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"alpha", "go", "golang", "zeta"}, names)

	found, total, err := svc.ListTags(ctx, ListQuery{Search: "go"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, found, 2)

	page, total, err := svc.ListTags(ctx, ListQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, "zeta", page[0].Name)
}

func TestUpdateTag(t *testing.T) {
	svc := NewTagService(setupTestDB(t))
	ctx := context.Background()

	work, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr("work")})
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, &TagRequest{Name: strPtr("home")})
	require.NoError(t, err)

	updated, err := svc.UpdateTag(ctx, work.ID, &TagRequest{Name: strPtr("office")}, false)
	require.NoError(t, err)
	assert.Equal(t, "office", updated.Name)

	// 保持原名不算冲突
	_, err = svc.UpdateTag(ctx, work.ID, &TagRequest{Name: strPtr("office")}, false)
	assert.NoError(t, err)

	_, err = svc.UpdateTag(ctx, work.ID, &TagRequest{Name: strPtr("home")}, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	// 全量更新必须提供 name，部分更新不需要
	_, err = svc.UpdateTag(ctx, work.ID, &TagRequest{}, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	same, err := svc.UpdateTag(ctx, work.ID, &TagRequest{}, true)
	require.NoError(t, err)
	assert.Equal(t, "office", same.Name)

	_, err = svc.UpdateTag(ctx, 999, &TagRequest{Name: strPtr("x")}, true)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteTagKeepsNotes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)
	ctx := context.Background()

	user := database.User{Username: "alice", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	tag, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr("work")})
	require.NoError(t, err)
	note := database.Note{Title: "n", OwnerID: user.ID, Tags: []database.Tag{{ID: tag.ID, Name: tag.Name}}}
	require.NoError(t, db.Create(&note).Error)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))

	var links, notes int64
	db.Model(&database.NoteTag{}).Count(&links)
	db.Model(&database.Note{}).Count(&notes)
	assert.Zero(t, links)
	assert.EqualValues(t, 1, notes)

	assert.True(t, apperrors.Is(svc.DeleteTag(ctx, tag.ID), apperrors.ErrNotFound))
	_, err = svc.GetTagByID(ctx, tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListTagsSearchIsLiteral(t *testing.T) {
	svc := NewTagService(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"to_do", "todo", "50%", "500"} {
		_, err := svc.CreateTag(ctx, &TagRequest{Name: strPtr(name)})
		require.NoError(t, err)
	}

	found, total, err := svc.ListTags(ctx, ListQuery{Search: "_"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "to_do", found[0].Name)

	found, _, err = svc.ListTags(ctx, ListQuery{Search: "0%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "50%", found[0].Name)

	_, total, err = svc.ListTags(ctx, ListQuery{Search: "TO"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
