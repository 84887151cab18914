package note

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   NoteService
	alice database.User
	bob   database.User
	work  database.Tag
	home  database.Tag
}

func setup(t *testing.T) *fixture {
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)

	f := &fixture{
		db:    db,
		svc:   NewNoteService(db),
		alice: database.User{Username: "alice", Password: "x"},
		bob:   database.User{Username: "bob", Password: "x"},
		work:  database.Tag{Name: "work"},
		home:  database.Tag{Name: "home"},
	}
	require.NoError(t, db.Create(&f.alice).Error)
	require.NoError(t, db.Create(&f.bob).Error)
	require.NoError(t, db.Create(&f.work).Error)
	require.NoError(t, db.Create(&f.home).Error)
	return f
}

func (f *fixture) create(t *testing.T, owner database.User, title string) *NoteResponse {
	n, err := f.svc.CreateNote(context.Background(), owner.ID, &NoteRequest{Title: &title})
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T { return &v }

func tagIDs(n *NoteResponse) []uint {
	ids := make([]uint, 0, len(n.Tags))
	for _, tg := range n.Tags {
		ids = append(ids, tg.ID)
	}
	return ids
}

func TestCreateNoteDefaults(t *testing.T) {
	f := setup(t)

	n, err := f.svc.CreateNote(context.Background(), f.alice.ID, &NoteRequest{Title: ptr("Groceries")})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "alice", n.OwnerUsername)
	assert.False(t, n.IsFavorite)
	assert.False(t, n.IsTrashed)
	assert.Equal(t, 0, n.OrderIndex)
	assert.NotNil(t, n.Tags)
	assert.Empty(t, n.Tags)
	require.NotNil(t, n.Content)
	assert.Equal(t, "", *n.Content)

	untitled, err := f.svc.CreateNote(context.Background(), f.alice.ID, &NoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderTitle, untitled.Title)
}

func TestCreateNoteTitleValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", strings.Repeat("a", 201)} {
		_, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr(title)})
		appErr, ok := apperrors.GetAppError(err)
		require.True(t, ok, "title %q", title)
		assert.Equal(t, apperrors.ErrValidation, appErr.Code)
		assert.Contains(t, appErr.Fields, "title")
	}

	n, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr(strings.Repeat("é", 200))})
	require.NoError(t, err)
	assert.Len(t, []rune(n.Title), 200)
}

func TestCreateNoteWithTagsRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{
		Title:  ptr("tagged"),
		TagIDs: &[]uint{f.work.ID, f.home.ID, f.work.ID},
	})
	require.NoError(t, err)

	got, err := f.svc.GetNote(ctx, f.alice.ID, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{f.work.ID, f.home.ID}, tagIDs(got))
	for _, tg := range got.Tags {
		assert.NotEmpty(t, tg.Name)
	}
}

func TestCreateNoteUnknownTagRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("x"), TagIDs: &[]uint{f.work.ID, 999}})
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, []string{`Invalid pk "999" - object does not exist.`}, appErr.Fields["tag_ids"])

	var count int64
	f.db.Model(&database.Note{}).Count(&count)
	assert.Zero(t, count, "failed create must not leave a note behind")
}

func TestNotesAreOwnerScoped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n := f.create(t, f.alice, "Groceries")

	_, err := f.svc.GetNote(ctx, f.bob.ID, n.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, missing := f.svc.GetNote(ctx, f.bob.ID, 12345)
	assert.Equal(t, missing.Error(), err.Error(), "foreign and missing notes must look the same")

	_, err = f.svc.UpdateNote(ctx, f.bob.ID, n.ID, &NoteRequest{Title: ptr("mine")}, true)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	assert.True(t, apperrors.Is(f.svc.DeleteNote(ctx, f.bob.ID, n.ID), apperrors.ErrNotFound))

	list, total, err := f.svc.ListNotes(ctx, f.bob.ID, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	// bob 的操作没有影响 alice 的笔记
	got, err := f.svc.GetNote(ctx, f.alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
}

func TestListNotesOrderAndFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("third"), OrderIndex: ptr(2)})
	require.NoError(t, err)
	_, err = f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("first"), OrderIndex: ptr(0), IsFavorite: ptr(true)})
	require.NoError(t, err)
	_, err = f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("second"), OrderIndex: ptr(1), Content: NewOptionalString(ptr("buy milk")), IsTrashed: ptr(true)})
	require.NoError(t, err)

	list, total, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, "third", list[2].Title)

	favs, _, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{IsFavorite: ptr(true)})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "first", favs[0].Title)

	live, _, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{IsTrashed: ptr(false)})
	require.NoError(t, err)
	assert.Len(t, live, 2)

	found, _, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "second", found[0].Title)

	page, total, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "third", page[0].Title)
}

func TestUpdateNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("draft"), TagIDs: &[]uint{f.work.ID}})
	require.NoError(t, err)

	// 部分更新未提供 tag_ids 时标签不变
	patched, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{IsFavorite: ptr(true)}, true)
	require.NoError(t, err)
	assert.True(t, patched.IsFavorite)
	assert.Equal(t, "draft", patched.Title)
	assert.Equal(t, []uint{f.work.ID}, tagIDs(patched))
	assert.False(t, patched.UpdatedAt.Before(n.UpdatedAt))
	assert.Equal(t, n.CreatedAt.Unix(), patched.CreatedAt.Unix())

	// tag_ids 整体替换
	replaced, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{TagIDs: &[]uint{f.home.ID}}, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.home.ID}, tagIDs(replaced))

	// 空列表清空标签
	cleared, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{TagIDs: &[]uint{}}, true)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)

	// 全量更新必须提供标题
	_, err = f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{Content: NewOptionalString(ptr("body"))}, false)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "title")

	full, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{Title: ptr("final"), Content: NewOptionalString(ptr("body"))}, false)
	require.NoError(t, err)
	assert.Equal(t, "final", full.Title)
	assert.Equal(t, "body", *full.Content)
	assert.True(t, full.IsFavorite, "fields absent from a full update keep their value")
}

func TestUpdateNoteInvalidTagLeavesNoteUnchanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("keep"), TagIDs: &[]uint{f.work.ID}})
	require.NoError(t, err)

	_, err = f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{Title: ptr("changed"), TagIDs: &[]uint{404}}, true)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	got, err := f.svc.GetNote(ctx, f.alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
	assert.Equal(t, []uint{f.work.ID}, tagIDs(got))
}

func TestDeleteNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("gone"), TagIDs: &[]uint{f.work.ID}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteNote(ctx, f.alice.ID, n.ID))

	_, err = f.svc.GetNote(ctx, f.alice.ID, n.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	var links, tags int64
	f.db.Model(&database.NoteTag{}).Count(&links)
	f.db.Model(&database.Tag{}).Count(&tags)
	assert.Zero(t, links)
	assert.EqualValues(t, 2, tags, "deleting a note never deletes tags")
}

func TestReorderNotes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.create(t, f.alice, "a")
	b := f.create(t, f.alice, "b")
	c := f.create(t, f.alice, "c")
	untouched, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("d"), OrderIndex: ptr(7)})
	require.NoError(t, err)

	notes, err := f.svc.ReorderNotes(ctx, f.alice.ID, []uint{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, []uint{notes[0].ID, notes[1].ID, notes[2].ID})
	for i, n := range notes {
		assert.Equal(t, i, n.OrderIndex)
	}

	d, err := f.svc.GetNote(ctx, f.alice.ID, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, d.OrderIndex)

	list, _, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "c", list[0].Title)
	assert.Equal(t, "d", list[3].Title)
}

func TestReorderNotesIsAllOrNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("a"), OrderIndex: ptr(5)})
	require.NoError(t, err)
	b, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("b"), OrderIndex: ptr(6)})
	require.NoError(t, err)
	foreign := f.create(t, f.bob, "bob's")

	tests := []struct {
		name string
		ids  []uint
	}{
		{"foreign id", []uint{b.ID, a.ID, foreign.ID}},
		{"missing id", []uint{b.ID, 9999, a.ID}},
		{"duplicate id", []uint{b.ID, a.ID, b.ID}},
		{"empty", []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ReorderNotes(ctx, f.alice.ID, tt.ids)
			appErr, ok := apperrors.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, "note_ids")

			gotA, err := f.svc.GetNote(ctx, f.alice.ID, a.ID)
			require.NoError(t, err)
			gotB, err := f.svc.GetNote(ctx, f.alice.ID, b.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, gotA.OrderIndex)
			assert.Equal(t, 6, gotB.OrderIndex)
		})
	}

	bobNote, err := f.svc.GetNote(ctx, f.bob.ID, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bobNote.OrderIndex)
}

func TestOwnerDeleteCascadesNotes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateNote(ctx, f.alice.ID, &NoteRequest{Title: ptr("x"), TagIDs: &[]uint{f.work.ID}})
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&f.alice).Error)

	var notes int64
	f.db.Model(&database.Note{}).Count(&notes)
	assert.Zero(t, notes)
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.create(t, f.alice, "apple")
	f.create(t, f.alice, "banana")
	f.create(t, f.alice, "100% done")
	f.create(t, f.alice, "snake_case")
	f.create(t, f.alice, "wow!")

	titles := func(q string) []string {
		list, total, err := f.svc.ListNotes(ctx, f.alice.ID, ListQuery{Search: q})
		require.NoError(t, err)
		assert.EqualValues(t, len(list), total)
		out := make([]string, 0, len(list))
		for _, n := range list {
			out = append(out, n.Title)
		}
		return out
	}

	assert.Equal(t, []string{"snake_case"}, titles("_"))
	assert.Equal(t, []string{"100% done"}, titles("%"))
	assert.Equal(t, []string{"wow!"}, titles("!"))
	assert.Empty(t, titles("a_p"))
	assert.ElementsMatch(t, []string{"apple", "banana", "snake_case"}, titles("a"))
}

func TestContentNullAndOmitted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var req NoteRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"n","content":null}`), &req))
	assert.True(t, req.Content.Set)
	assert.Nil(t, req.Content.Value)

	n, err := f.svc.CreateNote(ctx, f.alice.ID, &req)
	require.NoError(t, err)
	assert.Nil(t, n.Content)

	// 更新时未提供则保留原值
	withBody, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{Content: NewOptionalString(ptr("body"))}, true)
	require.NoError(t, err)
	require.NotNil(t, withBody.Content)
	assert.Equal(t, "body", *withBody.Content)

	var patch NoteRequest
	require.NoError(t, json.Unmarshal([]byte(`{"is_favorite":true}`), &patch))
	assert.False(t, patch.Content.Set)
	kept, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &patch, true)
	require.NoError(t, err)
	require.NotNil(t, kept.Content)
	assert.Equal(t, "body", *kept.Content)

	// 显式 null 清空内容
	cleared, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, &NoteRequest{Content: NewOptionalString(nil)}, true)
	require.NoError(t, err)
	assert.Nil(t, cleared.Content)

	var bad NoteRequest
	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, json.Unmarshal([]byte(`{"content":5}`), &bad), &typeErr)
	assert.Equal(t, "content", typeErr.Field)
}
