package cache

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeSeries(userID, mediaID int, title string) domain.Series {
	return domain.Series{
		UserID:         userID,
		ID:             mediaID,
		Type:           domain.ItemTypeAnime,
		Subtype:        domain.SubtypeTV,
		Service:        domain.ServiceKitsu,
		Title:          title,
		Status:         domain.StatusCurrent,
		Progress:       3,
		TotalLength:    12,
		StartDate:      "2016-07-11",
		PosterImageURL: "https://media.kitsu.io/" + title + ".jpg",
		Rating:         8,
	}
}

func TestReplaceAndListSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	manga := makeSeries(3, 38, "Berserk")
	manga.Type = domain.ItemTypeManga
	manga.Subtype = domain.SubtypeManga
	manga.Status = domain.StatusOnHold
	manga.TotalLength = 0
	manga.StartDate = ""
	manga.PosterImageURL = ""

	input := []domain.Series{
		makeSeries(7, 7442, "Mob Psycho 100"),
		manga,
		makeSeries(1, 1, "Akira"),
	}
	if err := s.ReplaceSeries(ctx, input); err != nil {
		t.Fatalf("ReplaceSeries: %v", err)
	}

	got, err := s.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(got) != len(input) {
		t.Fatalf("ListSeries returned %d series, want %d", len(got), len(input))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Errorf("series %d = %+v, want %+v", i, got[i], input[i])
		}
	}

	// A second replace drops series missing from the new list.
	if err := s.ReplaceSeries(ctx, input[:1]); err != nil {
		t.Fatalf("ReplaceSeries: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestUpsertSeries_KeepsPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceSeries(ctx, []domain.Series{
		makeSeries(1, 10, "First"),
		makeSeries(2, 20, "Second"),
	}); err != nil {
		t.Fatalf("ReplaceSeries: %v", err)
	}

	updated := makeSeries(1, 10, "First")
	updated.Progress = 4
	if err := s.UpsertSeries(ctx, updated); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}
	if err := s.UpsertSeries(ctx, makeSeries(3, 30, "Third")); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}

	got, err := s.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	want := []string{"First", "Second", "Third"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d = %q, want %q", i, got[i].Title, title)
		}
	}
	if got[0].Progress != 4 {
		t.Errorf("progress = %d, want 4", got[0].Progress)
	}
}

func TestGetSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSeries(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSeries on empty cache: got %v, want ErrNotFound", err)
	}

	want := makeSeries(5, 50, "Frieren")
	if err := s.UpsertSeries(ctx, want); err != nil {
		t.Fatalf("UpsertSeries: %v", err)
	}
	got, err := s.GetSeries(ctx, 5)
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if got != want {
		t.Errorf("GetSeries = %+v, want %+v", got, want)
	}
}

func TestTrackedMediaIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	manga := makeSeries(2, 38, "Berserk")
	manga.Type = domain.ItemTypeManga
	if err := s.ReplaceSeries(ctx, []domain.Series{makeSeries(1, 7442, "Mob"), manga}); err != nil {
		t.Fatalf("ReplaceSeries: %v", err)
	}

	anime, err := s.TrackedMediaIDs(ctx, domain.ItemTypeAnime)
	if err != nil {
		t.Fatalf("TrackedMediaIDs: %v", err)
	}
	if !anime[7442] || anime[38] {
		t.Errorf("anime ids = %v, want only 7442", anime)
	}

	mangaIDs, err := s.TrackedMediaIDs(ctx, domain.ItemTypeManga)
	if err != nil {
		t.Fatalf("TrackedMediaIDs: %v", err)
	}
	if len(mangaIDs) != 1 || !mangaIDs[38] {
		t.Errorf("manga ids = %v, want only 38", mangaIDs)
	}
}

func TestListSeries_Empty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ListSeries(context.Background())
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListSeries = %v, want empty", got)
	}
}
