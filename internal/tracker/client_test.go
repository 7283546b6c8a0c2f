package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL: server.URL + "/api/edge",
		Token:   "secret",
		UserID:  42,
		RPS:     100,
		Burst:   100,
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestClient_FetchSeriesList(t *testing.T) {
	fixture := loadFixture(t, "library_entries.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/edge/library-entries", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("filter[userId]"))
		assert.Equal(t, "anime,manga", r.URL.Query().Get("include"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, mediaType, r.Header.Get("Accept"))
		w.Write(fixture)
	})

	list, err := client.FetchSeriesList(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2, "entry with missing media is skipped")

	mob := list[0]
	assert.Equal(t, 101, mob.UserID)
	assert.Equal(t, 7442, mob.ID)
	assert.Equal(t, domain.ItemTypeAnime, mob.Type)
	assert.Equal(t, domain.SubtypeTV, mob.Subtype)
	assert.Equal(t, domain.ServiceKitsu, mob.Service)
	assert.Equal(t, domain.StatusCurrent, mob.Status)
	assert.Equal(t, 3, mob.Progress)
	assert.Equal(t, 12, mob.TotalLength)
	assert.Equal(t, 8, mob.Rating)
	assert.Equal(t, domain.Date("2016-07-11"), mob.StartDate)
	assert.Equal(t, "https://media.kitsu.io/anime/7442/medium.jpg", mob.PosterImageURL)

	berserk := list[1]
	assert.Equal(t, domain.ItemTypeManga, berserk.Type)
	assert.Equal(t, domain.StatusPlanned, berserk.Status)
	assert.Equal(t, 0, berserk.TotalLength)
	assert.Equal(t, 0, berserk.Rating)
	assert.False(t, berserk.EndDate.IsSet())
	assert.Equal(t, "1989-08-25 - Ongoing", berserk.DateRange())
}

func TestClient_FetchSeriesList_Paginates(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		offset := r.URL.Query().Get("page[offset]")
		switch n {
		case 1:
			assert.Equal(t, "0", offset)
			w.Write([]byte(`{"data":[{"id":"1","type":"libraryEntries","attributes":{"status":"current","progress":1},
				"relationships":{"anime":{"data":{"id":"10","type":"anime"}}}}],
				"included":[{"id":"10","type":"anime","attributes":{"canonicalTitle":"A"}}],
				"links":{"next":"https://kitsu.io/api/edge/library-entries?page[offset]=1"}}`))
		default:
			assert.Equal(t, "1", offset)
			w.Write([]byte(`{"data":[{"id":"2","type":"libraryEntries","attributes":{"status":"dropped","progress":4},
				"relationships":{"anime":{"data":{"id":"20","type":"anime"}}}}],
				"included":[{"id":"20","type":"anime","attributes":{"canonicalTitle":"B"}}],
				"links":{}}`))
		}
	})

	list, err := client.FetchSeriesList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)
	assert.Equal(t, domain.StatusDropped, list[1].Status)
}

func TestClient_FetchSeriesList_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[],"links":{}}`))
	})

	list, err := client.FetchSeriesList(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"server error", http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			_, err := client.FetchSeriesList(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "fetch", terr.Op)
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.FetchSeriesList(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

const entryResponse = `{"data":{"id":"101","type":"libraryEntries","attributes":{"status":"current","progress":%d,"ratingTwenty":%s},
	"relationships":{"anime":{"data":{"id":"7442","type":"anime"}}}},
	"included":[{"id":"7442","type":"anime","attributes":{"canonicalTitle":"Mob Psycho 100","episodeCount":12}}]}`

func TestClient_IncrementProgress(t *testing.T) {
	var patched patchDocument
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/edge/library-entries/101", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(fmt.Sprintf(entryResponse, 11, "null")))
		case http.MethodPatch:
			assert.Equal(t, mediaType, r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &patched))
			w.Write([]byte(fmt.Sprintf(entryResponse, patched.Data.Attributes.Progress, "18")))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	rating := 9
	s, err := client.IncrementProgress(context.Background(), 101, &rating)
	require.NoError(t, err)

	assert.Equal(t, "101", patched.Data.ID)
	assert.Equal(t, "libraryEntries", patched.Data.Type)
	assert.Equal(t, 12, patched.Data.Attributes.Progress)
	require.NotNil(t, patched.Data.Attributes.RatingTwenty)
	assert.Equal(t, 18, *patched.Data.Attributes.RatingTwenty)

	assert.Equal(t, 12, s.Progress)
	assert.Equal(t, 9, s.Rating)
	assert.False(t, s.ShowPlusOne())
}

func TestClient_IncrementProgress_WithoutRating(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &raw))
			w.Write([]byte(fmt.Sprintf(entryResponse, 4, "null")))
			return
		}
		w.Write([]byte(fmt.Sprintf(entryResponse, 3, "null")))
	})

	_, err := client.IncrementProgress(context.Background(), 101, nil)
	require.NoError(t, err)

	attrs := raw["data"].(map[string]any)["attributes"].(map[string]any)
	assert.NotContains(t, attrs, "ratingTwenty")
	assert.EqualValues(t, 4, attrs["progress"])
}

func TestClient_IncrementProgress_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.IncrementProgress(context.Background(), 5, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 5, terr.ID)
	assert.Equal(t, "tracker increment [5]: tracker: not found", err.Error())
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/edge/manga", r.URL.Path)
		assert.Equal(t, "berserk", r.URL.Query().Get("filter[text]"))
		w.Write([]byte(`{"data":[
			{"id":"38","type":"manga","attributes":{"canonicalTitle":"Berserk","subtype":"manga",
				"synopsis":"<p>Guts, a <b>former</b> mercenary.</p>","posterImage":{"small":"s.jpg"}}},
			{"id":"x","type":"manga","attributes":{}}
		]}`))
	})

	results, err := client.Search(context.Background(), "berserk", domain.ItemTypeManga)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 38, results[0].ID)
	assert.Equal(t, domain.ItemTypeManga, results[0].Type)
	assert.Equal(t, "Guts, a **former** mercenary.", results[0].Synopsis)
	assert.Equal(t, "s.jpg", results[0].PosterImageURL)
}

func TestClient_Search_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/edge/anime", r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	})

	results, err := client.Search(context.Background(), "zzz", domain.ItemTypeUnknown)
	require.NoError(t, err)
	assert.Empty(t, results)
}
