package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillFetchesAndParses(t *testing.T) {
	var gotMarket, gotDays, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMarket = r.URL.Query().Get("market")
		gotDays = r.URL.Query().Get("days")
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"m":"abilene","b":"Angus","s":"Winter","p":151.5,"w":540,"a":2,"t":1704067200000},
			{"m":"abilene","b":"Hereford","s":"Winter","p":149.0,"w":520,"a":3,"t":1704153600000}
		]}`))
	}))
	defer srv.Close()

	stream := New("key123", "ws://unused", srv.URL, []string{"abilene"}, time.Second, time.Second)
	recs, err := stream.Backfill(context.Background(), "abilene", 45)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "abilene", gotMarket)
	assert.Equal(t, "45", gotDays)
	assert.Equal(t, "key123", gotKey)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, 151.5, recs[0].Price)
	assert.Equal(t, "Angus", recs[0].Breed)
	assert.Equal(t, "abilene", recs[0].Market)
	assert.Equal(t, 149.0, recs[1].Price)
}

func TestBackfillWithoutEndpointIsNoop(t *testing.T) {
	stream := New("key123", "ws://unused", "", []string{"abilene"}, time.Second, time.Second)
	recs, err := stream.Backfill(context.Background(), "abilene", 45)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestBackfillErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	stream := New("key123", "ws://unused", srv.URL, []string{"abilene"}, time.Second, time.Second)
	_, err := stream.Backfill(context.Background(), "abilene", 45)
	assert.Error(t, err)
}
