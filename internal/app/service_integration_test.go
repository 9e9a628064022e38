package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	service "github.com/okian/gameselect/internal/app"
	"github.com/smartystreets/goconvey/convey"
)

// fakeUpstream serves scoreboard and summary payloads in the shape the
// provider client expects.
func fakeUpstream(gameIDs []string, tipoff time.Time) *httptest.Server {
	type competitor struct {
		HomeAway string `json:"homeAway"`
		Score    string `json:"score"`
		Team     struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"team"`
	}

	plays := func() []map[string]any {
		mk := func(period int, clock, typeID, typeText, text string, scoring, shooting bool, value, home, away int) map[string]any {
			return map[string]any{
				"period": map[string]any{"number": period},
				"clock":  map[string]any{"displayValue": clock},
				"type":   map[string]any{"id": typeID, "text": typeText},
				"team":   map[string]any{"id": "1"},
				"participants": []map[string]any{
					{"athlete": map[string]any{"id": "2544"}},
				},
				"text":         text,
				"scoringPlay":  scoring,
				"shootingPlay": shooting,
				"scoreValue":   value,
				"homeScore":    home,
				"awayScore":    away,
			}
		}
		return []map[string]any{
			mk(1, "11:30", "110", "Jump Shot", "makes jumper", true, true, 2, 2, 0),
			mk(1, "8:00", "96", "Dunk", "dunks", true, true, 2, 4, 0),
			mk(1, "5:00", "110", "Jump Shot", "misses jumper", false, true, 0, 4, 0),
			mk(1, "0:00", "412", "End Period", "End of the 1st Quarter", false, false, 0, 4, 0),
			mk(2, "6:00", "110", "Jump Shot", "makes three point jumper", true, true, 3, 7, 0),
			mk(2, "0:00", "402", "End Game", "End of Game", false, false, 0, 7, 0),
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		events := make([]map[string]string, 0, len(gameIDs))
		// Only the first day of the window carries games.
		if strings.Contains(r.URL.RawQuery, tipoff.Format("20060102")) {
			for _, id := range gameIDs {
				events = append(events, map[string]string{"id": id})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"events": events})
	})
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		home := competitor{HomeAway: "home", Score: "7"}
		home.Team.ID = "1"
		home.Team.DisplayName = "Boston Celtics"
		away := competitor{HomeAway: "away", Score: "0"}
		away.Team.ID = "2"
		away.Team.DisplayName = "Los Angeles Lakers"

		resp := map[string]any{
			"header": map[string]any{
				"competitions": []map[string]any{{
					"date":        tipoff.Format(time.RFC3339),
					"competitors": []competitor{home, away},
					"venue":       map[string]any{"fullName": "TD Garden"},
				}},
			},
			"plays": plays,
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestServiceRefreshWindow(t *testing.T) {
	convey.Convey("Given a service backed by a fake upstream", t, func() {
		ctx := context.Background()
		dir, err := os.MkdirTemp("", "gameselect-app-*")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = os.RemoveAll(dir) }()

		day := time.Now().UTC().AddDate(0, 0, -2)
		upstream := fakeUpstream([]string{"401585601", "401585602"}, day)
		defer upstream.Close()

		svc := service.New(
			service.WithDBPath(filepath.Join(dir, "catalog.db")),
			service.WithProviderBaseURL(upstream.URL),
			service.WithProviderRate(1000),
			service.WithWorkerCount(1),
			service.WithQueueSize(16),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When refreshing a window containing the game day", func() {
			err := svc.RefreshWindow(ctx, day, day)

			convey.Convey("Then the catalog should hold the fetched games", func() {
				convey.So(err, convey.ShouldBeNil)

				games, err := svc.GamesByDate(ctx, day)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(games), convey.ShouldEqual, 2)
				convey.So(games[0].HomeTeam, convey.ShouldEqual, "Boston Celtics")
				convey.So(games[0].Venue, convey.ShouldEqual, "TD Garden")
				convey.So(*games[0].HomeScore, convey.ShouldEqual, 7)
			})

			convey.Convey("Then the fetched games should be recommendable", func() {
				convey.So(err, convey.ShouldBeNil)

				rec, err := svc.Recommend(ctx, nil, 7, 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Mode, convey.ShouldEqual, "excitement")
				convey.So(len(rec.Games), convey.ShouldEqual, 2)
			})

			convey.Convey("Then refreshing again should be idempotent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.RefreshWindow(ctx, day, day), convey.ShouldBeNil)

				games, err := svc.GamesByDate(ctx, day)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(games), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the upstream fails", func() {
			broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer broken.Close()

			failing := service.New(
				service.WithDBPath(filepath.Join(dir, "failing.db")),
				service.WithProviderBaseURL(broken.URL),
				service.WithProviderRate(1000),
			)
			convey.So(failing.Start(ctx), convey.ShouldBeNil)
			defer failing.Stop()

			err := failing.RefreshWindow(ctx, day, day)

			convey.Convey("Then the refresh should surface the error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "list games")
			})
		})
	})
}
