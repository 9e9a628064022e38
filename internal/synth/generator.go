package synth

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/gameselect/internal/domain/pbp"
)

// Period timing constants, in seconds.
const (
	regulationPeriods = 4
	periodLength      = 720
	minPlayGap        = 18
	playGapRange      = 25
)

// Play mix thresholds. A uniform draw in [0, 1) is bucketed in order, so
// each band's width is that event's share of generated plays.
const (
	shareTwoPointer = 0.28
	shareThree      = 0.40
	shareDunk       = 0.47
	shareMiss       = 0.80
	shareBlock      = 0.86
	shareFoul       = 0.93
)

var teamPool = []struct {
	id   string
	name string
}{
	{"1", "Boston Celtics"},
	{"2", "Los Angeles Lakers"},
	{"7", "Denver Nuggets"},
	{"14", "Miami Heat"},
	{"17", "Milwaukee Bucks"},
	{"19", "New York Knicks"},
	{"21", "Oklahoma City Thunder"},
	{"24", "Phoenix Suns"},
}

// Game is one generated game: catalog metadata plus raw play-by-play.
type Game struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	Venue     string
	Tipoff    time.Time
	HomeScore int
	AwayScore int
	Rows      []pbp.RawRow
}

// GenerateGames builds well-formed synthetic games. The same seed always
// produces the same games.
func GenerateGames(cfg *Config) []Game {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducibility matters more than entropy here

	games := make([]Game, 0, cfg.NumGames)
	for i := 0; i < cfg.NumGames; i++ {
		games = append(games, generateGame(rng, i, cfg.Days))
	}
	return games
}

func generateGame(rng *rand.Rand, index, days int) Game {
	homeIdx := rng.Intn(len(teamPool))
	awayIdx := rng.Intn(len(teamPool) - 1)
	if awayIdx >= homeIdx {
		awayIdx++
	}
	home := teamPool[homeIdx]
	away := teamPool[awayIdx]

	daysAgo := 1 + rng.Intn(max(days, 1))
	tipoff := time.Now().UTC().AddDate(0, 0, -daysAgo).Truncate(time.Hour)

	g := Game{
		GameID:   fmt.Sprintf("synth-%06d", index+1),
		HomeTeam: home.name,
		AwayTeam: away.name,
		Venue:    home.name + " Arena",
		Tipoff:   tipoff,
	}

	homePlayers := []string{home.id + "01", home.id + "02", home.id + "03"}
	awayPlayers := []string{away.id + "01", away.id + "02", away.id + "03"}

	var homeScore, awayScore int
	for period := 1; period <= regulationPeriods; period++ {
		clock := periodLength - minPlayGap - rng.Intn(playGapRange)
		for clock > 0 {
			isHome := rng.Float64() < 0.5
			teamID, players := away.id, awayPlayers
			if isHome {
				teamID, players = home.id, homePlayers
			}
			player := players[rng.Intn(len(players))]

			row := pbp.RawRow{
				Period:   period,
				Clock:    fmt.Sprintf("%d:%02d", clock/60, clock%60),
				TeamID:   teamID,
				PlayerID: player,
			}

			switch draw := rng.Float64(); {
			case draw < shareTwoPointer:
				row.TypeID, row.TypeText = "110", "Jump Shot"
				row.Text = "makes 15 foot jumper"
				row.ScoringPlay, row.ShootingPlay, row.ScoreValue = true, true, 2
			case draw < shareThree:
				row.TypeID, row.TypeText = "110", "Jump Shot"
				row.Text = "makes 25 foot three point jumper"
				row.ScoringPlay, row.ShootingPlay, row.ScoreValue = true, true, 3
			case draw < shareDunk:
				row.TypeID, row.TypeText = "96", "Dunk"
				row.Text = "dunks"
				row.ScoringPlay, row.ShootingPlay, row.ScoreValue = true, true, 2
			case draw < shareMiss:
				row.TypeID, row.TypeText = "110", "Jump Shot"
				row.Text = "misses 18 foot jumper"
				row.ShootingPlay = true
			case draw < shareBlock:
				row.TypeID, row.TypeText = "120", "Layup Shot"
				row.Text = "blocks the driving layup"
			case draw < shareFoul:
				row.TypeID, row.TypeText = "44", "Personal Foul"
				row.Text = "personal foul"
			default:
				row.TypeID, row.TypeText = "62", "Lost Ball Turnover"
				row.Text = "lost ball turnover"
			}

			if row.ScoringPlay {
				if isHome {
					homeScore += row.ScoreValue
				} else {
					awayScore += row.ScoreValue
				}
			}
			row.HomeScore, row.AwayScore = homeScore, awayScore
			g.Rows = append(g.Rows, row)

			clock -= minPlayGap + rng.Intn(playGapRange)
		}

		endTypeID, endText := "412", fmt.Sprintf("End of the %d Period", period)
		if period == regulationPeriods {
			endTypeID, endText = "402", "End of Game"
		}
		g.Rows = append(g.Rows, pbp.RawRow{
			Period:    period,
			Clock:     "0:00",
			TypeID:    endTypeID,
			TypeText:  "End Period",
			Text:      endText,
			HomeScore: homeScore,
			AwayScore: awayScore,
		})
	}

	g.HomeScore, g.AwayScore = homeScore, awayScore
	return g
}
