package worker_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gameselect/internal/adapters/mq/queue"
	"github.com/okian/gameselect/internal/adapters/mq/worker"
	"github.com/okian/gameselect/internal/domain/feature"
	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.WithOutput(io.Discard))
	os.Exit(m.Run())
}

// recordingWarmer tracks which games were warmed and fails on demand.
type recordingWarmer struct {
	mu     sync.Mutex
	warmed []string
	fail   map[string]error
}

func (w *recordingWarmer) GetOrCompute(_ context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.fail[gameID]; ok {
		return model.FeatureVector{}, model.GameAttributes{}, err
	}
	w.warmed = append(w.warmed, gameID)
	return model.FeatureVector{}, model.GameAttributes{GameID: gameID}, nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(deadline time.Duration, cond func() bool) bool {
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func (w *recordingWarmer) warmedSet() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	set := make(map[string]bool, len(w.warmed))
	for _, id := range w.warmed {
		set[id] = true
	}
	return set
}

func TestPoolWarmsQueuedGames(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of warm workers over a job queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		warmer := &recordingWarmer{}
		pool := worker.NewPool(q, warmer,
			worker.WithWorkerCount(3),
			worker.WithLogger(logger.Get().Named("warm")),
		)

		Convey("When jobs are enqueued and the queue is drained", func() {
			const jobs = 20
			for i := 0; i < jobs; i++ {
				So(q.Enqueue(ctx, queue.Job{GameID: fmt.Sprintf("g-%02d", i)}), ShouldBeTrue)
			}

			pool.Start(ctx)
			So(q.Close(), ShouldBeNil)
			So(waitFor(5*time.Second, func() bool {
				return len(warmer.warmedSet()) == jobs
			}), ShouldBeTrue)
			pool.Stop()

			Convey("Then every game should be warmed exactly once", func() {
				set := warmer.warmedSet()
				So(len(set), ShouldEqual, jobs)
				for i := 0; i < jobs; i++ {
					So(set[fmt.Sprintf("g-%02d", i)], ShouldBeTrue)
				}
			})
		})
	})
}

func TestPoolSkipsUnextractableGames(t *testing.T) {
	ctx := context.Background()

	Convey("Given a warmer that cannot extract one game", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		warmer := &recordingWarmer{fail: map[string]error{
			"g-degenerate": fmt.Errorf("game g-degenerate has no events: %w", feature.ErrDegenerateGame),
		}}
		pool := worker.NewPool(q, warmer, worker.WithWorkerCount(1))

		Convey("When good and bad games are queued", func() {
			So(q.Enqueue(ctx, queue.Job{GameID: "g-before"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{GameID: "g-degenerate"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{GameID: "g-after"}), ShouldBeTrue)

			pool.Start(ctx)
			So(q.Close(), ShouldBeNil)
			So(waitFor(5*time.Second, func() bool {
				return warmer.warmedSet()["g-after"]
			}), ShouldBeTrue)
			pool.Stop()

			Convey("Then the failure should not stop later jobs", func() {
				set := warmer.warmedSet()
				So(set["g-before"], ShouldBeTrue)
				So(set["g-after"], ShouldBeTrue)
				So(set["g-degenerate"], ShouldBeFalse)
			})
		})
	})
}

func TestPoolStopReturnsPromptly(t *testing.T) {
	Convey("Given a running pool over an open, empty queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		warmer := &recordingWarmer{}
		pool := worker.NewPool(q, warmer, worker.WithWorkerCount(2))
		pool.Start(context.Background())

		Convey("When the pool is stopped with the context still live", func() {
			start := time.Now()
			pool.Stop()
			elapsed := time.Since(start)

			Convey("Then the workers should exit well before the shutdown timeout", func() {
				So(elapsed, ShouldBeLessThan, time.Second)
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestPoolStopsOnContextCancel(t *testing.T) {
	Convey("Given a running pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		warmer := &recordingWarmer{}
		pool := worker.NewPool(q, warmer, worker.WithWorkerCount(2))

		ctx, cancel := context.WithCancel(context.Background())
		pool.Start(ctx)

		Convey("When the context is cancelled", func() {
			cancel()

			stopped := make(chan struct{})
			go func() {
				pool.Stop()
				close(stopped)
			}()

			Convey("Then the workers should exit promptly", func() {
				exited := false
				select {
				case <-stopped:
					exited = true
				case <-time.After(2 * time.Second):
				}
				So(exited, ShouldBeTrue)
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
