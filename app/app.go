// Package app wires the framework components together: config, publisher,
// async queue, filesystem source, and the ops HTTP surface.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	pubsub "event_framework"
	"event_framework/config"
	"event_framework/httpapi"
	"event_framework/queue"
	"event_framework/watch"
)

// App holds the wired components.
type App struct {
	cfg     config.Config
	pub     *pubsub.Publisher
	queue   *queue.Queue
	watcher *watch.Watcher
	mux     *http.ServeMux
}

func New(cfg config.Config) *App {
	var opts []pubsub.Option
	if cfg.MaxParallelism > 0 {
		opts = append(opts, pubsub.WithMaxParallelism(cfg.MaxParallelism))
	}
	if cfg.PoisonRecovery {
		opts = append(opts, pubsub.WithPoisonRecovery())
	}
	pub := pubsub.New(opts...)
	q := queue.New(pub, cfg.QueueSize, cfg.WorkerCount)
	// The watcher enqueues through the async queue so a burst of filesystem
	// activity cannot stall the notification loop.
	watcher := watch.New(cfg, asyncSink{q})
	mux := http.NewServeMux()
	httpapi.NewRouter(cfg, pub, q).Register(mux)
	return &App{cfg: cfg, pub: pub, queue: q, watcher: watcher, mux: mux}
}

// asyncSink adapts the queue's non-blocking Enqueue to the watch.Publisher
// contract. A full queue drops the event, which Enqueue already logs.
type asyncSink struct {
	q *queue.Queue
}

func (s asyncSink) Publish(event any) error {
	s.q.Enqueue(event)
	return nil
}

// Run starts the queue workers, the watcher, and the ops HTTP server, and
// blocks until the context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.queue.Start(ctx)
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}
	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.queue.Stop(stopCtx)
		return srv.Shutdown(stopCtx)
	})
	g.Go(func() error {
		log.Printf("ops listening on %s", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func (a *App) Publisher() *pubsub.Publisher { return a.pub }

func (a *App) Queue() *queue.Queue { return a.queue }

func (a *App) Mux() *http.ServeMux { return a.mux }
