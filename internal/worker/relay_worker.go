package worker

import (
	"context"
	"log"
	"time"

	"github.com/weprint/agent/internal/model"
)

// StatusReader yields a fresh printer snapshot.
type StatusReader interface {
	Status(ctx context.Context) (*model.StatusSnapshot, error)
}

// StatusPusher forwards a snapshot upstream and returns any command the
// cloud sent back.
type StatusPusher interface {
	PushStatus(ctx context.Context, status *model.RelayStatus) (*model.RelayCommand, error)
}

// CommandDispatcher executes a received command.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, cmd *model.RelayCommand) (string, error)
}

// Identity is attached to every status push so the cloud can attribute it.
type Identity struct {
	User        string
	Token       string
	PrinterName string
}

// RelayWorker is the one unsupervised actor in the process: a loop that
// polls local status, pushes it to the cloud, and dispatches any returned
// command through the same guarded services foreground requests use.
// Iterations are strictly sequential; the next tick waits for the previous
// one's work, including any dispatched command.
type RelayWorker struct {
	status   StatusReader
	cloud    StatusPusher
	commands CommandDispatcher
	identity Identity
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewRelayWorker(status StatusReader, cloud StatusPusher, commands CommandDispatcher, identity Identity, interval time.Duration) *RelayWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &RelayWorker{
		status:   status,
		cloud:    cloud,
		commands: commands,
		identity: identity,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop. Call Stop to terminate it; errors never do.
func (w *RelayWorker) Start() {
	go w.run()
}

// Stop signals the loop and waits for the in-flight iteration to finish.
func (w *RelayWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *RelayWorker) run() {
	defer close(w.done)
	log.Printf("[Relay] loop started, interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			log.Printf("[Relay] loop stopped")
			return
		case <-ticker.C:
			w.tick(context.Background())
		}
	}
}

// tick is one relay iteration. Every failure is logged and swallowed; the
// loop outlives any single bad round.
func (w *RelayWorker) tick(ctx context.Context) {
	snap, err := w.status.Status(ctx)
	if err != nil {
		log.Printf("[Relay] failed to read local status: %v", err)
		return
	}

	enriched := &model.RelayStatus{
		StatusSnapshot: *snap,
		User:           w.identity.User,
		UserToken:      w.identity.Token,
		PrinterName:    w.identity.PrinterName,
	}

	cmd, err := w.cloud.PushStatus(ctx, enriched)
	if err != nil {
		log.Printf("[Relay] failed to push status: %v", err)
		return
	}
	if cmd == nil {
		return
	}

	log.Printf("[Relay] dispatching received command: %s", cmd.Command)
	filename, err := w.commands.Dispatch(ctx, cmd)
	if err != nil {
		log.Printf("[Relay] command %s failed: %v", cmd.Command, err)
		return
	}
	if filename != "" {
		log.Printf("[Relay] command %s started %s", cmd.Command, filename)
	} else {
		log.Printf("[Relay] command %s completed", cmd.Command)
	}
}
