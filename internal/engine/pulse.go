package engine

import (
	"math/rand"

	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pulse keeps the simulation alive during quiet periods: on a cron schedule
// it picks a random actor and has it author a fresh tweet, seeding a new
// cascade. An empty cron expression disables the pulse.
type Pulse struct {
	cron   *cron.Cron
	spec   string
	actors repositories.ActorRepository
	queue  *Queue
	logger *zap.Logger
}

// NewPulse creates a new Pulse with the given cron expression
func NewPulse(spec string, actors repositories.ActorRepository, queue *Queue, logger *zap.Logger) *Pulse {
	return &Pulse{
		cron:   cron.New(),
		spec:   spec,
		actors: actors,
		queue:  queue,
		logger: logger,
	}
}

// Start begins the heartbeat. No-op when the pulse is disabled.
func (p *Pulse) Start() error {
	if p.spec == "" {
		p.logger.Info("simulation pulse disabled")
		return nil
	}
	if _, err := p.cron.AddFunc(p.spec, p.tick); err != nil {
		return err
	}
	p.cron.Start()
	p.logger.Info("simulation pulse started", zap.String("schedule", p.spec))
	return nil
}

// Stop halts the heartbeat and waits for a running tick to finish
func (p *Pulse) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *Pulse) tick() {
	actors, err := p.actors.GetActors()
	if err != nil {
		p.logger.Error("pulse failed to load actors", zap.Error(err))
		return
	}
	if len(actors) == 0 {
		return
	}

	actor := actors[rand.Intn(len(actors))]
	p.logger.Info("pulse waking actor", zap.String("actor", actor.Handle))
	p.queue.Send(IntentTweet, InteractionArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Text:        "Share a fresh thought about whatever is on your mind today.",
		Compose:     true,
	})
}
