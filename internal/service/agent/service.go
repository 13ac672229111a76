package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/w-h-a/assistant/generator"
	"github.com/w-h-a/assistant/internal/service/research"
	"github.com/w-h-a/assistant/internal/service/session"
	memorymanager "github.com/w-h-a/assistant/memory_manager"
	turnlog "github.com/w-h-a/assistant/turn_log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultPersistTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/w-h-a/assistant/internal/service/agent")

// Reply is the outcome of one turn.
type Reply struct {
	Text          string
	UsedWebSearch bool
	Generated     bool
	State         State
}

type persistJob struct {
	ctx     context.Context
	message string
	reply   string
}

type Service struct {
	research       *research.Service
	memory         memorymanager.MemoryManager
	turns          turnlog.TurnLog
	persistTimeout time.Duration
	now            func() time.Time

	jobs   chan persistJob
	done   chan struct{}
	closed bool
	// sendMtx orders sends on jobs against Close.
	sendMtx sync.Mutex

	pending int
	idle    *sync.Cond
	mtx     sync.Mutex

	turnCount     otelmetric.Int64Counter
	degradedCount otelmetric.Int64Counter
}

// Respond runs one turn on sess. It always produces a reply; persistence of
// the turn continues in the background.
func (s *Service) Respond(ctx context.Context, sess *session.Session, message string, withSearch bool) Reply {
	sess.Lock()
	defer sess.Unlock()

	ctx, span := tracer.Start(ctx, "agent.Respond", trace.WithAttributes(
		attribute.String("session.id", sess.Id()),
		attribute.Bool("web.requested", withSearch),
	))
	defer span.End()

	reply := Reply{State: Received}

	useWeb := withSearch && s.research != nil

	var web, mem string

	g := new(errgroup.Group)

	if useWeb {
		g.Go(func() error {
			web = s.research.Research(ctx, message)
			return nil
		})
	}

	g.Go(func() error {
		mem = s.memory.Retrieve(ctx, message)
		return nil
	})

	g.Wait()

	reply.State = ContextGathered
	span.AddEvent(reply.State.String())

	composed := Context{
		CurrentTime:  s.now(),
		WebRequested: useWeb,
		Web:          web,
		Memory:       mem,
	}.String()

	reply.State = Composed
	span.AddEvent(reply.State.String())

	reply.Text, reply.Generated = sess.Respond(ctx, composed, message)
	reply.UsedWebSearch = useWeb

	if !reply.Generated {
		s.degraded(ctx, "generation")
	}

	reply.State = Responded
	span.AddEvent(reply.State.String())

	s.enqueue(persistJob{ctx: ctx, message: message, reply: reply.Text})

	reply.State = Persisted
	span.AddEvent(reply.State.String())

	s.turnCount.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("web", useWeb), attribute.Bool("generated", reply.Generated)))

	return reply
}

// Wait blocks until every turn queued so far has been persisted. It is
// safe to call while other turns are running.
func (s *Service) Wait() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for s.pending > 0 {
		s.idle.Wait()
	}
}

// Close persists queued turns and stops the background writer.
func (s *Service) Close() {
	s.sendMtx.Lock()
	if s.closed {
		s.sendMtx.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.sendMtx.Unlock()

	<-s.done
}

func (s *Service) enqueue(job persistJob) {
	s.sendMtx.Lock()
	defer s.sendMtx.Unlock()

	if s.closed {
		slog.WarnContext(job.ctx, "turn not persisted, service is closed")
		return
	}

	s.mtx.Lock()
	s.pending++
	s.mtx.Unlock()

	s.jobs <- job
}

func (s *Service) run() {
	defer close(s.done)

	for job := range s.jobs {
		s.persist(job)

		s.mtx.Lock()
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mtx.Unlock()
	}
}

// persist writes the user turn then the model turn.
func (s *Service) persist(job persistJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(job.ctx), s.persistTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "agent.persist")
	defer span.End()

	for _, turn := range []generator.Message{
		{Role: generator.RoleUser, Text: job.message},
		{Role: generator.RoleModel, Text: job.reply},
	} {
		if !s.memory.Store(ctx, turn.Text, turn.Role) {
			s.degraded(ctx, "memory_store")
		}

		if s.turns == nil {
			continue
		}

		if _, err := s.turns.Append(ctx, turn.Role, turn.Text); err != nil {
			slog.ErrorContext(ctx, "failed to append turn log", "role", turn.Role, "error", err)
			s.degraded(ctx, "turn_log")
		}
	}
}

func (s *Service) degraded(ctx context.Context, source string) {
	s.degradedCount.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("source", source)))
}

func New(
	research *research.Service,
	memory memorymanager.MemoryManager,
	turns turnlog.TurnLog,
	persistTimeout time.Duration,
) *Service {
	if memory == nil {
		panic("memory manager is required")
	}

	if persistTimeout <= 0 {
		persistTimeout = defaultPersistTimeout
	}

	s := &Service{
		research:       research,
		memory:         memory,
		turns:          turns,
		persistTimeout: persistTimeout,
		now:            time.Now,
		jobs:           make(chan persistJob, 64),
		done:           make(chan struct{}),
	}

	s.idle = sync.NewCond(&s.mtx)

	meter := otel.Meter("github.com/w-h-a/assistant/internal/service/agent")

	var err error

	s.turnCount, err = meter.Int64Counter("assistant_turns")
	if err != nil {
		slog.Warn("otel counter assistant_turns", "error", err)
		s.turnCount = noop.Int64Counter{}
	}

	s.degradedCount, err = meter.Int64Counter("assistant_degraded_sources")
	if err != nil {
		slog.Warn("otel counter assistant_degraded_sources", "error", err)
		s.degradedCount = noop.Int64Counter{}
	}

	go s.run()

	return s
}
