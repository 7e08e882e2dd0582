// Package generator builds synthetic tasks for seeding and for the add-task action.
package generator

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/google/uuid"
)

// DefaultCategories is used when no categories are configured.
var DefaultCategories = []string{"design", "backend", "frontend", "ops"}

var authors = []string{
	"Ada Park", "Bo Lindqvist", "Chidi Okafor", "Dana Reyes",
	"Emi Sato", "Farid Haddad", "Greta Novak", "Hugo Marchetti",
}

// IDGenerator returns unique identifiers for new tasks.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Config holds generator configuration.
type Config struct {
	Categories []string
	// Seed makes output deterministic when non-zero.
	Seed uint64
}

// Generator builds tasks titled "Task N" with a fresh id and random display payload.
type Generator struct {
	mu         sync.Mutex
	idGen      IDGenerator
	clock      Clock
	rng        *rand.Rand
	categories []string
	next       int
}

// New constructs a generator. Nil idGen and clock fall back to uuid and time.Now.
func New(cfg Config, idGen IDGenerator, clock Clock) *Generator {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		idGen:      idGen,
		clock:      clock,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		categories: normalizeCategories(cfg.Categories),
	}
}

// Categories returns the categories tasks are drawn from.
func (g *Generator) Categories() []string {
	return slices.Clone(g.categories)
}

// NewTask builds one task in lane.
func (g *Generator) NewTask(lane domain.LaneID) (domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.newTaskLocked(lane)
}

// Seed builds n tasks spread randomly across lanes.
func (g *Generator) Seed(n int, lanes []domain.LaneID) ([]domain.Task, error) {
	if n < 0 {
		return nil, fmt.Errorf("seed count %d: %w", n, domain.ErrInvalidPosition)
	}
	if len(lanes) == 0 {
		lanes = domain.Lanes()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Task, 0, n)
	for range n {
		task, err := g.newTaskLocked(lanes[g.rng.IntN(len(lanes))])
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (g *Generator) newTaskLocked(lane domain.LaneID) (domain.Task, error) {
	g.next++
	task, err := domain.NewTask(domain.TaskInput{
		ID:          g.idGen(),
		Title:       fmt.Sprintf("Task %d", g.next),
		Status:      lane,
		Category:    g.categories[g.rng.IntN(len(g.categories))],
		Author:      authors[g.rng.IntN(len(authors))],
		Comments:    g.rng.IntN(12),
		Attachments: g.rng.IntN(5),
	}, g.clock())
	if err != nil {
		g.next--
		return domain.Task{}, fmt.Errorf("generate task: %w", err)
	}
	return task, nil
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		category := strings.TrimSpace(raw)
		if category == "" || slices.Contains(out, category) {
			continue
		}
		out = append(out, category)
	}
	if len(out) == 0 {
		return slices.Clone(DefaultCategories)
	}
	return out
}
