package simnode

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JamesRaub/scarab/pkg/config"
)

// Manager owns the simulated agents and their loop threads.
type Manager struct {
	agents map[string]*Agent
	wg     sync.WaitGroup
}

// NewManager builds one agent per config entry; newPublisher is called with
// each agent's name to give it its own output topics.
func NewManager(cfg config.Sim, newPublisher func(name string) Publisher) *Manager {
	m := &Manager{
		agents: map[string]*Agent{},
	}
	for _, ac := range cfg.Agents {
		fmt.Printf("Sim: adding agent [%s] @ %.3f, %.3f, %.3f\n", ac.Name, ac.X, ac.Y, ac.Theta)
		m.agents[ac.Name] = newAgent(ac, cfg, newPublisher(ac.Name))
	}
	return m
}

// Agent looks up an agent by name, for wiring up its command inputs.
func (m *Manager) Agent(name string) (*Agent, bool) {
	a, ok := m.agents[name]
	return a, ok
}

// Names returns the agent names in a stable order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.agents))
	for name := range m.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start spawns the integrate and publish threads for every agent.
func (m *Manager) Start(ctx context.Context) {
	for _, a := range m.agents {
		m.wg.Add(2)
		go a.IntegrateLoop(ctx, &m.wg)
		go a.PublishLoop(ctx, &m.wg)
	}
}

// Wait blocks until every agent thread has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}
