// Package display keeps a results board in step with the live stream and renders it.
package display

import (
	"encoding/json"
	"strings"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/models"
)

// DefaultRecentLimit bounds the recent results list.
const DefaultRecentLimit = 10

// CommandKind names a side effect the owner of a Machine must perform.
type CommandKind int

const (
	// CommandScheduleReveal asks for RevealElapsed after the reveal duration.
	CommandScheduleReveal CommandKind = iota + 1
	// CommandScheduleResync asks for a refresh after the resync delay.
	CommandScheduleResync
	// CommandRefetch asks for an immediate refresh applied with Seq.
	CommandRefetch
)

// Command is an instruction emitted by the Machine.
type Command struct {
	Kind CommandKind
	Seq  uint64
}

// Snapshot is a fetched copy of server state. Finalized is nil when it was not fetched.
type Snapshot struct {
	Leaderboard []models.StandingsEntry
	Recent      []models.EnrichedResult
	Finalized   *bool
}

type track struct {
	label    string
	level    *models.EventLevel
	index    int
	finished bool
}

// Machine reconciles pushes and polls into one consistent board. It is not
// safe for concurrent use; a single goroutine owns it.
type Machine struct {
	state       State
	finalized   bool
	headline    string
	pending     *models.EnrichedResult
	latest      *models.EnrichedResult
	recent      []models.EnrichedResult
	leaderboard []models.StandingsEntry
	winner      *models.StandingsEntry
	tracks      []*track
	recentLimit int
	revealedID  string

	issued  uint64
	fence   uint64
	applied uint64
}

// NewMachine builds an idle board. With no levels the finale scrolls a single
// track holding every result; otherwise one track per level.
func NewMachine(levels []models.EventLevel, recentLimit int) *Machine {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	m := &Machine{state: StateIdleLive, recentLimit: recentLimit}
	if len(levels) == 0 {
		m.tracks = []*track{{label: "All events"}}
	}
	for _, lvl := range levels {
		level := lvl
		m.tracks = append(m.tracks, &track{label: levelLabel(level), level: &level})
	}
	return m
}

// State returns the current presentation mode.
func (m *Machine) State() State {
	return m.state
}

// BeginRefresh reserves a sequence number for a fetch about to start.
func (m *Machine) BeginRefresh() uint64 {
	m.issued++
	return m.issued
}

// Bootstrap applies the initial fetch.
func (m *Machine) Bootstrap(snapshot Snapshot) {
	m.ApplyRefresh(m.BeginRefresh(), snapshot)
}

// HandlePush folds one stream frame into the board.
func (m *Machine) HandlePush(frame broadcast.Frame) []Command {
	switch frame.Type {
	case broadcast.EventResult:
		var result models.EnrichedResult
		if err := json.Unmarshal(frame.Data, &result); err != nil || result.ID == "" {
			return nil
		}
		return m.onResult(result)
	case broadcast.EventResultDeleted:
		var deleted models.ResultDeleted
		if err := json.Unmarshal(frame.Data, &deleted); err != nil || deleted.ID == "" {
			return nil
		}
		return m.onDeleted(deleted.ID)
	case broadcast.EventFinalize:
		var state models.FinalizeState
		if err := json.Unmarshal(frame.Data, &state); err != nil {
			return nil
		}
		return m.onFinalize(state.Finalized)
	default:
		return nil
	}
}

func (m *Machine) onResult(result models.EnrichedResult) []Command {
	switch m.state {
	case StateIdleLive:
		// A poll may already have shown the result; the reveal still plays once.
		if m.revealedID == result.ID {
			return nil
		}
		m.state = StateTransitioning
		m.headline = result.EventName
		m.pending = &result
		return []Command{{Kind: CommandScheduleReveal}}
	case StateTransitioning:
		// Coalesced: the next poll brings it into the recent list.
		return nil
	default:
		m.recent = m.bounded(prepend(result, m.recent))
		return nil
	}
}

func (m *Machine) onDeleted(id string) []Command {
	m.recent = without(m.recent, id)
	if m.latest != nil && m.latest.ID == id {
		m.latest = nil
	}
	if m.pending != nil && m.pending.ID == id {
		m.pending = nil
		m.headline = ""
		if m.state == StateTransitioning {
			m.state = StateIdleLive
		}
	}
	return []Command{m.fencedRefetch()}
}

func (m *Machine) onFinalize(finalized bool) []Command {
	if finalized == m.finalized {
		return nil
	}
	m.setFinalized(finalized)
	return []Command{m.fencedRefetch()}
}

// setFinalized moves the board into or out of the finale. Callers check that
// the flag actually changed.
func (m *Machine) setFinalized(finalized bool) {
	m.finalized = finalized
	if !finalized {
		m.state = StateIdleLive
		m.winner = nil
		return
	}
	if m.state == StateTransitioning {
		m.commitPending()
	}
	m.enterFinale()
}

// RevealElapsed ends a reveal: the pending result becomes the latest one.
func (m *Machine) RevealElapsed() []Command {
	if m.state != StateTransitioning {
		return nil
	}
	m.commitPending()
	m.state = StateIdleLive
	return []Command{{Kind: CommandScheduleResync}}
}

// ApplyRefresh installs fetched state unless a newer fetch has been applied
// or a push has fenced it off. It reports whether the snapshot was used.
func (m *Machine) ApplyRefresh(seq uint64, snapshot Snapshot) bool {
	if seq < m.fence || seq <= m.applied {
		return false
	}
	m.applied = seq

	m.leaderboard = append([]models.StandingsEntry(nil), snapshot.Leaderboard...)
	m.recent = m.bounded(append([]models.EnrichedResult(nil), snapshot.Recent...))

	switch {
	case len(snapshot.Recent) == 0:
		if m.state != StateTransitioning {
			m.latest = nil
		}
	case m.state == StateTransitioning:
	case m.latest != nil && contains(snapshot.Recent, m.latest.ID):
		for i := range snapshot.Recent {
			if snapshot.Recent[i].ID == m.latest.ID {
				fresh := snapshot.Recent[i]
				m.latest = &fresh
			}
		}
	default:
		first := snapshot.Recent[0]
		m.latest = &first
	}

	if snapshot.Finalized != nil && *snapshot.Finalized != m.finalized {
		m.setFinalized(*snapshot.Finalized)
	}

	if m.state == StateFinalizedWinner {
		m.winner = m.top()
	}
	return true
}

// ScrollTick advances every unfinished finale track by one result. When all
// tracks are finished the winner is revealed.
func (m *Machine) ScrollTick() {
	if m.state != StateFinalizedScrolling {
		return
	}
	allDone := true
	for _, t := range m.tracks {
		if !t.finished {
			items := m.trackItems(t)
			if t.index+1 < len(items) {
				t.index++
			} else {
				t.finished = true
			}
		}
		allDone = allDone && t.finished
	}
	if allDone {
		m.state = StateFinalizedWinner
		m.winner = m.top()
	}
}

// View copies the board for rendering.
func (m *Machine) View() View {
	v := View{
		State:       m.state,
		Finalized:   m.finalized,
		Headline:    m.headline,
		Pending:     copyResult(m.pending),
		Latest:      copyResult(m.latest),
		Recent:      append([]models.EnrichedResult(nil), m.recent...),
		Leaderboard: append([]models.StandingsEntry(nil), m.leaderboard...),
	}
	if m.winner != nil {
		w := *m.winner
		v.Winner = &w
	}
	if m.finalized {
		for _, t := range m.tracks {
			items := m.trackItems(t)
			tv := TrackView{Label: t.label, Total: len(items), Finished: t.finished}
			if t.index < len(items) {
				current := items[t.index]
				tv.Current = &current
				tv.Position = t.index + 1
			}
			v.Tracks = append(v.Tracks, tv)
		}
	}
	return v
}

func (m *Machine) commitPending() {
	if m.pending == nil {
		m.headline = ""
		return
	}
	revealed := *m.pending
	recent := without(m.recent, revealed.ID)
	if m.latest != nil && m.latest.ID != revealed.ID {
		recent = prepend(*m.latest, without(recent, m.latest.ID))
	}
	m.recent = m.bounded(recent)
	m.latest = &revealed
	m.revealedID = revealed.ID
	m.pending = nil
	m.headline = ""
}

func (m *Machine) enterFinale() {
	m.state = StateFinalizedScrolling
	m.winner = nil
	for _, t := range m.tracks {
		t.index = 0
		t.finished = false
	}
}

func (m *Machine) fencedRefetch() Command {
	seq := m.BeginRefresh()
	m.fence = seq
	return Command{Kind: CommandRefetch, Seq: seq}
}

func (m *Machine) trackItems(t *track) []models.EnrichedResult {
	if t.level == nil {
		return m.recent
	}
	var items []models.EnrichedResult
	for _, r := range m.recent {
		if r.EventLevel != nil && *r.EventLevel == *t.level {
			items = append(items, r)
		}
	}
	return items
}

func (m *Machine) top() *models.StandingsEntry {
	if len(m.leaderboard) == 0 {
		return nil
	}
	top := m.leaderboard[0]
	return &top
}

func (m *Machine) bounded(list []models.EnrichedResult) []models.EnrichedResult {
	if len(list) > m.recentLimit {
		return list[:m.recentLimit]
	}
	return list
}

func prepend(head models.EnrichedResult, list []models.EnrichedResult) []models.EnrichedResult {
	out := make([]models.EnrichedResult, 0, len(list)+1)
	out = append(out, head)
	for _, r := range list {
		if r.ID != head.ID {
			out = append(out, r)
		}
	}
	return out
}

func without(list []models.EnrichedResult, id string) []models.EnrichedResult {
	out := make([]models.EnrichedResult, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []models.EnrichedResult, id string) bool {
	for _, r := range list {
		if r.ID == id {
			return true
		}
	}
	return false
}

func copyResult(r *models.EnrichedResult) *models.EnrichedResult {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func levelLabel(level models.EventLevel) string {
	words := strings.Split(string(level), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
