package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/scribe"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ scribe.Store = (*Store)(nil)

// Store is a [scribe.Store] handle bound to at most one session at a time.
type Store struct {
	d *DB

	mu        sync.Mutex
	sessionID string
	closed    bool
}

func (s *Store) session() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("sqlite: store closed: %w", scribe.ErrStoreUnavailable)
	}
	if s.sessionID == "" {
		return "", scribe.ErrNoSession
	}
	return s.sessionID, nil
}

func (s *Store) bind(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sqlite: store closed: %w", scribe.ErrStoreUnavailable)
	}
	s.sessionID = id
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sqlite: store closed: %w", scribe.ErrStoreUnavailable)
	}
	return nil
}

// SessionID returns the bound session id, or "".
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// StartNewSession creates the session node and its first phase in one
// transaction and binds the handle to the new session.
func (s *Store) StartNewSession(ctx context.Context, contentType, topic string) (string, error) {
	contentType, topic = strings.TrimSpace(contentType), strings.TrimSpace(topic)
	if contentType == "" || topic == "" {
		return "", fmt.Errorf("sqlite: content type and topic are required: %w", scribe.ErrValidation)
	}
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var sessionID string
	err := s.d.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		sessionID, err = s.d.insertNode(ctx, tx, kindSession, "", sessionProps{ContentType: contentType, Topic: topic})
		if err != nil {
			return err
		}
		_, err = s.d.openPhase(ctx, tx, sessionID, scribe.PhaseContextGathering.String())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: start session: %w", err)
	}
	if err := s.bind(sessionID); err != nil {
		return "", err
	}
	s.d.logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("content_type", contentType),
		zap.String("topic", topic))
	return sessionID, nil
}

// openPhase creates a phase node owned by sessionID and makes it current.
// The caller must have removed any previous CURRENT_PHASE edge.
func (d *DB) openPhase(ctx context.Context, q queryer, sessionID, name string) (string, error) {
	phaseID, err := d.insertNode(ctx, q, kindPhase, sessionID, phaseProps{Name: name})
	if err != nil {
		return "", err
	}
	if err := d.insertEdge(ctx, q, sessionID, relHasPhase, phaseID); err != nil {
		return "", err
	}
	if err := d.insertEdge(ctx, q, sessionID, relCurrentPhase, phaseID); err != nil {
		return "", err
	}
	return phaseID, nil
}

// AddUserInput records text and links it to responseTo when that names a
// question of the bound session.
func (s *Store) AddUserInput(ctx context.Context, text, responseTo string) (string, error) {
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}

	var inputID string
	err = s.d.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		inputID, err = s.d.insertNode(ctx, tx, kindInput, sessionID, textProps{Text: text})
		if err != nil {
			return err
		}
		if err := s.d.insertEdge(ctx, tx, sessionID, relHasInput, inputID); err != nil {
			return err
		}
		if responseTo == "" {
			return nil
		}
		ok, err := nodeExists(ctx, tx, responseTo, kindQuestion, sessionID)
		if err != nil {
			return err
		}
		if !ok {
			s.d.logger.Warn("response target is not a question of this session, link omitted",
				zap.String("session_id", sessionID),
				zap.String("input_id", inputID),
				zap.String("response_to", responseTo))
			return nil
		}
		return s.d.insertEdge(ctx, tx, inputID, relResponseTo, responseTo)
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: add user input: %w", err)
	}
	return inputID, nil
}

// AddQuestion records a question asked by the current phase.
func (s *Store) AddQuestion(ctx context.Context, text, intent string) (string, error) {
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}

	var questionID string
	err = s.d.inTx(ctx, func(tx *sql.Tx) error {
		phaseID, err := currentPhaseID(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if phaseID == "" {
			return scribe.ErrNoActivePhase
		}
		questionID, err = s.d.insertNode(ctx, tx, kindQuestion, sessionID, questionProps{Text: text, Intent: intent})
		if err != nil {
			return err
		}
		if err := s.d.insertEdge(ctx, tx, sessionID, relHasQuestion, questionID); err != nil {
			return err
		}
		return s.d.insertEdge(ctx, tx, phaseID, relAsked, questionID)
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: add question: %w", err)
	}
	return questionID, nil
}

// TransitionPhase closes the current phase and opens name in one
// transaction. A session without a current phase simply gets the new one.
func (s *Store) TransitionPhase(ctx context.Context, name string) (string, error) {
	phase, err := scribe.ParsePhase(name)
	if err != nil {
		return "", fmt.Errorf("sqlite: transition phase: %w", err)
	}
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}

	var phaseID string
	err = s.d.inTx(ctx, func(tx *sql.Tx) error {
		prev, err := currentPhaseID(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if prev != "" {
			if err := s.d.closePhase(ctx, tx, sessionID, prev); err != nil {
				return err
			}
		}
		phaseID, err = s.d.openPhase(ctx, tx, sessionID, phase.String())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: transition phase: %w", err)
	}
	s.d.logger.Info("phase transition",
		zap.String("session_id", sessionID),
		zap.String("phase", phase.String()),
		zap.String("phase_id", phaseID))
	return phaseID, nil
}

func (d *DB) closePhase(ctx context.Context, q queryer, sessionID, phaseID string) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE nodes SET props = json_set(props, '$.ended_at', ?) WHERE id = ?`,
		d.now().UnixNano(), phaseID); err != nil {
		return fmt.Errorf("close phase: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM edges WHERE src = ? AND rel = ? AND dst = ?`,
		sessionID, relCurrentPhase, phaseID); err != nil {
		return fmt.Errorf("drop current phase edge: %w", err)
	}
	return nil
}

// CurrentPhase returns the name of the bound session's current phase.
func (s *Store) CurrentPhase(ctx context.Context) (string, error) {
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}
	name, err := currentPhaseName(ctx, s.d.db, sessionID)
	if err != nil {
		return "", fmt.Errorf("sqlite: current phase: %w", err)
	}
	return name, nil
}

// ListSessions returns every session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]scribe.SessionSummary, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.d.db.QueryContext(ctx, `
		SELECT s.id,
		       json_extract(s.props, '$.topic'),
		       json_extract(s.props, '$.type'),
		       s.created_at,
		       COALESCE(json_extract(p.props, '$.name'), '')
		FROM nodes s
		LEFT JOIN edges e ON e.src = s.id AND e.rel = ?
		LEFT JOIN nodes p ON p.id = e.dst
		WHERE s.kind = ?
		ORDER BY s.seq DESC`, relCurrentPhase, kindSession)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sessions: %w", err)
	}
	defer rows.Close()

	var out []scribe.SessionSummary
	for rows.Next() {
		var sum scribe.SessionSummary
		var created int64
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.ContentType, &created, &sum.CurrentPhase); err != nil {
			return nil, fmt.Errorf("sqlite: scan session row: %w", err)
		}
		sum.CreatedAt = time.Unix(0, created)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list sessions: %w", err)
	}
	return out, nil
}

// LoadSession repairs the session's phase links if needed, binds the
// handle to it and returns its snapshot.
func (s *Store) LoadSession(ctx context.Context, id string) (*scribe.Snapshot, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var snap scribe.Snapshot
	var props string
	var created int64
	err := s.d.db.QueryRowContext(ctx,
		`SELECT id, props, created_at FROM nodes WHERE id = ? AND kind = ?`,
		id, kindSession).Scan(&snap.Session.ID, &props, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: load session %q: %w", id, scribe.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}
	var sp sessionProps
	if err := unmarshalProps(props, &sp); err != nil {
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}
	snap.Session.ContentType = sp.ContentType
	snap.Session.Topic = sp.Topic
	snap.Session.CreatedAt = time.Unix(0, created)

	if _, err := s.d.Repair(ctx, id); err != nil {
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}

	snap.PhaseName, err = currentPhaseName(ctx, s.d.db, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}

	err = s.d.db.QueryRowContext(ctx, `
		SELECT id, json_extract(props, '$.text') FROM nodes
		WHERE session_id = ? AND kind = ?
		ORDER BY seq DESC LIMIT 1`, id, kindQuestion).Scan(&snap.LastQuestionID, &snap.LastQuestion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: load last question: %w", err)
	}

	if err := s.bind(id); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddSection adds a section to the bound session.
func (s *Store) AddSection(ctx context.Context, title string) (string, error) {
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}
	var id string
	err = s.d.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.d.insertNode(ctx, tx, kindSection, sessionID, sectionProps{Title: title})
		if err != nil {
			return err
		}
		return s.d.insertEdge(ctx, tx, sessionID, relHasSection, id)
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: add section: %w", err)
	}
	return id, nil
}

// AddPoint adds a point to a section of the bound session.
func (s *Store) AddPoint(ctx context.Context, sectionID, text string) (string, error) {
	return s.addChild(ctx, "add point", sectionID, kindSection, kindPoint, relContains, text)
}

// AddEvidence attaches supporting evidence to a point of the bound session.
func (s *Store) AddEvidence(ctx context.Context, pointID, text string) (string, error) {
	return s.addChild(ctx, "add evidence", pointID, kindPoint, kindEvidence, relSupportedBy, text)
}

func (s *Store) addChild(ctx context.Context, op, parentID, parentKind, kind, rel, text string) (string, error) {
	sessionID, err := s.session()
	if err != nil {
		return "", err
	}
	var id string
	err = s.d.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := nodeExists(ctx, tx, parentID, parentKind, sessionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %q not in session: %w", strings.ToLower(parentKind), parentID, scribe.ErrValidation)
		}
		id, err = s.d.insertNode(ctx, tx, kind, sessionID, textProps{Text: text})
		if err != nil {
			return err
		}
		return s.d.insertEdge(ctx, tx, parentID, rel, id)
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return id, nil
}

// ContentStructure returns sections, points and evidence of the bound
// session in insertion order. Sections without points and points without
// evidence are included.
func (s *Store) ContentStructure(ctx context.Context) (scribe.ContentStructure, error) {
	sessionID, err := s.session()
	if err != nil {
		return scribe.ContentStructure{}, err
	}
	rows, err := s.d.db.QueryContext(ctx, `
		SELECT sec.id, json_extract(sec.props, '$.title'),
		       pt.id, json_extract(pt.props, '$.text'),
		       ev.id, json_extract(ev.props, '$.text')
		FROM edges hs
		JOIN nodes sec ON sec.id = hs.dst
		LEFT JOIN edges c ON c.src = sec.id AND c.rel = ?
		LEFT JOIN nodes pt ON pt.id = c.dst
		LEFT JOIN edges sb ON sb.src = pt.id AND sb.rel = ?
		LEFT JOIN nodes ev ON ev.id = sb.dst
		WHERE hs.src = ? AND hs.rel = ?
		ORDER BY sec.seq, pt.seq, ev.seq`,
		relContains, relSupportedBy, sessionID, relHasSection)
	if err != nil {
		return scribe.ContentStructure{}, fmt.Errorf("sqlite: content structure: %w", err)
	}
	defer rows.Close()

	var cs scribe.ContentStructure
	for rows.Next() {
		var secID, title string
		var ptID, ptText, evID, evText sql.NullString
		if err := rows.Scan(&secID, &title, &ptID, &ptText, &evID, &evText); err != nil {
			return scribe.ContentStructure{}, fmt.Errorf("sqlite: scan structure row: %w", err)
		}
		if n := len(cs.Sections); n == 0 || cs.Sections[n-1].ID != secID {
			cs.Sections = append(cs.Sections, scribe.Section{ID: secID, Title: title})
		}
		sec := &cs.Sections[len(cs.Sections)-1]
		if !ptID.Valid {
			continue
		}
		if n := len(sec.Points); n == 0 || sec.Points[n-1].ID != ptID.String {
			sec.Points = append(sec.Points, scribe.Point{ID: ptID.String, Text: ptText.String})
		}
		if !evID.Valid {
			continue
		}
		pt := &sec.Points[len(sec.Points)-1]
		pt.Evidence = append(pt.Evidence, scribe.Evidence{ID: evID.String, Text: evText.String})
	}
	if err := rows.Err(); err != nil {
		return scribe.ContentStructure{}, fmt.Errorf("sqlite: content structure: %w", err)
	}
	return cs, nil
}

// Transcript returns the questions and inputs of the bound session,
// oldest first.
func (s *Store) Transcript(ctx context.Context) ([]scribe.Exchange, error) {
	sessionID, err := s.session()
	if err != nil {
		return nil, err
	}
	rows, err := s.d.db.QueryContext(ctx, `
		SELECT kind, id, json_extract(props, '$.text'), created_at FROM nodes
		WHERE session_id = ? AND kind IN (?, ?)
		ORDER BY seq`, sessionID, kindQuestion, kindInput)
	if err != nil {
		return nil, fmt.Errorf("sqlite: transcript: %w", err)
	}
	defer rows.Close()

	var out []scribe.Exchange
	for rows.Next() {
		var kind string
		var ex scribe.Exchange
		var ts int64
		if err := rows.Scan(&kind, &ex.ID, &ex.Text, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan transcript row: %w", err)
		}
		ex.Role = scribe.RoleUser
		if kind == kindQuestion {
			ex.Role = scribe.RoleAssistant
		}
		ex.Timestamp = time.Unix(0, ts)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: transcript: %w", err)
	}
	return out, nil
}

// PhaseHistory returns every phase of the bound session, oldest first.
func (s *Store) PhaseHistory(ctx context.Context) ([]scribe.PhaseRecord, error) {
	sessionID, err := s.session()
	if err != nil {
		return nil, err
	}
	rows, err := s.d.db.QueryContext(ctx, `
		SELECT id, json_extract(props, '$.name'), created_at, json_extract(props, '$.ended_at')
		FROM nodes WHERE session_id = ? AND kind = ?
		ORDER BY seq`, sessionID, kindPhase)
	if err != nil {
		return nil, fmt.Errorf("sqlite: phase history: %w", err)
	}
	defer rows.Close()

	var out []scribe.PhaseRecord
	for rows.Next() {
		var rec scribe.PhaseRecord
		var started int64
		var ended sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Name, &started, &ended); err != nil {
			return nil, fmt.Errorf("sqlite: scan phase row: %w", err)
		}
		rec.StartedAt = time.Unix(0, started)
		if ended.Valid {
			rec.EndedAt = time.Unix(0, ended.Int64)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: phase history: %w", err)
	}
	return out, nil
}

// Close unbinds the handle. Further calls fail with
// [scribe.ErrStoreUnavailable]. The shared connection stays open until
// [DB.Close].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessionID = ""
	return nil
}

func currentPhaseID(ctx context.Context, q queryer, sessionID string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT dst FROM edges WHERE src = ? AND rel = ?`, sessionID, relCurrentPhase).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find current phase: %w", err)
	}
	return id, nil
}

func currentPhaseName(ctx context.Context, q queryer, sessionID string) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, `
		SELECT json_extract(p.props, '$.name') FROM edges e
		JOIN nodes p ON p.id = e.dst
		WHERE e.src = ? AND e.rel = ?`, sessionID, relCurrentPhase).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find current phase: %w", err)
	}
	return name, nil
}

func nodeExists(ctx context.Context, q queryer, id, kind, sessionID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE id = ? AND kind = ? AND session_id = ?`,
		id, kind, sessionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", strings.ToLower(kind), err)
	}
	return n > 0, nil
}
