package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fwojciec/scribe"
	"go.uber.org/zap"
)

// Repair restores the one-current-phase invariant of a session. A session
// with no current phase gets its most recently started phase reopened, or
// a fresh first phase if it has none. Phases left open without holding the
// current link are closed. Repair is idempotent and reports whether it
// changed anything.
func (d *DB) Repair(ctx context.Context, sessionID string) (bool, error) {
	var healed bool
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		current, err := currentPhaseID(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		if current == "" {
			current, err = d.reopenLatestPhase(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			healed = true
			d.logger.Warn("session had no current phase, reopened latest",
				zap.String("session_id", sessionID),
				zap.String("phase_id", current))
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE nodes SET props = json_set(props, '$.ended_at', ?)
			WHERE session_id = ? AND kind = ? AND id != ?
			  AND json_extract(props, '$.ended_at') IS NULL`,
			d.now().UnixNano(), sessionID, kindPhase, current)
		if err != nil {
			return fmt.Errorf("close stray phases: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			healed = true
			d.logger.Warn("closed stray open phases",
				zap.String("session_id", sessionID),
				zap.Int64("count", n))
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("repair session %q: %w", sessionID, err)
	}
	return healed, nil
}

func (d *DB) reopenLatestPhase(ctx context.Context, tx *sql.Tx, sessionID string) (string, error) {
	var phaseID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM nodes WHERE session_id = ? AND kind = ?
		ORDER BY seq DESC LIMIT 1`, sessionID, kindPhase).Scan(&phaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return d.openPhase(ctx, tx, sessionID, scribe.PhaseContextGathering.String())
	}
	if err != nil {
		return "", fmt.Errorf("find latest phase: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE nodes SET props = json_remove(props, '$.ended_at') WHERE id = ?`, phaseID); err != nil {
		return "", fmt.Errorf("reopen phase: %w", err)
	}
	if err := d.insertEdge(ctx, tx, sessionID, relCurrentPhase, phaseID); err != nil {
		return "", err
	}
	return phaseID, nil
}
