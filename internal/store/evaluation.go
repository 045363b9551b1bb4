package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
)

const evaluationColumns = `id, supplier_name, country, status, risk_level, confidence, report,
	error_count, started_at, completed_at, created_at`

type evaluationStore struct {
	conn db.DBTX
}

func newEvaluationStore(conn db.DBTX) EvaluationStore {
	return &evaluationStore{conn: conn}
}

func (s *evaluationStore) Save(ctx context.Context, state *model.EvaluationState) error {
	report, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	var riskLevel *string
	var confidence *float64
	if state.FinalDecision.RiskLevel != "" {
		rl := string(state.FinalDecision.RiskLevel)
		riskLevel = &rl
		c := state.FinalDecision.ConfidenceScore
		confidence = &c
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO evaluations (id, supplier_name, country, status, risk_level, confidence, report,
			error_count, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			risk_level = EXCLUDED.risk_level,
			confidence = EXCLUDED.confidence,
			report = EXCLUDED.report,
			error_count = EXCLUDED.error_count,
			completed_at = EXCLUDED.completed_at,
			updated_at = now()`,
		state.ID,
		state.Supplier.Name,
		state.Supplier.Country,
		string(state.WorkflowStatus),
		riskLevel,
		confidence,
		report,
		len(state.Errors),
		state.StartedAt,
		state.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save evaluation %d: %w", state.ID, err)
	}
	return nil
}

func (s *evaluationStore) GetByID(ctx context.Context, id int64) (*model.EvaluationRecord, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id)
	rec, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation %d: %w", id, err)
	}
	return rec, nil
}

// ListBySupplier returns the newest evaluations first. An empty name lists
// across all suppliers.
func (s *evaluationStore) ListBySupplier(ctx context.Context, supplierName string, limit int32) ([]model.EvaluationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+evaluationColumns+` FROM evaluations
		WHERE $1 = '' OR lower(supplier_name) = lower($1)
		ORDER BY created_at DESC
		LIMIT $2`, supplierName, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var out []model.EvaluationRecord
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (*model.EvaluationRecord, error) {
	var (
		rec       model.EvaluationRecord
		status    string
		riskLevel *string
		report    []byte
		completed *time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.SupplierName,
		&rec.Country,
		&status,
		&riskLevel,
		&rec.Confidence,
		&report,
		&rec.ErrorCount,
		&rec.StartedAt,
		&completed,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = model.WorkflowStatus(status)
	rec.CompletedAt = completed
	if riskLevel != nil {
		rec.RiskLevel = model.RiskLevel(*riskLevel)
	}
	if len(report) > 0 {
		var state model.EvaluationState
		if err := json.Unmarshal(report, &state); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		rec.Report = &state
	}
	return &rec, nil
}
