package repo

import (
	"context"
	"database/sql"

	"goalplanner/internal/domain"
)

// MaxSessionPage bounds a session listing page.
const MaxSessionPage = 20

const sessionColumns = `id,user_id,project_id,input_goal,processed_prompt,model_response_raw,model_used,tasks_generated,processing_time_ms,tokens_used,success,error_message,created_at`

// InsertSession appends an analysis audit record. Sessions are never updated.
func (r Repo) InsertSession(ctx context.Context, s domain.AnalysisSession) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO analysis_sessions(`+sessionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.UserID, nullableStringPtr(s.ProjectID), s.InputGoal, s.ProcessedPrompt, s.ModelResponseRaw, s.ModelUsed,
		s.TasksGenerated, s.ProcessingTimeMs, s.TokensUsed, boolInt(s.Success), nullableStringPtr(s.ErrorMessage), s.CreatedAt)
	return err
}

func (r Repo) GetSession(ctx context.Context, id string) (domain.AnalysisSession, error) {
	return scanSession(r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM analysis_sessions WHERE id=?`, id))
}

// ListSessions returns a user's sessions newest first, at most MaxSessionPage.
func (r Repo) ListSessions(ctx context.Context, userID string, limit int) ([]domain.AnalysisSession, error) {
	if limit <= 0 || limit > MaxSessionPage {
		limit = MaxSessionPage
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+sessionColumns+` FROM analysis_sessions WHERE user_id=? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.AnalysisSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func scanSession(row rowScanner) (domain.AnalysisSession, error) {
	var s domain.AnalysisSession
	var projectID, errMsg sql.NullString
	var success int
	err := row.Scan(&s.ID, &s.UserID, &projectID, &s.InputGoal, &s.ProcessedPrompt, &s.ModelResponseRaw, &s.ModelUsed,
		&s.TasksGenerated, &s.ProcessingTimeMs, &s.TokensUsed, &success, &errMsg, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Success = success != 0
	if projectID.Valid {
		s.ProjectID = &projectID.String
	}
	if errMsg.Valid {
		s.ErrorMessage = &errMsg.String
	}
	return s, nil
}
