package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sorenmh/nextintern/internal/internd/models"
)

// Audit actions
const (
	AuditApplicationCreated       = "APPLICATION_CREATED"
	AuditApplicationStatusChanged = "APPLICATION_STATUS_CHANGED"
	AuditApplicationWithdrawn     = "APPLICATION_WITHDRAWN"
	AuditInternshipCreated        = "INTERNSHIP_CREATED"
	AuditInternshipStatusChanged  = "INTERNSHIP_STATUS_CHANGED"
	AuditUserRegistered           = "USER_REGISTERED"
	AuditUserLoggedIn             = "USER_LOGGED_IN"
)

// AuditStore writes and reads the audit log
type AuditStore struct {
	db *sqlx.DB
}

// NewAuditStore creates a new audit store
func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends an audit entry. details is encoded as JSON.
func (s *AuditStore) Record(ctx context.Context, actorID, action, targetType, targetID, ip string, details map[string]interface{}) error {
	encoded := ""
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		encoded = string(b)
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO audit_log (id, actor_id, action, target_type, target_id, details, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), uuid.New().String(), actorID, action, targetType, targetID, encoded, ip, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

const auditColumns = `id, actor_id, action, target_type, target_id, details, ip_address, created_at`

// List pages through the whole audit log, newest first
func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_log`); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log: %w", err)
	}

	entries := []models.AuditEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`
		SELECT `+auditColumns+` FROM audit_log
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, total, nil
}

// ListForTarget lists audit entries for one record, oldest first
func (s *AuditStore) ListForTarget(ctx context.Context, targetType, targetID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`
		SELECT `+auditColumns+` FROM audit_log
		WHERE target_type = ? AND target_id = ?
		ORDER BY created_at
	`), targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, nil
}
