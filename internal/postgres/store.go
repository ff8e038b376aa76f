package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/models"
)

// Tables this adapter requires. The schema belongs to the host: Connect
// verifies presence and never creates or migrates anything.
var requiredTables = []string{"host_chats", "host_contacts", "host_settings"}

// lidMapTable is optional; its presence decides whether the strict coercion
// primitive is offered at all.
const lidMapTable = "host_lid_map"

const chatColumns = `id, account_lid, COALESCE(name, '') AS name, created_locally,
    COALESCE(lid_origin_type, '') AS lid_origin_type, unread_count, prior_id, hidden, created_at`

// Store adapts the host's Postgres schema to the shim's collaborator
// contracts. One Store serves as chat store, contact store, identifier map
// and migration-state source.
type Store struct {
	db           *sqlx.DB
	log          zerolog.Logger
	strictCoerce bool

	mu       sync.RWMutex
	dispatch hooks.CreateChatRecordFn
}

var (
	_ host.ChatStore      = (*Store)(nil)
	_ host.ContactStore   = (*Store)(nil)
	_ host.LIDMap         = (*Store)(nil)
	_ host.MigrationState = (*Store)(nil)
)

// Connect opens the host database and verifies the tables this adapter
// reads.
func Connect(dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect host db: %w", err)
	}

	s := &Store{db: db, log: log.With().Str("component", "postgres").Logger()}
	for _, table := range requiredTables {
		ok, err := s.tableExists(table)
		if err != nil {
			return nil, fmt.Errorf("probe table %s: %w", table, err)
		}
		if !ok {
			return nil, fmt.Errorf("host table %s missing", table)
		}
	}

	strict, err := s.tableExists(lidMapTable)
	if err != nil {
		return nil, fmt.Errorf("probe table %s: %w", lidMapTable, err)
	}
	s.strictCoerce = strict
	s.log.Info().Bool("strict_coerce", strict).Msg("host database attached")
	return s, nil
}

func (s *Store) tableExists(table string) (bool, error) {
	var regclass sql.NullString
	if err := s.db.Get(&regclass, `SELECT to_regclass($1)`, table); err != nil {
		return false, err
	}
	return regclass.Valid, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetRecordDispatch attaches the patched record-creation entry point.
// CreateChat routes through it once attached, so high-level creation hits
// the same decorated primitive as the host's own call sites.
func (s *Store) SetRecordDispatch(fn hooks.CreateChatRecordFn) {
	s.mu.Lock()
	s.dispatch = fn
	s.mu.Unlock()
}

func (s *Store) recordDispatch() hooks.CreateChatRecordFn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatch
}

// CreateChatRecord inserts one chat row. Creation is idempotent on id:
// re-creating an existing chat keeps the row and fills identifier columns
// the earlier write left empty.
func (s *Store) CreateChatRecord(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
	if id.IsZero() {
		return nil, errors.New("empty chat identifier")
	}

	var (
		accountLID     models.ChatID
		createdLocally bool
		originType     string
	)
	if opts != nil {
		accountLID = opts.AccountLID
		createdLocally = opts.CreatedLocally
		originType = opts.LIDOriginType
	}

	var rec models.ChatRecord
	query := `INSERT INTO host_chats (id, account_lid, created_locally, lid_origin_type)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            account_lid = COALESCE(host_chats.account_lid, EXCLUDED.account_lid),
            lid_origin_type = COALESCE(NULLIF(host_chats.lid_origin_type, ''), EXCLUDED.lid_origin_type)
        RETURNING ` + chatColumns
	if err := s.db.QueryRowxContext(ctx, query, id, accountLID, createdLocally, originType).StructScan(&rec); err != nil {
		return nil, fmt.Errorf("create chat record: %w", err)
	}
	return &rec, nil
}

// GetExistingChat fetches a chat by its exact identifier.
func (s *Store) GetExistingChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
	var rec models.ChatRecord
	err := s.db.GetContext(ctx, &rec, `SELECT `+chatColumns+` FROM host_chats WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, host.ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindChat resolves a chat by primary identifier or account LID.
func (s *Store) FindChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
	var rec models.ChatRecord
	query := `SELECT ` + chatColumns + ` FROM host_chats WHERE id=$1 OR account_lid=$1 ORDER BY created_at LIMIT 1`
	err := s.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, host.ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateChat is the host's high-level creation entry point.
func (s *Store) CreateChat(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
	if fn := s.recordDispatch(); fn != nil {
		return fn(ctx, id, opts)
	}
	return s.CreateChatRecord(ctx, id, opts)
}

// GetContact fetches one contact row.
func (s *Store) GetContact(ctx context.Context, id models.ChatID) (*models.Contact, error) {
	var c models.Contact
	query := `SELECT id, COALESCE(push_name, '') AS push_name, COALESCE(full_name, '') AS full_name, saved
        FROM host_contacts WHERE id=$1`
	err := s.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, host.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ToUserLID maps a legacy user identifier to its migrated form.
func (s *Store) ToUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error) {
	if !s.strictCoerce {
		return models.ChatID{}, host.ErrNoLIDMapping
	}
	var mapped models.ChatID
	err := s.db.GetContext(ctx, &mapped, `SELECT lid FROM host_lid_map WHERE user_id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatID{}, host.ErrNoLIDMapping
	}
	if err != nil {
		return models.ChatID{}, err
	}
	return mapped, nil
}

// CoerceUserLID is the strict converter. Identifiers already in migrated
// form pass through; everything else must have a mapping or the call fails.
func (s *Store) CoerceUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error) {
	if id.IsLID() {
		return id, nil
	}
	return s.ToUserLID(ctx, id)
}

// Capabilities reports which optional primitives this host build exposes.
func (s *Store) Capabilities() host.Capabilities {
	return host.Capabilities{StrictCoerce: s.strictCoerce}
}

// IsLIDMigrated reads the host's migration flag. Read failures count as not
// migrated, which leaves identifiers untouched.
func (s *Store) IsLIDMigrated(ctx context.Context) bool {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM host_settings WHERE key = 'lid_migrated'`)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn().Err(err).Msg("migration flag read failed")
		}
		return false
	}
	return value == "true" || value == "1"
}
