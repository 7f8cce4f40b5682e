package audit

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"domaauction/core/events"
	"domaauction/core/types"
)

var ErrChainBroken = errors.New("audit: hash chain broken")

// Open connects to the audit database. Supported drivers are sqlite and
// postgres.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("audit: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	return db, nil
}

// Log appends committed events to the audit table and chains them with
// blake3 so any later edit to a stored row is detectable.
type Log struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	seq  uint64
	head [32]byte
}

func New(db *gorm.DB, log *slog.Logger) (*Log, error) {
	if db == nil {
		return nil, fmt.Errorf("audit: database required")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	l := &Log{db: db, logger: log, now: time.Now}
	var last Record
	err := db.Order("seq DESC").Limit(1).Take(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("audit: load head: %w", err)
	default:
		head, err := decodeHash(last.Hash)
		if err != nil {
			return nil, fmt.Errorf("audit: head %d: %w", last.Seq, err)
		}
		l.seq, l.head = last.Seq, head
	}
	return l, nil
}

// Emit implements events.Emitter. Failures are logged; committed state is
// never rolled back because the audit sink is unavailable.
func (l *Log) Emit(evt events.Event) {
	payload, ok := events.Payload(evt)
	if !ok {
		return
	}
	if _, err := l.Append(payload); err != nil {
		l.logger.Error("audit append failed", "type", payload.Type, "error", err)
	}
}

func (l *Log) Append(evt *types.Event) (*Record, error) {
	if evt == nil || evt.Type == "" {
		return nil, fmt.Errorf("audit: event type required")
	}
	attrs, err := encodeAttributes(evt.Attributes)
	if err != nil {
		return nil, fmt.Errorf("audit: encode attributes: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	seq := l.seq + 1
	hash := chainHash(l.head, seq, evt.Type, attrs)
	record := &Record{
		ID:         uuid.NewString(),
		Seq:        seq,
		Type:       evt.Type,
		LotID:      evt.Attr("lotId"),
		Attributes: attrs,
		PrevHash:   hex.EncodeToString(l.head[:]),
		Hash:       hex.EncodeToString(hash[:]),
		RecordedAt: l.now().UTC(),
	}
	if err := l.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("audit: insert: %w", err)
	}
	l.seq, l.head = seq, hash
	return record, nil
}

// Head returns the latest sequence number and chain hash.
func (l *Log) Head() (uint64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq, hex.EncodeToString(l.head[:])
}

type Filter struct {
	Type  string
	LotID string
	After uint64
	Limit int
}

// Records returns matching records in sequence order.
func (l *Log) Records(ctx context.Context, filter Filter) ([]Record, error) {
	query := l.db.WithContext(ctx).Model(&Record{}).Where("seq > ?", filter.After)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.LotID != "" {
		query = query.Where("lot_id = ?", filter.LotID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var out []Record
	if err := query.Order("seq ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	return out, nil
}

// Verify walks the whole chain and returns the number of records checked.
func (l *Log) Verify(ctx context.Context) (int, error) {
	var (
		prev    [32]byte
		checked int
		failure error
	)
	var batch []Record
	result := l.db.WithContext(ctx).Order("seq ASC").FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			rec := &batch[i]
			if rec.Seq != uint64(checked)+1 {
				failure = fmt.Errorf("%w: expected seq %d, found %d", ErrChainBroken, checked+1, rec.Seq)
				return failure
			}
			if rec.PrevHash != hex.EncodeToString(prev[:]) {
				failure = fmt.Errorf("%w: seq %d prev hash mismatch", ErrChainBroken, rec.Seq)
				return failure
			}
			want := chainHash(prev, rec.Seq, rec.Type, rec.Attributes)
			if rec.Hash != hex.EncodeToString(want[:]) {
				failure = fmt.Errorf("%w: seq %d hash mismatch", ErrChainBroken, rec.Seq)
				return failure
			}
			prev = want
			checked++
		}
		return nil
	})
	if failure != nil {
		return checked, failure
	}
	if result.Error != nil {
		return checked, fmt.Errorf("audit: verify: %w", result.Error)
	}
	return checked, nil
}
