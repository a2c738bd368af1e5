package audit

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// memoryDSN はインメモリDBを表すDSN。
const memoryDSN = ":memory:"

// timeLayout は記録日時の保存形式。文字列の大小比較が時刻順と一致するよう桁数を固定する。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store はSQLiteに認証試行を記録する監査ジャーナル。
// 複数のgoroutineから同時に使用してよい。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// Open はSQLiteデータベースを開き、マイグレーションを適用したStoreを返す。
// dsnにはファイルパスまたは ":memory:" を指定する。
func Open(ctx context.Context, dsn string) (*Store, error) {
	source := dsn
	if dsn != memoryDSN {
		source = dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// :memory: は接続ごとに別のDBになるため、接続を1本に固定する。
	if dsn == memoryDSN {
		db.SetMaxOpenConns(1)
	}

	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Record はイベントをジャーナルに追記する。
func (s *Store) Record(ctx context.Context, e *event.Event) error {
	if e == nil {
		return errors.New("イベントがnilです")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_attempts (id, aggregate_id, aggregate_type, event_type, data, succeeded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AggregateID, string(e.AggregateType), string(e.EventType), string(e.Data),
		e.EventType.Succeeded(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("認証試行の記録に失敗: %w", err)
	}
	return nil
}

// CountFailures は指定したAggregateIDの失敗した試行の件数を返す。
func (s *Store) CountFailures(ctx context.Context, aggregateID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_attempts WHERE aggregate_id = ? AND succeeded = 0`,
		aggregateID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("失敗件数の取得に失敗: %w", err)
	}
	return n, nil
}

// ListByAggregate は指定したAggregateIDの記録を記録順に返す。
func (s *Store) ListByAggregate(ctx context.Context, aggregateID string) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, created_at
		 FROM auth_attempts WHERE aggregate_id = ? ORDER BY created_at, rowid`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("認証試行の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*event.Event
	for rows.Next() {
		var (
			e             event.Event
			aggregateType string
			eventType     string
			data          string
			createdAt     string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &aggregateType, &eventType, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("認証試行の読み取りに失敗: %w", err)
		}
		e.AggregateType = event.AggregateType(aggregateType)
		e.EventType = event.Type(eventType)
		e.Data = []byte(data)
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("記録日時の解析に失敗: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
