package repository

import (
	"context"
	"time"

	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/store"
)

// SQLiteRepository implements Repository interface using SQLite
type SQLiteRepository struct {
	db            *store.DB
	detectionRepo DetectionRepositoryInterface
	eventRepo     EventRepositoryInterface
}

func NewSQLiteRepository(db *store.DB) Repository {
	return &SQLiteRepository{
		db:            db,
		detectionRepo: &SQLiteDetectionRepository{db: db},
		eventRepo:     &SQLiteEventRepository{db: db},
	}
}

func (r *SQLiteRepository) Detection() DetectionRepositoryInterface {
	return r.detectionRepo
}

func (r *SQLiteRepository) Event() EventRepositoryInterface {
	return r.eventRepo
}

// SQLiteDetectionRepository handles detection logging
type SQLiteDetectionRepository struct {
	db *store.DB
}

func (r *SQLiteDetectionRepository) LogDetection(ctx context.Context, log *models.DetectionLog) error {
	r.db.Detection(log)
	return nil
}

func (r *SQLiteDetectionRepository) GetDetectionLogs(ctx context.Context, limit int) ([]*models.DetectionLog, error) {
	rows, err := r.db.Query(`SELECT ts,trace_id,req_id,worker_id,source,reply_to,input,input_len,words_in,words_analyzed,mode,probability_ai,tier,cache_hit,dur_ms,status,error FROM detections ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.DetectionLog
	for rows.Next() {
		var log models.DetectionLog
		var tsFloat float64
		var cacheHit int
		var durMs float64

		if err := rows.Scan(
			&tsFloat, &log.TraceID, &log.ReqID, &log.WorkerID, &log.Source, &log.ReplyTo,
			&log.Input, &log.InputLen, &log.WordsIn, &log.WordsAnalyzed, &log.Mode,
			&log.ProbabilityAI, &log.Tier, &cacheHit, &durMs, &log.Status, &log.Error,
		); err == nil {
			log.Timestamp = time.Unix(0, int64(tsFloat*1e9))
			log.CacheHit = cacheHit != 0
			log.DurationMs = int64(durMs)
			logs = append(logs, &log)
		}
	}

	return logs, nil
}

// SQLiteEventRepository handles event logging
type SQLiteEventRepository struct {
	db *store.DB
}

func (r *SQLiteEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	r.db.Event(level, code, msg, meta)
	return nil
}
