package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veritext/detector-service/internal/models"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create events table
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		level TEXT,
		code TEXT,
		msg TEXT,
		meta TEXT
	)`); err != nil {
		return nil, err
	}

	// Create detections table with full request/result content
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS detections(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		trace_id TEXT,
		req_id TEXT,
		worker_id TEXT,
		source TEXT,
		reply_to TEXT,
		input TEXT,
		input_len INTEGER,
		words_in INTEGER,
		words_analyzed INTEGER,
		mode TEXT,
		probability_ai REAL,
		tier TEXT,
		cache_hit INTEGER,
		dur_ms REAL,
		status TEXT,
		error TEXT
	)`); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) Event(level, code, msg string, meta map[string]interface{}) {
	m := ""
	if meta != nil {
		b, _ := json.Marshal(meta)
		m = string(b)
	}
	_, _ = db.Exec(`INSERT INTO events(ts,level,code,msg,meta) VALUES(?,?,?,?,?)`,
		float64(time.Now().UnixNano())/1e9, level, code, msg, m)
}

func (db *DB) Detection(log *models.DetectionLog) {
	cacheHit := 0
	if log.CacheHit {
		cacheHit = 1
	}
	_, _ = db.Exec(`INSERT INTO detections(
		ts, trace_id, req_id, worker_id, source, reply_to, input, input_len, words_in, words_analyzed, mode, probability_ai, tier, cache_hit, dur_ms, status, error)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		float64(log.Timestamp.UnixNano())/1e9, log.TraceID, log.ReqID, log.WorkerID, log.Source, log.ReplyTo,
		log.Input, log.InputLen, log.WordsIn, log.WordsAnalyzed, log.Mode, log.ProbabilityAI, log.Tier,
		cacheHit, float64(log.DurationMs), log.Status, log.Error)
}
