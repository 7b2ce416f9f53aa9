package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/logger"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDB MySQL数据库客户端
type MySQLDB struct {
	db *sql.DB
}

// NewMySQLDB 创建新的MySQL数据库连接
func NewMySQLDB(cfg *config.Database) (*MySQLDB, error) {
	db, err := sql.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	mysqlDB := NewMySQLDBWithConn(db)

	if err := mysqlDB.createTablesIfNotExists(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mysqlDB, nil
}

// NewMySQLDBWithConn 使用已有连接创建客户端，不做建表
func NewMySQLDBWithConn(db *sql.DB) *MySQLDB {
	return &MySQLDB{db: db}
}

// Close 关闭数据库连接
func (m *MySQLDB) Close() error {
	return m.db.Close()
}

// SaveDrawRecord 保存开奖数据
func (m *MySQLDB) SaveDrawRecord(record *DrawRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO draw_records (issue, draw_date, front_numbers, back_numbers)
			  VALUES (?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  draw_date = VALUES(draw_date),
			  front_numbers = VALUES(front_numbers),
			  back_numbers = VALUES(back_numbers),
			  updated_at = CURRENT_TIMESTAMP`

	_, err := m.db.Exec(query, record.Issue, record.DrawDate,
		FormatNumbers(SortedCopy(record.Front)), FormatNumbers(SortedCopy(record.Back)))
	if err != nil {
		return fmt.Errorf("failed to save draw record: %w", err)
	}

	logger.Debugf("Saved draw record: %s", record.Issue)
	return nil
}

// GetDrawByIssue 根据期号获取开奖数据，不存在时返回 nil
func (m *MySQLDB) GetDrawByIssue(issue string) (*DrawRecord, error) {
	query := `SELECT id, issue, draw_date, front_numbers, back_numbers, created_at, updated_at
			  FROM draw_records
			  WHERE issue = ?`

	record, err := scanDraw(m.db.QueryRow(query, issue))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw record by issue: %w", err)
	}
	return record, nil
}

// GetDrawHistory 获取最近 limit 期开奖数据，按时间正序返回
func (m *MySQLDB) GetDrawHistory(limit int) ([]DrawRecord, error) {
	query := `SELECT id, issue, draw_date, front_numbers, back_numbers, created_at, updated_at
			  FROM draw_records
			  ORDER BY issue DESC
			  LIMIT ?`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query draw history: %w", err)
	}
	defer rows.Close()

	var records []DrawRecord
	for rows.Next() {
		record, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw record: %w", err)
		}
		records = append(records, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading draw history rows: %w", err)
	}

	// 数据库按期号倒序取出，分析需要旧到新
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// GetLatestDraw 获取最新一期开奖数据
func (m *MySQLDB) GetLatestDraw() (*DrawRecord, error) {
	records, err := m.GetDrawHistory(1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetNextIssue 获取下一期期号
func (m *MySQLDB) GetNextIssue() (string, error) {
	var latest string
	err := m.db.QueryRow(`SELECT issue FROM draw_records ORDER BY issue DESC LIMIT 1`).Scan(&latest)
	if err == sql.ErrNoRows {
		return fmt.Sprintf("%02d001", time.Now().Year()%100), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest issue: %w", err)
	}
	return NextIssue(latest)
}

// CountDraws 统计开奖记录数
func (m *MySQLDB) CountDraws() (int, error) {
	var count int
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM draw_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draw records: %w", err)
	}
	return count, nil
}

// SavePredictionBatch 在一个事务中保存一批预测
func (m *MySQLDB) SavePredictionBatch(batch []PredictionRecord) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `INSERT INTO predictions (batch_id, target_issue, mode, seq, front_numbers, back_numbers,
			  analysis, optimized, stability_score, predicted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range batch {
		p := &batch[i]
		result, err := tx.Exec(query, p.BatchID, p.TargetIssue, p.Mode, p.Seq, p.FrontNumbers, p.BackNumbers,
			p.Analysis, p.Optimized, p.StabilityScore, p.PredictedAt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save prediction %d of batch %s: %w", p.Seq, p.BatchID, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			p.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prediction batch: %w", err)
	}

	logger.Debugf("Saved prediction batch %s (%d predictions)", batch[0].BatchID, len(batch))
	return nil
}

const predictionColumns = `id, batch_id, target_issue, mode, seq, front_numbers, back_numbers, analysis,
			  optimized, stability_score, front_hits, back_hits, prize_level, prize_amount,
			  predicted_at, verified_at`

// GetLatestPredictions 获取最新的预测记录
func (m *MySQLDB) GetLatestPredictions(limit int) ([]PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + `
			  FROM predictions
			  ORDER BY target_issue DESC, seq ASC
			  LIMIT ?`
	return m.queryPredictions(query, limit)
}

// GetPendingPredictions 获取指定期号尚未验证的预测
func (m *MySQLDB) GetPendingPredictions(targetIssue string) ([]PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + `
			  FROM predictions
			  WHERE target_issue = ? AND verified_at IS NULL
			  ORDER BY seq ASC`
	return m.queryPredictions(query, targetIssue)
}

func (m *MySQLDB) queryPredictions(query string, args ...interface{}) ([]PredictionRecord, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []PredictionRecord
	for rows.Next() {
		var p PredictionRecord
		err := rows.Scan(&p.ID, &p.BatchID, &p.TargetIssue, &p.Mode, &p.Seq, &p.FrontNumbers, &p.BackNumbers,
			&p.Analysis, &p.Optimized, &p.StabilityScore, &p.FrontHits, &p.BackHits, &p.PrizeLevel,
			&p.PrizeAmount, &p.PredictedAt, &p.VerifiedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading prediction rows: %w", err)
	}
	return predictions, nil
}

// UpdatePredictionVerification 写入验证结果
func (m *MySQLDB) UpdatePredictionVerification(id int64, frontHits, backHits int, level string, amount int64) error {
	query := `UPDATE predictions
			  SET front_hits = ?, back_hits = ?, prize_level = ?, prize_amount = ?, verified_at = NOW()
			  WHERE id = ?`

	if _, err := m.db.Exec(query, frontHits, backHits, level, amount, id); err != nil {
		return fmt.Errorf("failed to update prediction verification: %w", err)
	}

	logger.Debugf("Verified prediction %d: %s (%d)", id, level, amount)
	return nil
}

// GetPredictionStats 获取预测统计信息
func (m *MySQLDB) GetPredictionStats() (*PredictionStats, error) {
	query := `SELECT
		COUNT(*) AS total_predictions,
		COALESCE(SUM(CASE WHEN verified_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS verified_predictions,
		COALESCE(SUM(CASE WHEN prize_amount > 0 THEN 1 ELSE 0 END), 0) AS winning_predictions,
		COALESCE(SUM(prize_amount), 0) AS total_prize
	FROM predictions`

	var stats PredictionStats
	err := m.db.QueryRow(query).Scan(
		&stats.TotalPredictions, &stats.VerifiedPredictions,
		&stats.WinningPredictions, &stats.TotalPrize,
	)
	if err == sql.ErrNoRows {
		return &PredictionStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction stats: %w", err)
	}

	if stats.VerifiedPredictions > 0 {
		stats.WinRate = float64(stats.WinningPredictions) * 100 / float64(stats.VerifiedPredictions)
	}
	return &stats, nil
}

// CleanupExpiredPredictions 清理目标期号早于最新期且未验证的预测
func (m *MySQLDB) CleanupExpiredPredictions(latestIssue string) (int, error) {
	query := `DELETE FROM predictions
			  WHERE target_issue < ? AND verified_at IS NULL`

	result, err := m.db.Exec(query, latestIssue)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired predictions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// createTablesIfNotExists 自动创建表结构
func (m *MySQLDB) createTablesIfNotExists() error {
	createDrawRecordsTable := `CREATE TABLE IF NOT EXISTS draw_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		issue VARCHAR(10) UNIQUE NOT NULL COMMENT '期号',
		draw_date DATE NOT NULL COMMENT '开奖日期',
		front_numbers VARCHAR(20) NOT NULL COMMENT '前区号码',
		back_numbers VARCHAR(10) NOT NULL COMMENT '后区号码',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP COMMENT '记录创建时间',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP COMMENT '记录更新时间',
		INDEX idx_draw_date (draw_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='开奖数据表'`

	if _, err := m.db.Exec(createDrawRecordsTable); err != nil {
		return fmt.Errorf("failed to create draw_records table: %w", err)
	}

	createPredictionsTable := `CREATE TABLE IF NOT EXISTS predictions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		batch_id CHAR(36) NOT NULL COMMENT '批次ID',
		target_issue VARCHAR(10) NOT NULL COMMENT '目标期号',
		mode VARCHAR(10) NOT NULL COMMENT '单式/复式',
		seq INT NOT NULL COMMENT '批内序号',
		front_numbers VARCHAR(120) NOT NULL COMMENT '前区号码',
		back_numbers VARCHAR(40) NOT NULL COMMENT '后区号码',
		analysis TEXT COMMENT '分析说明',
		optimized BOOLEAN DEFAULT FALSE COMMENT '是否经过稳定性优化',
		stability_score INT DEFAULT 0 COMMENT '批次稳定性评分',
		front_hits INT DEFAULT NULL COMMENT '前区命中数',
		back_hits INT DEFAULT NULL COMMENT '后区命中数',
		prize_level VARCHAR(20) DEFAULT NULL COMMENT '中奖等级',
		prize_amount BIGINT DEFAULT NULL COMMENT '中奖金额',
		predicted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP COMMENT '预测时间',
		verified_at TIMESTAMP NULL COMMENT '验证时间',
		INDEX idx_batch_id (batch_id),
		INDEX idx_target_issue (target_issue),
		INDEX idx_verified_at (verified_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='预测记录表'`

	if _, err := m.db.Exec(createPredictionsTable); err != nil {
		return fmt.Errorf("failed to create predictions table: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDraw(row rowScanner) (*DrawRecord, error) {
	var (
		record      DrawRecord
		front, back string
	)
	if err := row.Scan(&record.ID, &record.Issue, &record.DrawDate, &front, &back,
		&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if record.Front, err = ParseNumbers(front); err != nil {
		return nil, fmt.Errorf("issue %s: %w", record.Issue, err)
	}
	if record.Back, err = ParseNumbers(strings.TrimSpace(back)); err != nil {
		return nil, fmt.Errorf("issue %s: %w", record.Issue, err)
	}
	return &record, nil
}
