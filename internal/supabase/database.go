package supabase

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"sora-studio-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

const videoColumns = `id, user_id, prompt, enhanced_prompt, model, duration, size, category, style,
		status, openai_task_id, storage_path, thumbnail_path, cost, error_message, metadata, created_at, updated_at`

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

type videoScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row videoScanner) (*models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.UserID, &video.Prompt, &video.EnhancedPrompt, &video.Model,
		&video.Duration, &video.Size, &video.Category, &video.Style,
		&video.Status, &video.OpenAITaskID, &video.StoragePath, &video.ThumbnailPath,
		&video.Cost, &video.ErrorMessage, &video.Metadata, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (d *DatabaseClient) CreateVideo(video *models.Video) (*models.Video, error) {
	row := d.db.QueryRow(`
		INSERT INTO videos (id, user_id, prompt, enhanced_prompt, model, duration, size, category, style, status, cost, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+videoColumns+`
	`, video.ID, video.UserID, video.Prompt, video.EnhancedPrompt, video.Model,
		video.Duration, video.Size, video.Category, video.Style, video.Status,
		video.Cost, video.Metadata)

	created, err := scanVideo(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetVideo(videoID, userID uuid.UUID) (*models.Video, error) {
	row := d.db.QueryRow(`
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = $1 AND user_id = $2
	`, videoID, userID)

	video, err := scanVideo(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

// GetVideoByID looks a video up without an owner check. Used by the poller,
// which reconciles jobs across users.
func (d *DatabaseClient) GetVideoByID(videoID uuid.UUID) (*models.Video, error) {
	row := d.db.QueryRow(`
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = $1
	`, videoID)

	video, err := scanVideo(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

type ListVideosOptions struct {
	Category string
	Status   string
	Limit    int
	Offset   int
}

// ListVideos returns a page of the owner's videos, newest first, plus the
// unpaged total for the same filters.
func (d *DatabaseClient) ListVideos(userID uuid.UUID, opts ListVideosOptions) ([]models.Video, int, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if opts.Category != "" {
		args = append(args, opts.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM videos WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	limitClause := " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, opts.Offset)
	offsetClause := " OFFSET $" + strconv.Itoa(len(args))

	rows, err := d.db.Query(`
		SELECT `+videoColumns+`
		FROM videos
		WHERE `+whereClause+`
		ORDER BY created_at DESC`+limitClause+offsetClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate videos: %w", err)
	}

	return videos, total, nil
}

// ListOutstandingVideos returns every row the poller still needs to
// reconcile, across all users.
func (d *DatabaseClient) ListOutstandingVideos() ([]models.Video, error) {
	rows, err := d.db.Query(`
		SELECT `+videoColumns+`
		FROM videos
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC
	`, models.StatusPending, models.StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate videos: %w", err)
	}

	return videos, nil
}

// MarkVideoSubmitted records the external job id and moves the row to
// processing.
func (d *DatabaseClient) MarkVideoSubmitted(videoID uuid.UUID, openaiTaskID string) error {
	_, err := d.db.Exec(`
		UPDATE videos
		SET openai_task_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, openaiTaskID, models.StatusProcessing, videoID)
	return err
}

// MarkVideoCompleted sets the completed status together with the storage
// path, keeping the storage-path-iff-completed invariant in one statement.
func (d *DatabaseClient) MarkVideoCompleted(videoID uuid.UUID, storagePath, thumbnailPath string) error {
	thumb := sql.NullString{String: thumbnailPath, Valid: thumbnailPath != ""}
	_, err := d.db.Exec(`
		UPDATE videos
		SET status = $1, storage_path = $2, thumbnail_path = $3, updated_at = NOW()
		WHERE id = $4
	`, models.StatusCompleted, storagePath, thumb, videoID)
	return err
}

func (d *DatabaseClient) MarkVideoFailed(videoID uuid.UUID, errorMsg string) error {
	msg := sql.NullString{String: errorMsg, Valid: errorMsg != ""}
	_, err := d.db.Exec(`
		UPDATE videos
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`, models.StatusFailed, msg, videoID)
	return err
}

func (d *DatabaseClient) DeleteVideo(videoID, userID uuid.UUID) error {
	_, err := d.db.Exec(`
		DELETE FROM videos
		WHERE id = $1 AND user_id = $2
	`, videoID, userID)
	return err
}

func (d *DatabaseClient) CreateUsageLog(entry *models.UsageLog) error {
	_, err := d.db.Exec(`
		INSERT INTO usage_logs (id, user_id, video_id, action, cost, duration, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, entry.VideoID, entry.Action, entry.Cost, entry.Duration, entry.Metadata)
	return err
}

func (d *DatabaseClient) ListUsageLogs(userID uuid.UUID) ([]models.UsageLog, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, video_id, action, cost, duration, metadata, created_at
		FROM usage_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	defer rows.Close()

	var logs []models.UsageLog
	for rows.Next() {
		var entry models.UsageLog
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.VideoID, &entry.Action,
			&entry.Cost, &entry.Duration, &entry.Metadata, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage logs: %w", err)
	}

	return logs, nil
}

type UserStats struct {
	TotalVideos      int
	CompletedVideos  int
	ProcessingVideos int
	TotalCost        float64
	CategoryCounts   map[string]int
}

// GetUserStats aggregates per-user spend and counts for the dashboard.
func (d *DatabaseClient) GetUserStats(userID uuid.UUID) (*UserStats, error) {
	stats := &UserStats{CategoryCounts: make(map[string]int)}

	err := d.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3),
		       COALESCE(SUM(cost), 0)
		FROM videos
		WHERE user_id = $1
	`, userID, models.StatusCompleted, models.StatusProcessing).Scan(
		&stats.TotalVideos, &stats.CompletedVideos, &stats.ProcessingVideos, &stats.TotalCost,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	rows, err := d.db.Query(`
		SELECT category, COUNT(*)
		FROM videos
		WHERE user_id = $1 AND status = $2
		GROUP BY category
	`, userID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.CategoryCounts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}

	return stats, nil
}
