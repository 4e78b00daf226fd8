package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration. Backups are disabled unless the
// bucket, credentials, and passphrase are all set.
type Config struct {
	S3         S3Config
	Passphrase string
	Interval   time.Duration
}

// Status holds the current backup manager status.
type Status struct {
	Enabled    bool       `json:"enabled"`
	InProgress bool       `json:"in_progress"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Manager takes periodic encrypted snapshots of the SQLite database and
// uploads them to S3-compatible storage.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

// NewManager creates a backup manager. The manager is disabled when the
// configuration is incomplete; Run and BackupNow become no-ops.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}

	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.Enabled = true
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Status returns a snapshot of the manager state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Run executes backups on the configured interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if !m.Status().Enabled {
		return
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.BackupNow(ctx); err != nil {
				m.logger.Error("scheduled backup failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// BackupNow snapshots the database, encrypts it, and uploads it. The upload
// is retried a few times with backoff before giving up.
func (m *Manager) BackupNow(ctx context.Context) error {
	m.mu.Lock()
	if !m.status.Enabled {
		m.mu.Unlock()
		return nil
	}
	if m.status.InProgress {
		m.mu.Unlock()
		return fmt.Errorf("backup already in progress")
	}
	m.status.InProgress = true
	m.mu.Unlock()

	err := m.backup(ctx)

	m.mu.Lock()
	m.status.InProgress = false
	if err != nil {
		m.status.LastError = err.Error()
	} else {
		now := time.Now()
		m.status.LastBackup = &now
		m.status.LastError = ""
	}
	m.mu.Unlock()
	return err
}

func (m *Manager) backup(ctx context.Context) error {
	snapshot, err := m.snapshot(ctx)
	if err != nil {
		return err
	}

	encrypted, err := Encrypt(snapshot, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := fmt.Sprintf("backups/barbuddy-%s.db.enc", time.Now().UTC().Format("20060102-150405"))
	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(encrypted),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "bytes", len(encrypted))
	return nil
}

// snapshot produces a consistent copy of the database via VACUUM INTO.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "barbuddy-backup-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}
