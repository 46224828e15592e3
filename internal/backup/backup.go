package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/chistopro/internal/kv"
)

// indexKey holds the catalogue of uploaded backups. It is never part of a
// snapshot, so a restore does not forget newer backups.
const indexKey = "backups"

var (
	ErrNotConfigured = errors.New("backup not configured: S3 credentials missing")
	ErrNoPassphrase  = errors.New("backup passphrase not configured")
	ErrNotFound      = errors.New("backup not found")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is the key-value store being backed up.
type Store interface {
	kv.Store
	kv.Snapshotter
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration.
type Config struct {
	S3 S3Config
	// Passphrase is used by scheduled backups and when RunNow is given none.
	Passphrase    string
	Interval      time.Duration
	RetentionDays int
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Record describes one uploaded backup.
type Record struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
	Entries   int       `json:"entries"`
}

type snapshot struct {
	CreatedAt time.Time                  `json:"created_at"`
	Records   map[string]json.RawMessage `json:"records"`
}

// Manager snapshots the key-value store into encrypted objects on
// S3-compatible storage and restores them.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger
	now      func() time.Time

	store  Store
	client s3Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager.
func NewManager(cfg Config, store Store, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		cfg:      cfg,
		store:    store,
		callback: callback,
		logger:   logger.With("component", "backup"),
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.Enabled() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
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

// Start begins the scheduled backup loop. It does nothing when backups are
// disabled or no interval and passphrase are configured.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cfg.Interval <= 0 || m.cfg.Passphrase == "" {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scheduled(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()

	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(err error) error {
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

func (m *Manager) scheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx, ""); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
		return
	}
	if m.cfg.RetentionDays > 0 {
		if err := m.Cleanup(ctx, m.cfg.RetentionDays); err != nil {
			m.logger.Error("backup cleanup failed", "error", err)
		}
	}
}

// RunNow snapshots every record, encrypts the snapshot and uploads it. An
// empty passphrase falls back to the configured one.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (*Record, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	if passphrase == "" {
		passphrase = m.cfg.Passphrase
	}
	m.mu.RUnlock()

	if client == nil {
		return nil, ErrNotConfigured
	}
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	all, err := m.store.All(ctx)
	if err != nil {
		return nil, m.fail(fmt.Errorf("read store: %w", err))
	}
	now := m.now().UTC()
	snap := snapshot{CreatedAt: now, Records: make(map[string]json.RawMessage, len(all))}
	for k, v := range all {
		if k == indexKey {
			continue
		}
		snap.Records[k] = json.RawMessage(v)
	}
	plaintext, err := json.Marshal(snap)
	if err != nil {
		return nil, m.fail(fmt.Errorf("encode snapshot: %w", err))
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, m.fail(err)
	}
	data, err := Encrypt(plaintext, passphrase, salt)
	if err != nil {
		return nil, m.fail(fmt.Errorf("encrypt: %w", err))
	}

	rec := Record{
		Key:       fmt.Sprintf("chistopro/backup-%s.json.enc", now.Format("2006-01-02T150405.000Z")),
		CreatedAt: now,
		SizeBytes: int64(len(data)),
		Entries:   len(snap.Records),
	}
	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(rec.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(rec.SizeBytes),
	}); err != nil {
		return nil, m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	records, err := m.List(ctx)
	if err != nil {
		return nil, m.fail(err)
	}
	records = append(records, rec)
	if err := m.saveIndex(ctx, records); err != nil {
		return nil, m.fail(err)
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", rec.Key, "entries", rec.Entries, "bytes", rec.SizeBytes)
	return &rec, nil
}

// List returns the uploaded backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Record, error) {
	var records []Record
	if _, err := kv.GetJSON(ctx, m.store, indexKey, &records); err != nil {
		return nil, fmt.Errorf("load backup index: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (m *Manager) saveIndex(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	if err := kv.SetJSON(ctx, m.store, indexKey, records); err != nil {
		return fmt.Errorf("save backup index: %w", err)
	}
	return nil
}

// Restore downloads the backup stored under key, decrypts it and replaces the
// contents of the store with the snapshot.
func (m *Manager) Restore(ctx context.Context, key, passphrase string) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	if passphrase == "" {
		passphrase = m.cfg.Passphrase
	}
	m.mu.RUnlock()

	if client == nil {
		return ErrNotConfigured
	}
	if passphrase == "" {
		return ErrNoPassphrase
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	current, err := m.store.All(ctx)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	for k := range current {
		if _, ok := snap.Records[k]; ok || k == indexKey {
			continue
		}
		if err := m.store.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove %q: %w", k, err)
		}
	}
	for k, v := range snap.Records {
		if err := m.store.Set(ctx, k, v); err != nil {
			return fmt.Errorf("restore %q: %w", k, err)
		}
	}

	m.logger.Info("backup restored", "key", key, "entries", len(snap.Records), "created_at", snap.CreatedAt)
	return nil
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	records, err := m.List(ctx)
	if err != nil {
		return err
	}
	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	kept := records[:0]
	for _, rec := range records {
		if !rec.CreatedAt.Before(before) {
			kept = append(kept, rec)
			continue
		}
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(rec.Key),
		}); err != nil {
			m.logger.Error("delete backup object", "key", rec.Key, "error", err)
			kept = append(kept, rec)
		}
	}
	return m.saveIndex(ctx, kept)
}
