package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/ecopoints/internal/logging"
	sc "github.com/dmitrijs2005/ecopoints/internal/server/config"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// historyReader is the part of LedgerService the archiver needs.
type historyReader interface {
	HistoryByPhone(ctx context.Context, phone string) (*models.Member, []*models.DepositEvent, error)
}

// ArchiveRecord is one JSON line of an exported history.
type ArchiveRecord struct {
	EventID      int64           `json:"event_id"`
	MemberID     int64           `json:"member_id"`
	Phone        string          `json:"phone"`
	WeightAmount models.Quantity `json:"weight_amount"`
	PointsEarned models.Quantity `json:"points_earned"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ArchiveResult describes an uploaded export.
type ArchiveResult struct {
	Bucket string
	Key    string
	Events int
}

// HistoryArchiver exports a member's deposit history to S3-compatible object
// storage as JSON lines, oldest event first.
type HistoryArchiver struct {
	ledger historyReader
	config *sc.Config
	log    logging.Logger
}

func NewHistoryArchiver(ledger historyReader, cfg *sc.Config, log logging.Logger) *HistoryArchiver {
	return &HistoryArchiver{ledger: ledger, config: cfg, log: log.With("module", "archiver")}
}

func (a *HistoryArchiver) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(a.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads every deposit of the member with phone.
func (a *HistoryArchiver) Export(ctx context.Context, phone string) (*ArchiveResult, error) {
	member, events, err := a.ledger.HistoryByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	body, err := encodeArchive(member, events)
	if err != nil {
		return nil, err
	}

	c, err := a.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	key := fmt.Sprintf("history/%d/%s-%s.jsonl", member.ID, time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())
	_, err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	a.log.Info(ctx, "history exported", "member_id", member.ID, "bucket", a.config.S3Bucket, "key", key, "events", len(events))
	return &ArchiveResult{Bucket: a.config.S3Bucket, Key: key, Events: len(events)}, nil
}

// encodeArchive renders events, given newest first, as oldest-first JSON lines.
func encodeArchive(member *models.Member, events []*models.DepositEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if err := enc.Encode(ArchiveRecord{
			EventID:      e.ID,
			MemberID:     e.MemberID,
			Phone:        member.Phone,
			WeightAmount: e.WeightAmount,
			PointsEarned: e.PointsEarned,
			CreatedAt:    e.CreatedAt,
		}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
