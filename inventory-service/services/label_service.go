package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"shelfwise-backend/shared/config"
	"shelfwise-backend/shared/utils/qrlabel"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LabelService renders QR label sheets and stores them in object
// storage, handing clients a time-limited download URL
type LabelService struct {
	client     *minio.Client
	bucketName string
}

// NewLabelService connects to MinIO and ensures the label bucket exists
func NewLabelService() (*LabelService, error) {
	cfg := config.GetConfig()

	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %v", err)
	}

	endpoint := parsedURL.Host
	useSSL := cfg.MinIOUseSSL

	log.Printf("🔗 Connecting to MinIO: %s (SSL: %v)", endpoint, useSSL)

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	service := &LabelService{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
	}

	if err := service.initializeBucket(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *LabelService) initializeBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	}

	return nil
}

// GenerateSheet renders the given short ids in the requested format,
// uploads the PDF and returns a presigned download URL. Grid dimensions
// apply only to the A4 format; zero values fall back to the default
// 4×2 sheet.
func (s *LabelService) GenerateSheet(shortIDs []string, format qrlabel.LabelFormat, rows, cols int) (string, error) {
	cfg := config.GetConfig()

	var pdf []byte
	var err error

	switch format {
	case qrlabel.FormatLabelSmall:
		pdf, err = qrlabel.RenderLabelPDF(shortIDs, cfg.QRScanBaseURL, qrlabel.SmallLabel)
	case qrlabel.FormatLabelLarge:
		pdf, err = qrlabel.RenderLabelPDF(shortIDs, cfg.QRScanBaseURL, qrlabel.LargeLabel)
	case qrlabel.FormatA4Grid:
		spec := qrlabel.DefaultGrid
		if rows > 0 && cols > 0 {
			spec.Rows = rows
			spec.Cols = cols
		}
		pdf, err = qrlabel.RenderGridPDF(shortIDs, cfg.QRScanBaseURL, spec)
	default:
		return "", fmt.Errorf("unknown label format: %s", format)
	}

	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("labels/%s/%d.pdf", format, time.Now().UnixNano())
	ctx := context.Background()

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey,
		bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("failed to upload label sheet: %v", err)
	}

	expiry := time.Duration(cfg.GetLabelURLExpiryHours()) * time.Hour
	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign label sheet: %v", err)
	}

	log.Printf("🏷️ Label sheet generated: %s (%d codes)", objectKey, len(shortIDs))
	return presigned.String(), nil
}
