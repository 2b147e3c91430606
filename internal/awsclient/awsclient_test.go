package awsclient

import (
	"context"
	"testing"

	"vodconverter/internal/config"
)

func TestLoadUsesStaticCredentials(t *testing.T) {
	cfg, err := Load(context.Background(), config.AWS{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("unexpected region %q", cfg.Region)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" || creds.SecretAccessKey != "secret" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if len(cfg.APIOptions) == 0 {
		t.Fatal("expected tracing middleware to be registered")
	}
}

func TestNewClientsApplyEndpoint(t *testing.T) {
	cfg, err := Load(context.Background(), config.AWS{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s3Client := NewS3(cfg, "http://localhost:4566", true)
	if got := s3Client.Options().BaseEndpoint; got == nil || *got != "http://localhost:4566" {
		t.Fatalf("unexpected s3 endpoint %v", got)
	}
	if !s3Client.Options().UsePathStyle {
		t.Fatal("expected path style addressing")
	}
	sqsClient := NewSQS(cfg, "")
	if sqsClient.Options().BaseEndpoint != nil {
		t.Fatal("expected default sqs endpoint")
	}
}
